package participants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

var (
	// ErrNotFound is returned when no participant matches.
	ErrNotFound = errors.New("participant not found")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// Repository handles participant and profile persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectParticipant = `SELECT id, email, password_hash, name, role, created_at FROM participants`

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	var role string
	if err := row.Scan(&p.ID, &p.Email, &p.Password, &p.Name, &role, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Role = models.Role(role)
	return &p, nil
}

// GetByID returns a participant by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx, selectParticipant+` WHERE id = $1`, id))
}

// GetByEmail returns a participant by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx, selectParticipant+` WHERE lower(email) = lower($1)`, email))
}

// List returns all participants for admin screens.
func (r *Repository) List(ctx context.Context) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx, selectParticipant+` ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Create inserts a participant and an empty profile in one transaction.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.Participant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO participants (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, name, role, created_at`
	p, err := scanParticipant(tx.QueryRow(ctx, q, email, passwordHash, name, string(role)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO profiles (participant_id) VALUES ($1)`, p.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile returns the profile joined with the participant name. PhotoURL holds the storage key.
func (r *Repository) GetProfile(ctx context.Context, participantID uuid.UUID) (*models.Profile, error) {
	const q = `SELECT p.id, p.name, COALESCE(pr.company,''), COALESCE(pr.job_title,''), COALESCE(pr.city,''),
		COALESCE(pr.phone,''), COALESCE(pr.photo_key,''), COALESCE(pr.updated_at, p.updated_at)
		FROM participants p LEFT JOIN profiles pr ON pr.participant_id = p.id WHERE p.id = $1`
	var pr models.Profile
	err := r.pool.QueryRow(ctx, q, participantID).Scan(&pr.ParticipantID, &pr.Name, &pr.Company, &pr.JobTitle,
		&pr.City, &pr.Phone, &pr.PhotoURL, &pr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// UpdateProfile applies the non-nil fields of u.
func (r *Repository) UpdateProfile(ctx context.Context, participantID uuid.UUID, u models.ProfileUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if u.Name != nil {
		tag, err := tx.Exec(ctx, `UPDATE participants SET name = $1, updated_at = NOW() WHERE id = $2`, *u.Name, participantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	const q = `INSERT INTO profiles (participant_id, company, job_title, city, phone)
		VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''))
		ON CONFLICT (participant_id) DO UPDATE SET
			company = COALESCE($2, profiles.company),
			job_title = COALESCE($3, profiles.job_title),
			city = COALESCE($4, profiles.city),
			phone = COALESCE($5, profiles.phone),
			updated_at = NOW()`
	if _, err := tx.Exec(ctx, q, participantID, u.Company, u.JobTitle, u.City, u.Phone); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetPhotoKey stores the object key of the participant's photo.
func (r *Repository) SetPhotoKey(ctx context.Context, participantID uuid.UUID, key string) error {
	const q = `INSERT INTO profiles (participant_id, photo_key) VALUES ($1, $2)
		ON CONFLICT (participant_id) DO UPDATE SET photo_key = EXCLUDED.photo_key, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, participantID, key)
	return err
}
