package presence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

var (
	// ErrActivityNotFound is returned when the scanned activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned for a second check-in at the same activity.
	ErrAlreadyRegistered = errors.New("attendance already registered")
)

// Repository handles attendance persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a presence repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Register inserts attendance for participant at activity (unique per pair).
func (r *Repository) Register(ctx context.Context, a *models.Attendance) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM activities WHERE id = $1)`, a.ActivityID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrActivityNotFound
	}

	const q = `INSERT INTO attendance (id, participant_id, activity_id)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (participant_id, activity_id) DO NOTHING
		RETURNING id, registered_at`
	err = tx.QueryRow(ctx, q, a.ParticipantID, a.ActivityID).Scan(&a.ID, &a.RegisteredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAlreadyRegistered
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByParticipant returns a participant's attendance, newest first.
func (r *Repository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Attendance, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, participant_id, activity_id, registered_at
		FROM attendance WHERE participant_id = $1 ORDER BY registered_at DESC`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Attendance{}
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.ActivityID, &a.RegisteredAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// CountByActivity returns how many participants checked in at an activity.
func (r *Repository) CountByActivity(ctx context.Context, activityID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attendance WHERE activity_id = $1`, activityID).Scan(&n)
	return n, err
}
