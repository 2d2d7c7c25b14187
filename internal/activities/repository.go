package activities

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

// ErrNotFound is returned when no activity matches.
var ErrNotFound = errors.New("activity not found")

// Repository handles activity persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activities repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectActivity = `SELECT a.id, a.title, a.type, a.location, a.description, a.speakers, a.created_at,
	(SELECT q.id FROM quizzes q WHERE q.activity_id = a.id ORDER BY q.created_at LIMIT 1)
	FROM activities a`

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	var speakers []byte
	if err := row.Scan(&a.ID, &a.Title, &a.Type, &a.Location, &a.Description, &speakers, &a.CreatedAt, &a.QuizID); err != nil {
		return nil, err
	}
	if len(speakers) > 0 {
		if err := json.Unmarshal(speakers, &a.Speakers); err != nil {
			return nil, err
		}
	}
	a.TimeRanges = []models.TimeRange{}
	return &a, nil
}

// List returns every activity with its time ranges, ordered by first start.
func (r *Repository) List(ctx context.Context) ([]models.Activity, error) {
	rows, err := r.pool.Query(ctx, selectActivity+` ORDER BY (SELECT MIN(s.starts_at) FROM activity_slots s WHERE s.activity_id = a.id) NULLS LAST, a.title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Activity
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		index[a.ID] = len(list)
		list = append(list, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slots, err := r.pool.Query(ctx, `SELECT activity_id, starts_at, ends_at FROM activity_slots ORDER BY starts_at`)
	if err != nil {
		return nil, err
	}
	defer slots.Close()
	for slots.Next() {
		var id uuid.UUID
		var tr models.TimeRange
		if err := slots.Scan(&id, &tr.Start, &tr.End); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			list[i].TimeRanges = append(list[i].TimeRanges, tr)
		}
	}
	return list, slots.Err()
}

// GetByID returns an activity with its time ranges.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	a, err := scanActivity(r.pool.QueryRow(ctx, selectActivity+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT starts_at, ends_at FROM activity_slots WHERE activity_id = $1 ORDER BY starts_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tr models.TimeRange
		if err := rows.Scan(&tr.Start, &tr.End); err != nil {
			return nil, err
		}
		a.TimeRanges = append(a.TimeRanges, tr)
	}
	return a, rows.Err()
}

// Exists reports whether an activity with this id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM activities WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// Create inserts an activity and its time ranges.
func (r *Repository) Create(ctx context.Context, a *models.Activity) error {
	speakers, err := json.Marshal(a.Speakers)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO activities (title, type, location, description, speakers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, q, a.Title, a.Type, a.Location, a.Description, speakers).Scan(&a.ID, &a.CreatedAt); err != nil {
		return err
	}
	for _, tr := range a.TimeRanges {
		if _, err := tx.Exec(ctx, `INSERT INTO activity_slots (activity_id, starts_at, ends_at) VALUES ($1, $2, $3)`,
			a.ID, tr.Start, tr.End); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Delete removes an activity by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSpeakers replaces the speaker list of an activity.
func (r *Repository) SetSpeakers(ctx context.Context, id uuid.UUID, speakers []models.Speaker) error {
	b, err := json.Marshal(speakers)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE activities SET speakers = $2 WHERE id = $1`, id, b)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
