package feedback

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

var (
	// ErrAttendanceRequired is returned when the participant has no attendance for the activity.
	ErrAttendanceRequired = errors.New("attendance required before feedback")
	// ErrAlreadySubmitted is returned for a second feedback on the same activity.
	ErrAlreadySubmitted = errors.New("feedback already submitted")
)

// Repository handles feedback persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a feedback repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts feedback if the participant attended the activity and has not rated it yet.
func (r *Repository) Create(ctx context.Context, f *models.Feedback) error {
	const q = `INSERT INTO feedback (participant_id, activity_id, rating, comment)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM attendance WHERE participant_id = $1 AND activity_id = $2)
		ON CONFLICT (participant_id, activity_id) DO NOTHING
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, f.ParticipantID, f.ActivityID, f.Rating, f.Comment).Scan(&f.ID, &f.CreatedAt)
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// Nothing inserted: tell the two rejections apart.
	var attended bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendance WHERE participant_id = $1 AND activity_id = $2)`,
		f.ParticipantID, f.ActivityID).Scan(&attended); err != nil {
		return err
	}
	if !attended {
		return ErrAttendanceRequired
	}
	return ErrAlreadySubmitted
}

func (r *Repository) list(ctx context.Context, where string, arg uuid.UUID) ([]models.Feedback, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, participant_id, activity_id, rating, comment, created_at
		FROM feedback WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.ParticipantID, &f.ActivityID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// ListByActivity returns all feedback for an activity, newest first.
func (r *Repository) ListByActivity(ctx context.Context, activityID uuid.UUID) ([]models.Feedback, error) {
	return r.list(ctx, "activity_id = $1", activityID)
}

// ListByParticipant returns all feedback written by a participant, newest first.
func (r *Repository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Feedback, error) {
	return r.list(ctx, "participant_id = $1", participantID)
}
