package engagement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

// Repository recomputes the participant_engagement counters.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an engagement repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Recompute counts a participant's attendance, feedback, questions and likes and upserts the row.
func (r *Repository) Recompute(ctx context.Context, participantID uuid.UUID) (*models.EngagementRow, error) {
	const q = `WITH c AS (
			SELECT
				(SELECT COUNT(*) FROM attendance WHERE participant_id = $1)::int     AS attendance,
				(SELECT COUNT(*) FROM feedback WHERE participant_id = $1)::int       AS feedback,
				(SELECT COUNT(*) FROM questions WHERE author_id = $1)::int           AS questions,
				(SELECT COUNT(*) FROM question_likes WHERE participant_id = $1)::int AS likes
		)
		INSERT INTO participant_engagement (participant_id, attendance, feedback, questions, likes, total, updated_at)
		SELECT $1, attendance, feedback, questions, likes, attendance + feedback + questions + likes, NOW() FROM c
		ON CONFLICT (participant_id) DO UPDATE SET
			attendance = EXCLUDED.attendance,
			feedback   = EXCLUDED.feedback,
			questions  = EXCLUDED.questions,
			likes      = EXCLUDED.likes,
			total      = EXCLUDED.total,
			updated_at = NOW()
		RETURNING participant_id, attendance, feedback, questions, likes, total`
	var e models.EngagementRow
	err := r.pool.QueryRow(ctx, q, participantID).
		Scan(&e.ParticipantID, &e.Attendance, &e.Feedback, &e.Questions, &e.Likes, &e.Total)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
