package draw

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

// Repository reads participant engagement for the dashboard.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a draw repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Engagement returns one row per participant. Without an activity scope the
// worker-maintained participant_engagement table is read; a scope by activity
// or activity type is counted live from the source tables.
func (r *Repository) Engagement(ctx context.Context, f models.DrawFilter) ([]models.EngagementRow, error) {
	if f.ActivityID == nil && f.ActivityType == "" {
		const q = `SELECT p.id, p.name, p.email,
			COALESCE(e.attendance, 0), COALESCE(e.feedback, 0), COALESCE(e.questions, 0), COALESCE(e.likes, 0), COALESCE(e.total, 0)
			FROM participants p
			LEFT JOIN participant_engagement e ON e.participant_id = p.id
			WHERE p.role = 'participant'
			ORDER BY p.name`
		rows, err := r.pool.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		return collect(rows, false)
	}

	const scoped = `WITH scope AS (
			SELECT id FROM activities
			WHERE ($1::uuid IS NULL OR id = $1) AND ($2 = '' OR type = $2)
		)
		SELECT p.id, p.name, p.email,
			(SELECT COUNT(*) FROM attendance a WHERE a.participant_id = p.id AND a.activity_id IN (SELECT id FROM scope)),
			(SELECT COUNT(*) FROM feedback f WHERE f.participant_id = p.id AND f.activity_id IN (SELECT id FROM scope)),
			(SELECT COUNT(*) FROM questions q WHERE q.author_id = p.id AND q.activity_id IN (SELECT id FROM scope)),
			(SELECT COUNT(*) FROM question_likes l WHERE l.participant_id = p.id AND l.activity_id IN (SELECT id FROM scope))
		FROM participants p
		WHERE p.role = 'participant'
		ORDER BY p.name`
	rows, err := r.pool.Query(ctx, scoped, f.ActivityID, f.ActivityType)
	if err != nil {
		return nil, err
	}
	return collect(rows, true)
}

func collect(rows pgx.Rows, computeTotal bool) ([]models.EngagementRow, error) {
	defer rows.Close()
	list := []models.EngagementRow{}
	for rows.Next() {
		var e models.EngagementRow
		dest := []interface{}{&e.ParticipantID, &e.Name, &e.Email, &e.Attendance, &e.Feedback, &e.Questions, &e.Likes}
		if !computeTotal {
			dest = append(dest, &e.Total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if computeTotal {
			e.Total = models.EngagementTotal(e.Attendance, e.Feedback, e.Questions, e.Likes)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
