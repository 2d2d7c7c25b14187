package questions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

var (
	ErrNotFound       = errors.New("question not found")
	ErrAlreadyVoted   = errors.New("already voted")
	ErrNotVoted       = errors.New("vote not found")
	ErrAlreadyLiked   = errors.New("already liked")
	ErrNotLiked       = errors.New("like not found")
	ErrLikeLimit      = errors.New("like limit reached for this talk")
	ErrActivityAbsent = errors.New("activity not found")
)

// Repository handles question, vote and like persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectQuestion = `SELECT q.id, q.activity_id, q.author_id, p.name, q.title, q.description,
	q.status, q.answered, q.answer, q.created_at,
	COALESCE((SELECT array_agg(v.participant_id::text ORDER BY v.created_at) FROM question_votes v WHERE v.question_id = q.id), '{}'),
	(SELECT COUNT(*) FROM question_likes l WHERE l.question_id = q.id)
	FROM questions q
	JOIN participants p ON p.id = q.author_id`

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	var voters []string
	if err := row.Scan(&q.ID, &q.ActivityID, &q.AuthorID, &q.AuthorName, &q.Title, &q.Description,
		&q.Status, &q.Answered, &q.Answer, &q.CreatedAt, &voters, &q.Likes); err != nil {
		return nil, err
	}
	q.Voters = make([]uuid.UUID, 0, len(voters))
	for _, s := range voters {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		q.Voters = append(q.Voters, id)
	}
	q.Votes = len(q.Voters)
	return &q, nil
}

// ListByActivity returns the questions of a talk visible to viewer, most voted first.
// Admins see every question; participants see approved ones plus their own.
func (r *Repository) ListByActivity(ctx context.Context, activityID, viewer uuid.UUID, admin bool) ([]models.Question, error) {
	const where = ` WHERE q.activity_id = $1 AND ($3 OR q.status = 'approved' OR q.author_id = $2)
		ORDER BY (SELECT COUNT(*) FROM question_votes v WHERE v.question_id = q.id) DESC, q.created_at ASC`
	rows, err := r.pool.Query(ctx, selectQuestion+where, activityID, viewer, admin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

// GetByID returns a question by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx, selectQuestion+` WHERE q.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, err
}

// Create inserts a new pending question.
func (r *Repository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, activity_id, author_id, title, description, status)
		SELECT gen_random_uuid(), $1, $2, $3, $4, 'pending'
		WHERE EXISTS (SELECT 1 FROM activities WHERE id = $1)
		RETURNING id, status, created_at`
	err := r.pool.QueryRow(ctx, query, q.ActivityID, q.AuthorID, q.Title, q.Description).
		Scan(&q.ID, &q.Status, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrActivityAbsent
	}
	if err != nil {
		return err
	}
	q.Voters = []uuid.UUID{}
	return nil
}

func countVotes(ctx context.Context, db pgx.Tx, questionID uuid.UUID) (int, error) {
	var n int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM question_votes WHERE question_id = $1`, questionID).Scan(&n)
	return n, err
}

// Vote records one vote by participant and returns the new count.
func (r *Repository) Vote(ctx context.Context, questionID, participantID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `INSERT INTO question_votes (question_id, participant_id) VALUES ($1, $2)
		ON CONFLICT (question_id, participant_id) DO NOTHING`, questionID, participantID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrAlreadyVoted
	}
	n, err := countVotes(ctx, tx, questionID)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

// Unvote removes the participant's vote and returns the new count.
func (r *Repository) Unvote(ctx context.Context, questionID, participantID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM question_votes WHERE question_id = $1 AND participant_id = $2`, questionID, participantID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotVoted
	}
	n, err := countVotes(ctx, tx, questionID)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit(ctx)
}

// MarkAnswered sets answered and stores the optional answer text.
func (r *Repository) MarkAnswered(ctx context.Context, id uuid.UUID, answer *string) error {
	const query = `UPDATE questions SET answered = TRUE, answer = COALESCE($2, answer) WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, answer)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus changes the moderation status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.QuestionStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LikesUsed counts the likes a participant has spent on one talk.
func (r *Repository) LikesUsed(ctx context.Context, activityID, participantID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM question_likes WHERE activity_id = $1 AND participant_id = $2`,
		activityID, participantID).Scan(&n)
	return n, err
}

// Like records a like, enforcing max likes per participant per talk, and returns the question's like count.
// An advisory lock on (talk, participant) serialises concurrent likes from several devices.
func (r *Repository) Like(ctx context.Context, questionID, participantID uuid.UUID, max int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var activityID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT activity_id FROM questions WHERE id = $1`, questionID).Scan(&activityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, activityID.String()+participantID.String()); err != nil {
		return 0, err
	}

	var used int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM question_likes WHERE activity_id = $1 AND participant_id = $2`,
		activityID, participantID).Scan(&used); err != nil {
		return 0, err
	}
	if used >= max {
		return 0, ErrLikeLimit
	}

	tag, err := tx.Exec(ctx, `INSERT INTO question_likes (question_id, participant_id, activity_id) VALUES ($1, $2, $3)
		ON CONFLICT (question_id, participant_id) DO NOTHING`, questionID, participantID, activityID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrAlreadyLiked
	}

	var likes int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM question_likes WHERE question_id = $1`, questionID).Scan(&likes); err != nil {
		return 0, err
	}
	return likes, tx.Commit(ctx)
}

// Unlike removes a like and returns the question's like count.
func (r *Repository) Unlike(ctx context.Context, questionID, participantID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question_likes WHERE question_id = $1 AND participant_id = $2`, questionID, participantID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotLiked
	}
	var likes int
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM question_likes WHERE question_id = $1`, questionID).Scan(&likes)
	return likes, err
}
