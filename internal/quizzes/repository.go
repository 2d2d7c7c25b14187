package quizzes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/semana-app/companion/internal/models"
)

var (
	ErrNotFound         = errors.New("quiz not found")
	ErrAlreadySubmitted = errors.New("quiz already answered")
)

// Repository handles quiz persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quizzes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a quiz with its questions and options in one transaction.
func (r *Repository) Create(ctx context.Context, q *models.Quiz, correct map[int]map[int]bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO quizzes (activity_id, title) VALUES ($1, $2) RETURNING id, released, created_at`,
		q.ActivityID, q.Title).Scan(&q.ID, &q.Released, &q.CreatedAt); err != nil {
		return err
	}
	for i := range q.Questions {
		qq := &q.Questions[i]
		if err := tx.QueryRow(ctx, `INSERT INTO quiz_questions (quiz_id, position, prompt) VALUES ($1, $2, $3) RETURNING id`,
			q.ID, i, qq.Prompt).Scan(&qq.ID); err != nil {
			return err
		}
		for j := range qq.Options {
			o := &qq.Options[j]
			o.Correct = correct[i][j]
			if err := tx.QueryRow(ctx, `INSERT INTO quiz_options (question_id, position, text, correct) VALUES ($1, $2, $3, $4) RETURNING id`,
				qq.ID, j, o.Text, o.Correct).Scan(&o.ID); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

// Get returns a quiz with its questions and options, including which options are correct.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var q models.Quiz
	err := r.pool.QueryRow(ctx, `SELECT id, activity_id, title, released, created_at FROM quizzes WHERE id = $1`, id).
		Scan(&q.ID, &q.ActivityID, &q.Title, &q.Released, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	const opts = `SELECT qq.id, qq.prompt, o.id, o.text, o.correct
		FROM quiz_questions qq
		LEFT JOIN quiz_options o ON o.question_id = qq.id
		WHERE qq.quiz_id = $1
		ORDER BY qq.position, o.position`
	rows, err := r.pool.Query(ctx, opts, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	q.Questions = []models.QuizQuestion{}
	for rows.Next() {
		var qid uuid.UUID
		var prompt string
		var oid *uuid.UUID
		var text *string
		var correct *bool
		if err := rows.Scan(&qid, &prompt, &oid, &text, &correct); err != nil {
			return nil, err
		}
		n := len(q.Questions)
		if n == 0 || q.Questions[n-1].ID != qid {
			q.Questions = append(q.Questions, models.QuizQuestion{ID: qid, Prompt: prompt, Options: []models.QuizOption{}})
			n++
		}
		if oid != nil {
			q.Questions[n-1].Options = append(q.Questions[n-1].Options, models.QuizOption{ID: *oid, Text: *text, Correct: *correct})
		}
	}
	return &q, rows.Err()
}

// ListReleased returns released quizzes without their questions.
func (r *Repository) ListReleased(ctx context.Context) ([]models.Quiz, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, activity_id, title, released, created_at FROM quizzes WHERE released ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Quiz{}
	for rows.Next() {
		var q models.Quiz
		if err := rows.Scan(&q.ID, &q.ActivityID, &q.Title, &q.Released, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Questions = []models.QuizQuestion{}
		list = append(list, q)
	}
	return list, rows.Err()
}

// Release opens a quiz for answers.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quizzes SET released = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveResult stores the participant's single submission score.
func (r *Repository) SaveResult(ctx context.Context, participantID uuid.UUID, res models.QuizResult) error {
	tag, err := r.pool.Exec(ctx, `INSERT INTO quiz_submissions (quiz_id, participant_id, correct, total)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (quiz_id, participant_id) DO NOTHING`, res.QuizID, participantID, res.Correct, res.Total)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}
