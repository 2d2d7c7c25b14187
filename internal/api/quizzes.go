package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
)

// Quiz fetches a quiz. Correct options are never part of the response.
func (c *Client) Quiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var out models.Quiz
	if err := c.do(ctx, OpGetQuiz, http.MethodGet, "/quizzes/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleasedQuizzes lists quizzes open for answers.
func (c *Client) ReleasedQuizzes(ctx context.Context) ([]models.Quiz, error) {
	var out []models.Quiz
	err := c.do(ctx, OpListQuizzes, http.MethodGet, "/quizzes/liberados", nil, nil, &out)
	return out, err
}

// ReleaseQuiz opens a quiz for answers (admin).
func (c *Client) ReleaseQuiz(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, OpReleaseQuiz, http.MethodPost, "/quizzes/"+id.String()+"/liberar", nil, nil, nil)
}

// AnswerQuiz submits answers once and returns the score.
func (c *Client) AnswerQuiz(ctx context.Context, id uuid.UUID, sub models.QuizSubmission) (models.QuizResult, error) {
	if len(sub.Answers) == 0 {
		return models.QuizResult{}, validationError(OpAnswerQuiz, "no answers")
	}
	var out models.QuizResult
	err := c.do(ctx, OpAnswerQuiz, http.MethodPost, "/quizzes/responder/"+id.String(), nil, sub, &out)
	return out, err
}
