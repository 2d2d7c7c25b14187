package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
)

type voteResponse struct {
	Votes int `json:"votos"`
}

type likeResponse struct {
	Likes int `json:"curtidas"`
}

// Questions lists the questions of a talk.
func (c *Client) Questions(ctx context.Context, talkID uuid.UUID) ([]models.Question, error) {
	var out []models.Question
	err := c.do(ctx, OpListQuestions, http.MethodGet, "/perguntas/palestra/"+talkID.String(), nil, nil, &out)
	return out, err
}

// CreateQuestion asks a question on a talk. The title must not be blank.
func (c *Client) CreateQuestion(ctx context.Context, talkID uuid.UUID, title, description string) (*models.Question, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError(OpCreateQuestion, "titulo must not be empty")
	}
	body := map[string]interface{}{
		"palestraId": talkID,
		"titulo":     title,
		"descricao":  strings.TrimSpace(description),
	}
	var out models.Question
	if err := c.do(ctx, OpCreateQuestion, http.MethodPost, "/perguntas", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vote adds the session participant's vote and returns the new count.
func (c *Client) Vote(ctx context.Context, questionID uuid.UUID) (int, error) {
	var out voteResponse
	err := c.do(ctx, OpVote, http.MethodPost, "/perguntas/"+questionID.String()+"/votar", nil, nil, &out)
	return out.Votes, err
}

// Unvote removes the session participant's vote and returns the new count.
func (c *Client) Unvote(ctx context.Context, questionID uuid.UUID) (int, error) {
	var out voteResponse
	err := c.do(ctx, OpUnvote, http.MethodPost, "/perguntas/"+questionID.String()+"/remover-voto", nil, nil, &out)
	return out.Votes, err
}

// AnswerQuestion marks a question answered (admin). answer may be nil.
func (c *Client) AnswerQuestion(ctx context.Context, questionID uuid.UUID, answer *string) error {
	return c.do(ctx, OpAnswerQuestion, http.MethodPatch, "/perguntas/"+questionID.String()+"/responder", nil,
		map[string]*string{"resposta": answer}, nil)
}

// SetQuestionStatus moderates a question (admin).
func (c *Client) SetQuestionStatus(ctx context.Context, questionID uuid.UUID, status models.QuestionStatus) error {
	if !status.Valid() {
		return validationError(OpSetQuestionStatus, "unknown status "+string(status))
	}
	return c.do(ctx, OpSetQuestionStatus, http.MethodPatch, "/perguntas/"+questionID.String()+"/status", nil,
		map[string]models.QuestionStatus{"status": status}, nil)
}

// CanLike asks whether participantID may still like questions on a talk.
func (c *Client) CanLike(ctx context.Context, talkID, participantID uuid.UUID) (models.LikeAllowance, error) {
	var out models.LikeAllowance
	q := url.Values{"participanteId": {participantID.String()}}
	err := c.do(ctx, OpCanLike, http.MethodGet, "/perguntas/palestra/"+talkID.String()+"/curtidas/pode-curtir", q, nil, &out)
	return out, err
}

// Like likes a question and returns its like count.
func (c *Client) Like(ctx context.Context, questionID uuid.UUID) (int, error) {
	var out likeResponse
	err := c.do(ctx, OpLike, http.MethodPost, "/perguntas/"+questionID.String()+"/curtir", nil, nil, &out)
	return out.Likes, err
}

// Unlike removes a like and returns the question's like count.
func (c *Client) Unlike(ctx context.Context, questionID uuid.UUID) (int, error) {
	var out likeResponse
	err := c.do(ctx, OpUnlike, http.MethodPost, "/perguntas/"+questionID.String()+"/descurtir", nil, nil, &out)
	return out.Likes, err
}
