package quizzes

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/middleware"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/response"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	Create(ctx context.Context, q *models.Quiz, correct map[int]map[int]bool) error
	Get(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListReleased(ctx context.Context) ([]models.Quiz, error)
	Release(ctx context.Context, id uuid.UUID) error
	SaveResult(ctx context.Context, participantID uuid.UUID, res models.QuizResult) error
}

// OptionInput is one option in a quiz creation request.
type OptionInput struct {
	Text    string `json:"texto" binding:"required"`
	Correct bool   `json:"correta"`
}

// QuestionInput is one question in a quiz creation request.
type QuestionInput struct {
	Prompt  string        `json:"enunciado" binding:"required"`
	Options []OptionInput `json:"opcoes" binding:"required,min=2,dive"`
}

// CreateRequest is the body for POST /quizzes (admin).
type CreateRequest struct {
	ActivityID uuid.UUID       `json:"palestraId" binding:"required"`
	Title      string          `json:"titulo" binding:"required"`
	Questions  []QuestionInput `json:"perguntas" binding:"required,min=1,dive"`
}

// Handler handles quiz HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a quizzes handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

func quizParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quiz id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /quizzes (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q := &models.Quiz{ActivityID: req.ActivityID, Title: strings.TrimSpace(req.Title)}
	correct := make(map[int]map[int]bool)
	for i, in := range req.Questions {
		qq := models.QuizQuestion{Prompt: in.Prompt}
		hasCorrect := false
		for j, o := range in.Options {
			qq.Options = append(qq.Options, models.QuizOption{Text: o.Text})
			if o.Correct {
				if correct[i] == nil {
					correct[i] = make(map[int]bool)
				}
				correct[i][j] = true
				hasCorrect = true
			}
		}
		if !hasCorrect {
			response.BadRequest(c, "every question needs a correct option")
			return
		}
		q.Questions = append(q.Questions, qq)
	}
	if err := h.store.Create(c.Request.Context(), q, correct); err != nil {
		h.logger.Error("create quiz failed", zap.Error(err))
		response.Internal(c, "failed to create quiz")
		return
	}
	response.Created(c, q)
}

// Get handles GET /quizzes/:id. Correct options are never serialised.
func (h *Handler) Get(c *gin.Context) {
	id, ok := quizParam(c)
	if !ok {
		return
	}
	q, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "quiz not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to get quiz")
		return
	}
	if !q.Released && !middleware.IsAdmin(c) {
		response.NotFound(c, "quiz not found")
		return
	}
	response.OK(c, q)
}

// ListReleased handles GET /quizzes/liberados.
func (h *Handler) ListReleased(c *gin.Context) {
	list, err := h.store.ListReleased(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list quizzes")
		return
	}
	response.OK(c, list)
}

// Release handles POST /quizzes/:id/liberar (admin).
func (h *Handler) Release(c *gin.Context) {
	id, ok := quizParam(c)
	if !ok {
		return
	}
	err := h.store.Release(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "quiz not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to release quiz")
		return
	}
	response.OK(c, gin.H{"id": id, "liberado": true})
}

// Answer handles POST /quizzes/responder/:id. One submission per participant; returns the score.
func (h *Handler) Answer(c *gin.Context) {
	id, ok := quizParam(c)
	if !ok {
		return
	}
	var sub models.QuizSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if len(sub.Answers) == 0 {
		response.BadRequest(c, "respostas must not be empty")
		return
	}

	ctx := c.Request.Context()
	q, err := h.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "quiz not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to get quiz")
		return
	}
	if !q.Released {
		response.Unprocessable(c, "quiz not released")
		return
	}
	known := make(map[uuid.UUID]bool, len(q.Questions))
	for _, qq := range q.Questions {
		known[qq.ID] = true
	}
	for qid := range sub.Answers {
		if !known[qid] {
			response.BadRequest(c, "answer for unknown question "+qid.String())
			return
		}
	}

	res := q.Score(sub)
	err = h.store.SaveResult(ctx, middleware.UserID(c), res)
	if errors.Is(err, ErrAlreadySubmitted) {
		response.Conflict(c, "quiz already answered")
		return
	}
	if err != nil {
		h.logger.Error("save quiz result failed", zap.Error(err))
		response.Internal(c, "failed to save answers")
		return
	}
	response.OK(c, res)
}
