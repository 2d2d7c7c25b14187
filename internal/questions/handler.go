package questions

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/middleware"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/realtime"
	"github.com/semana-app/companion/pkg/queue"
	"github.com/semana-app/companion/pkg/response"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	ListByActivity(ctx context.Context, activityID, viewer uuid.UUID, admin bool) ([]models.Question, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
	Create(ctx context.Context, q *models.Question) error
	Vote(ctx context.Context, questionID, participantID uuid.UUID) (int, error)
	Unvote(ctx context.Context, questionID, participantID uuid.UUID) (int, error)
	MarkAnswered(ctx context.Context, id uuid.UUID, answer *string) error
	SetStatus(ctx context.Context, id uuid.UUID, status models.QuestionStatus) error
	LikesUsed(ctx context.Context, activityID, participantID uuid.UUID) (int, error)
	Like(ctx context.Context, questionID, participantID uuid.UUID, max int) (int, error)
	Unlike(ctx context.Context, questionID, participantID uuid.UUID) (int, error)
}

// Broadcaster pushes board events to everyone watching a talk; *realtime.Hub implements it.
type Broadcaster interface {
	Publish(talkID uuid.UUID, event string, payload interface{})
}

// Enqueuer schedules engagement recomputation; *queue.Queue implements it.
type Enqueuer interface {
	EnqueueEngagement(ctx context.Context, typ queue.JobType, payload queue.EngagementPayload) error
}

// CreateRequest is the body for POST /perguntas.
type CreateRequest struct {
	ActivityID  uuid.UUID `json:"palestraId" binding:"required"`
	Title       string    `json:"titulo" binding:"required"`
	Description string    `json:"descricao"`
}

// AnswerRequest is the body for PATCH /perguntas/:id/responder.
type AnswerRequest struct {
	Answer *string `json:"resposta"`
}

// StatusRequest is the body for PATCH /perguntas/:id/status.
type StatusRequest struct {
	Status models.QuestionStatus `json:"status" binding:"required"`
}

// Handler handles question board HTTP endpoints.
type Handler struct {
	store    Store
	hub      Broadcaster
	jobs     Enqueuer
	metrics  *middleware.Metrics
	maxLikes int
	logger   *zap.Logger
}

// NewHandler creates a questions handler. hub, jobs and metrics may be nil.
func NewHandler(store Store, hub Broadcaster, jobs Enqueuer, metrics *middleware.Metrics, maxLikes int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, hub: hub, jobs: jobs, metrics: metrics, maxLikes: maxLikes, logger: logger}
}

func (h *Handler) publish(talkID uuid.UUID, event string, payload interface{}) {
	if h.hub != nil {
		h.hub.Publish(talkID, event, payload)
	}
}

func (h *Handler) enqueue(ctx context.Context, typ queue.JobType, participantID, activityID uuid.UUID) {
	if h.jobs == nil {
		return
	}
	p := queue.EngagementPayload{ParticipantID: participantID, ActivityID: activityID}
	if err := h.jobs.EnqueueEngagement(ctx, typ, p); err != nil {
		h.logger.Warn("enqueue engagement failed", zap.Error(err), zap.String("type", string(typ)))
	}
}

func idParam(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// ListByActivity handles GET /perguntas/palestra/:id.
func (h *Handler) ListByActivity(c *gin.Context) {
	activityID, ok := idParam(c, "activity")
	if !ok {
		return
	}
	list, err := h.store.ListByActivity(c.Request.Context(), activityID, middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		h.logger.Error("list questions failed", zap.Error(err))
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, list)
}

// Create handles POST /perguntas. New questions start pending.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		response.BadRequest(c, "titulo must not be empty")
		return
	}
	userID := middleware.UserID(c)
	q := &models.Question{
		ActivityID:  req.ActivityID,
		AuthorID:    userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
	}
	err := h.store.Create(c.Request.Context(), q)
	if errors.Is(err, ErrActivityAbsent) {
		response.NotFound(c, "activity not found")
		return
	}
	if err != nil {
		h.logger.Error("create question failed", zap.Error(err))
		response.Internal(c, "failed to create question")
		return
	}

	h.publish(q.ActivityID, realtime.EventQuestionCreated, q)
	h.enqueue(c.Request.Context(), queue.JobTypeQuestion, userID, q.ActivityID)
	response.Created(c, q)
}

// Vote handles POST /perguntas/:id/votar. One vote per participant; authors cannot vote on their own question.
func (h *Handler) Vote(c *gin.Context) {
	h.changeVote(c, true)
}

// Unvote handles POST /perguntas/:id/remover-voto.
func (h *Handler) Unvote(c *gin.Context) {
	h.changeVote(c, false)
}

func (h *Handler) changeVote(c *gin.Context, add bool) {
	questionID, ok := idParam(c, "question")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	q, err := h.store.GetByID(ctx, questionID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	if q.AuthorID == userID {
		response.Forbidden(c, "cannot vote on your own question")
		return
	}
	if add && q.Status != models.QuestionApproved && !middleware.IsAdmin(c) {
		response.NotFound(c, "question not found")
		return
	}

	var votes int
	action := "vote"
	if add {
		votes, err = h.store.Vote(ctx, questionID, userID)
	} else {
		action = "unvote"
		votes, err = h.store.Unvote(ctx, questionID, userID)
	}
	switch {
	case errors.Is(err, ErrAlreadyVoted):
		response.Conflict(c, "already voted")
		return
	case errors.Is(err, ErrNotVoted):
		response.Conflict(c, "no vote to remove")
		return
	case err != nil:
		h.logger.Error("vote failed", zap.Error(err), zap.String("action", action))
		response.Internal(c, "failed to "+action)
		return
	}

	h.metrics.ObserveVote(action)
	h.publish(q.ActivityID, realtime.EventQuestionVotes, gin.H{"id": q.ID, "votos": votes})
	response.OK(c, gin.H{"id": q.ID, "votos": votes})
}

// Answer handles PATCH /perguntas/:id/responder (admin).
func (h *Handler) Answer(c *gin.Context) {
	questionID, ok := idParam(c, "question")
	if !ok {
		return
	}
	var req AnswerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	ctx := c.Request.Context()
	q, err := h.store.GetByID(ctx, questionID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	if err := h.store.MarkAnswered(ctx, questionID, req.Answer); err != nil {
		response.Internal(c, "failed to mark question answered")
		return
	}

	h.publish(q.ActivityID, realtime.EventQuestionAnswered, gin.H{"id": q.ID, "respondida": true, "resposta": req.Answer})
	response.OK(c, gin.H{"id": q.ID, "respondida": true})
}

// SetStatus handles PATCH /perguntas/:id/status (admin moderation).
func (h *Handler) SetStatus(c *gin.Context) {
	questionID, ok := idParam(c, "question")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		response.BadRequest(c, "status must be pending, approved or rejected")
		return
	}
	ctx := c.Request.Context()
	q, err := h.store.GetByID(ctx, questionID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	if err := h.store.SetStatus(ctx, questionID, req.Status); err != nil {
		response.Internal(c, "failed to update status")
		return
	}

	h.publish(q.ActivityID, realtime.EventQuestionStatus, gin.H{"id": q.ID, "status": req.Status})
	response.OK(c, gin.H{"id": q.ID, "status": req.Status})
}

// CanLike handles GET /perguntas/palestra/:id/curtidas/pode-curtir?participanteId=.
func (h *Handler) CanLike(c *gin.Context) {
	activityID, ok := idParam(c, "activity")
	if !ok {
		return
	}
	participantID := middleware.UserID(c)
	if raw := c.Query("participanteId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid participanteId")
			return
		}
		if !middleware.SelfOrAdmin(c, id) {
			response.Forbidden(c, "not allowed for this participant")
			return
		}
		participantID = id
	}
	used, err := h.store.LikesUsed(c.Request.Context(), activityID, participantID)
	if err != nil {
		response.Internal(c, "failed to count likes")
		return
	}
	response.OK(c, models.LikeAllowance{Allowed: used < h.maxLikes, Used: used, Max: h.maxLikes})
}

// Like handles POST /perguntas/:id/curtir. A spent cap is 422, a repeated like 409.
func (h *Handler) Like(c *gin.Context) {
	questionID, ok := idParam(c, "question")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	likes, err := h.store.Like(ctx, questionID, userID, h.maxLikes)
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "question not found")
		return
	case errors.Is(err, ErrLikeLimit):
		h.metrics.ObserveLike("limit")
		response.Unprocessable(c, "like limit reached for this talk")
		return
	case errors.Is(err, ErrAlreadyLiked):
		response.Conflict(c, "already liked")
		return
	case err != nil:
		h.logger.Error("like failed", zap.Error(err))
		response.Internal(c, "failed to like question")
		return
	}
	h.metrics.ObserveLike("liked")
	h.afterLike(ctx, questionID, userID, likes)
	response.OK(c, gin.H{"id": questionID, "curtidas": likes})
}

// Unlike handles POST /perguntas/:id/descurtir.
func (h *Handler) Unlike(c *gin.Context) {
	questionID, ok := idParam(c, "question")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	likes, err := h.store.Unlike(ctx, questionID, userID)
	if errors.Is(err, ErrNotLiked) {
		response.Conflict(c, "no like to remove")
		return
	}
	if err != nil {
		response.Internal(c, "failed to unlike question")
		return
	}
	h.metrics.ObserveLike("unliked")
	h.afterLike(ctx, questionID, userID, likes)
	response.OK(c, gin.H{"id": questionID, "curtidas": likes})
}

func (h *Handler) afterLike(ctx context.Context, questionID, userID uuid.UUID, likes int) {
	q, err := h.store.GetByID(ctx, questionID)
	if err != nil {
		return
	}
	h.publish(q.ActivityID, realtime.EventQuestionLikes, gin.H{"id": questionID, "curtidas": likes})
	h.enqueue(ctx, queue.JobTypeLike, userID, q.ActivityID)
}
