package presence

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/middleware"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/queue"
	"github.com/semana-app/companion/pkg/response"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	Register(ctx context.Context, a *models.Attendance) error
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Attendance, error)
	CountByActivity(ctx context.Context, activityID uuid.UUID) (int, error)
}

// Enqueuer schedules engagement recomputation; *queue.Queue implements it.
type Enqueuer interface {
	EnqueueEngagement(ctx context.Context, typ queue.JobType, payload queue.EngagementPayload) error
}

// RegisterRequest is the body for POST /presenca.
type RegisterRequest struct {
	ParticipantID uuid.UUID `json:"participanteId" binding:"required"`
	ActivityID    uuid.UUID `json:"palestraId" binding:"required"`
}

// Handler handles attendance HTTP endpoints.
type Handler struct {
	store   Store
	jobs    Enqueuer
	metrics *middleware.Metrics
	logger  *zap.Logger
}

// NewHandler creates a presence handler. jobs and metrics may be nil.
func NewHandler(store Store, jobs Enqueuer, metrics *middleware.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jobs: jobs, metrics: metrics, logger: logger}
}

// Register handles POST /presenca. Participants check themselves in; admins may check in anyone.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !middleware.SelfOrAdmin(c, req.ParticipantID) {
		response.Forbidden(c, "not allowed for this participant")
		return
	}

	a := &models.Attendance{ParticipantID: req.ParticipantID, ActivityID: req.ActivityID}
	err := h.store.Register(c.Request.Context(), a)
	switch {
	case errors.Is(err, ErrActivityNotFound):
		response.NotFound(c, "activity not found")
		return
	case errors.Is(err, ErrAlreadyRegistered):
		response.Conflict(c, "attendance already registered")
		return
	case err != nil:
		h.logger.Error("register attendance failed", zap.Error(err),
			zap.String("participant_id", req.ParticipantID.String()),
			zap.String("activity_id", req.ActivityID.String()))
		response.Internal(c, "failed to register attendance")
		return
	}

	h.metrics.ObserveAttendance()
	if h.jobs != nil {
		p := queue.EngagementPayload{ParticipantID: a.ParticipantID, ActivityID: a.ActivityID}
		if err := h.jobs.EnqueueEngagement(c.Request.Context(), queue.JobTypeAttendance, p); err != nil {
			h.logger.Warn("enqueue engagement failed", zap.Error(err))
		}
	}
	response.Created(c, a)
}

// List handles GET /presenca?participanteId=. Defaults to the caller.
func (h *Handler) List(c *gin.Context) {
	id := middleware.UserID(c)
	if raw := c.Query("participanteId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid participanteId")
			return
		}
		id = parsed
	}
	if !middleware.SelfOrAdmin(c, id) {
		response.Forbidden(c, "not allowed for this participant")
		return
	}
	list, err := h.store.ListByParticipant(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list attendance")
		return
	}
	response.OK(c, list)
}

// Count handles GET /presenca/palestra/:id/total (admin).
func (h *Handler) Count(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	n, err := h.store.CountByActivity(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to count attendance")
		return
	}
	response.OK(c, gin.H{"palestraId": id, "total": n})
}
