package feedback

import (
	"context"
	"errors"
	"strings"

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
	Create(ctx context.Context, f *models.Feedback) error
	ListByActivity(ctx context.Context, activityID uuid.UUID) ([]models.Feedback, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.Feedback, error)
}

// Enqueuer schedules engagement recomputation; *queue.Queue implements it.
type Enqueuer interface {
	EnqueueEngagement(ctx context.Context, typ queue.JobType, payload queue.EngagementPayload) error
}

// CreateRequest is the body for POST /feedback.
type CreateRequest struct {
	ParticipantID *uuid.UUID `json:"participanteId"`
	ActivityID    uuid.UUID  `json:"palestraId" binding:"required"`
	Rating        int        `json:"nota" binding:"required"`
	Comment       *string    `json:"comentario"`
}

// Handler handles feedback HTTP endpoints.
type Handler struct {
	store   Store
	jobs    Enqueuer
	metrics *middleware.Metrics
	logger  *zap.Logger
}

// NewHandler creates a feedback handler. jobs and metrics may be nil.
func NewHandler(store Store, jobs Enqueuer, metrics *middleware.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, jobs: jobs, metrics: metrics, logger: logger}
}

// Create handles POST /feedback.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		response.BadRequest(c, "nota must be between 1 and 5")
		return
	}
	participantID := middleware.UserID(c)
	if req.ParticipantID != nil && *req.ParticipantID != participantID {
		response.Forbidden(c, "feedback can only be sent for yourself")
		return
	}
	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		if trimmed == "" {
			req.Comment = nil
		} else {
			req.Comment = &trimmed
		}
	}

	f := &models.Feedback{
		ParticipantID: participantID,
		ActivityID:    req.ActivityID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	}
	err := h.store.Create(c.Request.Context(), f)
	switch {
	case errors.Is(err, ErrAttendanceRequired):
		response.Unprocessable(c, "attendance required before feedback")
		return
	case errors.Is(err, ErrAlreadySubmitted):
		response.Conflict(c, "feedback already submitted for this activity")
		return
	case err != nil:
		h.logger.Error("create feedback failed", zap.Error(err))
		response.Internal(c, "failed to save feedback")
		return
	}

	h.metrics.ObserveFeedback(f.Rating)
	if h.jobs != nil {
		p := queue.EngagementPayload{ParticipantID: participantID, ActivityID: f.ActivityID}
		if err := h.jobs.EnqueueEngagement(c.Request.Context(), queue.JobTypeFeedback, p); err != nil {
			h.logger.Warn("enqueue engagement failed", zap.Error(err))
		}
	}
	response.Created(c, f)
}

// ListByActivity handles GET /feedback/palestra/:id.
func (h *Handler) ListByActivity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	list, err := h.store.ListByActivity(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list feedback")
		return
	}
	response.OK(c, list)
}

// ListByParticipant handles GET /feedback/usuario/:id (self or admin).
func (h *Handler) ListByParticipant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return
	}
	if !middleware.SelfOrAdmin(c, id) {
		response.Forbidden(c, "not allowed for this participant")
		return
	}
	list, err := h.store.ListByParticipant(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list feedback")
		return
	}
	response.OK(c, list)
}
