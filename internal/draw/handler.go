package draw

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/response"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	Engagement(ctx context.Context, f models.DrawFilter) ([]models.EngagementRow, error)
}

// Handler serves the admin engagement dashboard and prize drawing.
type Handler struct {
	store  Store
	random io.Reader
	logger *zap.Logger
}

// NewHandler creates a draw handler. random may be nil to use crypto/rand.
func NewHandler(store Store, random io.Reader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, random: random, logger: logger}
}

func (h *Handler) candidates(c *gin.Context) ([]models.EngagementRow, models.DrawFilter, bool) {
	var f models.DrawFilter
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&f); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return nil, f, false
		}
	}
	if f.Order != "" && f.Order != "asc" && f.Order != "desc" {
		response.BadRequest(c, "ordem must be asc or desc")
		return nil, f, false
	}
	rows, err := h.store.Engagement(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("load engagement failed", zap.Error(err))
		response.Internal(c, "failed to load engagement")
		return nil, f, false
	}
	return Apply(rows, f), f, true
}

// List handles POST /sorteio/usuarios/all (admin).
func (h *Handler) List(c *gin.Context) {
	rows, _, ok := h.candidates(c)
	if !ok {
		return
	}
	response.OK(c, rows)
}

// Draw handles POST /sorteio/sortear (admin).
func (h *Handler) Draw(c *gin.Context) {
	rows, f, ok := h.candidates(c)
	if !ok {
		return
	}
	res, err := Pick(rows, h.random)
	if errors.Is(err, ErrNoCandidates) {
		response.Unprocessable(c, "no eligible participants")
		return
	}
	if err != nil {
		response.Internal(c, "failed to draw")
		return
	}
	h.logger.Info("prize drawn",
		zap.String("winner_id", res.Winner.ParticipantID.String()),
		zap.Int("candidates", res.Candidates),
		zap.Int("min_presencas", f.MinAttendance))
	response.OK(c, res)
}
