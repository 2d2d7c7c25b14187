package activities

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/response"
	"github.com/semana-app/companion/pkg/storage"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	List(ctx context.Context) ([]models.Activity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error)
	Create(ctx context.Context, a *models.Activity) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetSpeakers(ctx context.Context, id uuid.UUID, speakers []models.Speaker) error
}

// PhotoUploader stores speaker photos; *storage.S3 implements it.
type PhotoUploader interface {
	UploadPhoto(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// Cache holds the full schedule between writes; *RedisCache implements it.
type Cache interface {
	Get(ctx context.Context) ([]models.Activity, error)
	Set(ctx context.Context, list []models.Activity) error
	Invalidate(ctx context.Context) error
}

// CreateRequest is the body for POST /programacao.
type CreateRequest struct {
	Title       string             `json:"titulo" binding:"required"`
	Type        string             `json:"tipo" binding:"required"`
	Location    string             `json:"local"`
	Description string             `json:"descricao"`
	TimeRanges  []models.TimeRange `json:"horarios"`
	Speakers    []models.Speaker   `json:"palestrantes"`
}

// Handler handles schedule HTTP endpoints.
type Handler struct {
	store  Store
	cache  Cache
	photos PhotoUploader
	logger *zap.Logger
}

// NewHandler creates an activities handler. cache and photos may be nil.
func NewHandler(store Store, cache Cache, photos PhotoUploader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cache: cache, photos: photos, logger: logger}
}

// List handles GET /programacao.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if h.cache != nil {
		list, err := h.cache.Get(ctx)
		if err != nil {
			h.logger.Warn("schedule cache read failed", zap.Error(err))
		} else if list != nil {
			response.OK(c, list)
			return
		}
	}

	list, err := h.store.List(ctx)
	if err != nil {
		h.logger.Error("list activities failed", zap.Error(err))
		response.Internal(c, "failed to list activities")
		return
	}
	if list == nil {
		list = []models.Activity{}
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, list); err != nil {
			h.logger.Warn("schedule cache write failed", zap.Error(err))
		}
	}
	response.OK(c, list)
}

// Get handles GET /programacao/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	a, err := h.store.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "activity not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to get activity")
		return
	}
	response.OK(c, a)
}

// Create handles POST /programacao (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	for _, tr := range req.TimeRanges {
		if tr.Start.IsZero() || !tr.End.After(tr.Start) {
			response.BadRequest(c, "each horario needs inicio before fim")
			return
		}
	}

	a := &models.Activity{
		Title:       strings.TrimSpace(req.Title),
		Type:        strings.TrimSpace(req.Type),
		Location:    req.Location,
		Description: req.Description,
		TimeRanges:  req.TimeRanges,
		Speakers:    req.Speakers,
	}
	if a.TimeRanges == nil {
		a.TimeRanges = []models.TimeRange{}
	}
	if a.Speakers == nil {
		a.Speakers = []models.Speaker{}
	}
	if err := h.store.Create(c.Request.Context(), a); err != nil {
		h.logger.Error("create activity failed", zap.Error(err))
		response.Internal(c, "failed to create activity")
		return
	}
	h.invalidate(c.Request.Context())
	response.Created(c, a)
}

// Delete handles DELETE /programacao/:id (admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	err = h.store.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "activity not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to delete activity")
		return
	}
	h.invalidate(c.Request.Context())
	response.NoContent(c)
}

// UploadSpeakerPhoto handles POST /programacao/:id/palestrantes/:idx/foto (admin, multipart field "foto").
func (h *Handler) UploadSpeakerPhoto(c *gin.Context) {
	if h.photos == nil {
		response.ServiceUnavailable(c, "photo storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		response.BadRequest(c, "invalid speaker index")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxPhotoSize+1024)
	fh, err := c.FormFile("foto")
	if err != nil {
		response.BadRequest(c, "foto file required")
		return
	}
	if fh.Size > storage.MaxPhotoSize {
		response.BadRequest(c, "photo too large")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if _, ok := storage.PhotoExtension(contentType); !ok {
		response.BadRequest(c, "unsupported content type")
		return
	}

	ctx := c.Request.Context()
	a, err := h.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "activity not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to get activity")
		return
	}
	if idx >= len(a.Speakers) {
		response.NotFound(c, "speaker not found")
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read foto")
		return
	}
	defer f.Close()

	key := storage.SpeakerPhotoKey(id.String(), strconv.Itoa(idx)+"-"+path.Base(fh.Filename))
	url, err := h.photos.UploadPhoto(ctx, key, contentType, f)
	if err != nil {
		h.logger.Error("speaker photo upload failed", zap.Error(err), zap.String("activity_id", id.String()))
		response.Internal(c, "failed to upload photo")
		return
	}
	a.Speakers[idx].PhotoURL = url
	if err := h.store.SetSpeakers(ctx, id, a.Speakers); err != nil {
		response.Internal(c, "failed to save speaker")
		return
	}
	h.invalidate(ctx)
	response.OK(c, a.Speakers[idx])
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("schedule cache invalidate failed", zap.Error(err))
	}
}
