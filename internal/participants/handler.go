package participants

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
	"github.com/semana-app/companion/pkg/storage"
	"github.com/semana-app/companion/pkg/utils"
)

// Store is the persistence the handler needs; *Repository implements it.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	GetByEmail(ctx context.Context, email string) (*models.Participant, error)
	List(ctx context.Context) ([]models.Participant, error)
	Create(ctx context.Context, email, passwordHash, name string, role models.Role) (*models.Participant, error)
	GetProfile(ctx context.Context, participantID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, participantID uuid.UUID, u models.ProfileUpdate) error
	SetPhotoKey(ctx context.Context, participantID uuid.UUID, key string) error
}

// TokenIssuer issues JWTs for authenticated participants.
type TokenIssuer interface {
	Generate(participantID uuid.UUID, email, role string) (string, error)
}

// PhotoStore presigns photo uploads and downloads. Nil disables photos.
type PhotoStore interface {
	PresignPhotoUpload(ctx context.Context, key, contentType string) (string, error)
	PresignPhotoDownload(ctx context.Context, key string) (string, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=6"`
	Name     string `json:"nome" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token       string             `json:"token"`
	Participant models.Participant `json:"participante"`
}

// PhotoRequest is the body for POST /participantes/:id/foto.
type PhotoRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// Handler handles auth and profile HTTP endpoints.
type Handler struct {
	store  Store
	tokens TokenIssuer
	photos PhotoStore
	logger *zap.Logger
}

// NewHandler creates a participants handler.
func NewHandler(store Store, tokens TokenIssuer, photos PhotoStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, tokens: tokens, photos: photos, logger: logger}
}

// Register handles POST /auth/register. New accounts are always participants.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.BadRequest(c, "invalid password")
		return
	}

	p, err := h.store.Create(c.Request.Context(), strings.TrimSpace(req.Email), hash, strings.TrimSpace(req.Name), models.RoleParticipant)
	if errors.Is(err, ErrEmailTaken) {
		response.Conflict(c, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("create participant failed", zap.Error(err))
		response.Internal(c, "failed to create participant")
		return
	}

	tok, err := h.tokens.Generate(p.ID, p.Email, string(p.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: tok, Participant: *p})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	p, err := h.store.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil || !utils.CheckPassword(req.Password, p.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	tok, err := h.tokens.Generate(p.ID, p.Email, string(p.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: tok, Participant: *p})
}

// List handles GET /participantes (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, list)
}

func (h *Handler) participantParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid participant id")
		return uuid.Nil, false
	}
	if !middleware.SelfOrAdmin(c, id) {
		response.Forbidden(c, "not allowed for this participant")
		return uuid.Nil, false
	}
	return id, true
}

// GetProfile handles GET /participantes/:id/perfil (self or admin).
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := h.participantParam(c)
	if !ok {
		return
	}
	pr, err := h.store.GetProfile(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "participant not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load profile")
		return
	}
	h.resolvePhoto(c.Request.Context(), pr)
	response.OK(c, pr)
}

// UpdateProfile handles PATCH /participantes/:id/perfil (self or admin).
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := h.participantParam(c)
	if !ok {
		return
	}
	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		response.BadRequest(c, "nome must not be empty")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetByID(ctx, id); err != nil {
		response.NotFound(c, "participant not found")
		return
	}
	if err := h.store.UpdateProfile(ctx, id, req); err != nil {
		h.logger.Error("update profile failed", zap.Error(err), zap.String("participant_id", id.String()))
		response.Internal(c, "failed to update profile")
		return
	}
	pr, err := h.store.GetProfile(ctx, id)
	if err != nil {
		response.Internal(c, "failed to load profile")
		return
	}
	h.resolvePhoto(ctx, pr)
	response.OK(c, pr)
}

// PhotoUploadURL handles POST /participantes/:id/foto. Returns a presigned PUT URL and records the key.
func (h *Handler) PhotoUploadURL(c *gin.Context) {
	id, ok := h.participantParam(c)
	if !ok {
		return
	}
	if h.photos == nil {
		response.ServiceUnavailable(c, "photo storage not configured")
		return
	}
	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ext, ok := storage.PhotoExtension(req.ContentType)
	if !ok {
		response.BadRequest(c, "unsupported content type")
		return
	}
	key := storage.ParticipantPhotoKey(id.String(), ext)
	url, err := h.photos.PresignPhotoUpload(c.Request.Context(), key, req.ContentType)
	if err != nil {
		h.logger.Error("presign photo upload failed", zap.Error(err))
		response.Internal(c, "failed to create upload url")
		return
	}
	if err := h.store.SetPhotoKey(c.Request.Context(), id, key); err != nil {
		response.Internal(c, "failed to save photo")
		return
	}
	response.OK(c, gin.H{"uploadUrl": url, "key": key})
}

// resolvePhoto turns the stored key into a presigned download URL.
func (h *Handler) resolvePhoto(ctx context.Context, pr *models.Profile) {
	key := pr.PhotoURL
	pr.PhotoURL = ""
	if key == "" || h.photos == nil {
		return
	}
	url, err := h.photos.PresignPhotoDownload(ctx, key)
	if err != nil {
		h.logger.Warn("presign photo download failed", zap.Error(err))
		return
	}
	pr.PhotoURL = url
}
