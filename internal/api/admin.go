package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
)

// Engagement lists participants for the prize drawing dashboard (admin).
func (c *Client) Engagement(ctx context.Context, f models.DrawFilter) ([]models.EngagementRow, error) {
	var out []models.EngagementRow
	err := c.do(ctx, OpEngagement, http.MethodPost, "/sorteio/usuarios/all", nil, f, &out)
	return out, err
}

// Draw picks a winner among the participants matching f (admin).
func (c *Client) Draw(ctx context.Context, f models.DrawFilter) (models.DrawResult, error) {
	var out models.DrawResult
	err := c.do(ctx, OpDraw, http.MethodPost, "/sorteio/sortear", nil, f, &out)
	return out, err
}

// Profile fetches a participant profile.
func (c *Client) Profile(ctx context.Context, participantID uuid.UUID) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, OpGetProfile, http.MethodGet, "/participantes/"+participantID.String()+"/perfil", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile patches the given profile fields.
func (c *Client) UpdateProfile(ctx context.Context, participantID uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, OpUpdateProfile, http.MethodPatch, "/participantes/"+participantID.String()+"/perfil", nil, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PhotoUpload is a presigned destination for a profile photo.
type PhotoUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
}

// PhotoUploadURL requests a presigned PUT URL for a profile photo.
func (c *Client) PhotoUploadURL(ctx context.Context, participantID uuid.UUID, contentType string) (*PhotoUpload, error) {
	var out PhotoUpload
	body := map[string]string{"contentType": contentType}
	if err := c.do(ctx, OpPhotoUpload, http.MethodPost, "/participantes/"+participantID.String()+"/foto", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutPhoto uploads body to a presigned URL returned by PhotoUploadURL.
func (c *Client) PutPhoto(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", OpPhotoUpload, err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: OpPhotoUpload, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &Error{Kind: kindForStatus(resp.StatusCode), Op: OpPhotoUpload, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
