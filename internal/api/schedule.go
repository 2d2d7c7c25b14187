package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
)

// Activities fetches the full schedule.
func (c *Client) Activities(ctx context.Context) ([]models.Activity, error) {
	var out []models.Activity
	err := c.do(ctx, OpListActivities, http.MethodGet, "/programacao", nil, nil, &out)
	return out, err
}

// Activity fetches one schedule entry.
func (c *Client) Activity(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	var out models.Activity
	if err := c.do(ctx, OpGetActivity, http.MethodGet, "/programacao/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
