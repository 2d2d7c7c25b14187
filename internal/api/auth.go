package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/internal/session"
)

type authResponse struct {
	Token       string             `json:"token"`
	Participant models.Participant `json:"participante"`
}

// Login authenticates and installs the resulting session on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, validationError(OpLogin, "email and password required")
	}
	var out authResponse
	body := map[string]string{"email": strings.TrimSpace(email), "senha": password}
	if err := c.do(ctx, OpLogin, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	s := &session.Session{Token: out.Token, Participant: out.Participant}
	c.session = s
	return s, nil
}

// Register creates an account and installs the resulting session on the client.
func (c *Client) Register(ctx context.Context, email, password, name string) (*session.Session, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" {
		return nil, validationError(OpRegister, "email and name required")
	}
	if len(password) < 6 {
		return nil, validationError(OpRegister, "password must have at least 6 characters")
	}
	var out authResponse
	body := map[string]string{"email": strings.TrimSpace(email), "senha": password, "nome": strings.TrimSpace(name)}
	if err := c.do(ctx, OpRegister, http.MethodPost, "/auth/register", nil, body, &out); err != nil {
		return nil, err
	}
	s := &session.Session{Token: out.Token, Participant: out.Participant}
	c.session = s
	return s, nil
}
