// Package api is the REST client the companion uses to talk to the event backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/semana-app/companion/internal/session"
	"github.com/semana-app/companion/pkg/response"
)

// Client calls the backend on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	logger  *zap.Logger
}

// New creates a client. httpClient may be nil for a default with a 15s timeout; sess may be nil before login.
func New(baseURL string, httpClient *http.Client, sess *session.Session, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, session: sess, logger: logger}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.session }

// SetSession replaces the session used for the bearer token.
func (c *Client) SetSession(s *session.Session) { c.session = s }

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Valid() {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	var env response.Envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Message: "malformed response", Err: err}
		}
	}
	if resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Kind: kindForStatus(resp.StatusCode), Op: op, Status: resp.StatusCode, Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Message: "unexpected response data", Err: err}
		}
	}
	return nil
}
