// Package session holds the signed-in participant for the companion client.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/semana-app/companion/internal/models"
)

// ErrNoSession is returned when no participant is signed in.
var ErrNoSession = errors.New("not signed in")

// Session is the authenticated participant and its bearer token.
type Session struct {
	Token       string             `json:"token"`
	Participant models.Participant `json:"participante"`
}

// Valid reports whether s carries a token and a participant id.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.Participant.ID != uuid.Nil
}

// ParticipantID returns the signed-in participant id, or uuid.Nil.
func (s *Session) ParticipantID() uuid.UUID {
	if s == nil {
		return uuid.Nil
	}
	return s.Participant.ID
}

// FileStore persists a session as a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

// Load reads the session. A missing file yields ErrNoSession.
func (f FileStore) Load() (*Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !s.Valid() {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session atomically with mode 0600.
func (f FileStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// Clear removes the session file. Clearing an absent session is not an error.
func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
