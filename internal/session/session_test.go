package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "semana", "session.json")}

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	s := &Session{Token: "tok", Participant: models.Participant{ID: uuid.New(), Name: "Ana", Role: models.RoleParticipant}}
	require.NoError(t, store.Save(s))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)
	assert.Equal(t, s.Participant.ID, got.ParticipantID())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNilSession(t *testing.T) {
	var s *Session
	assert.False(t, s.Valid())
	assert.Equal(t, uuid.Nil, s.ParticipantID())
}
