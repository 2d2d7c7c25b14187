package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	s := NewService("secret", 1)
	id := uuid.New()

	tok, err := s.Generate(id, "ana@example.com", "participant")
	require.NoError(t, err)

	claims, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.ParticipantID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "participant", claims.Role)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	tok, err := NewService("one", 1).Generate(uuid.New(), "a@b.c", "admin")
	require.NoError(t, err)

	_, err = NewService("two", 1).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	s := NewService("secret", 1)
	s.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	tok, err := s.Generate(uuid.New(), "a@b.c", "participant")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewService("secret", 1).Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
