package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is a participant's rating of an activity. One per participant per activity.
type Feedback struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"participanteId"`
	ActivityID    uuid.UUID `json:"palestraId"`
	Rating        int       `json:"nota"`
	Comment       *string   `json:"comentario,omitempty"`
	CreatedAt     time.Time `json:"criadoEm"`
}
