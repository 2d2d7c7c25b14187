package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance records that a participant was present at an activity.
type Attendance struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"participanteId"`
	ActivityID    uuid.UUID `json:"palestraId"`
	RegisteredAt  time.Time `json:"registradoEm"`
}
