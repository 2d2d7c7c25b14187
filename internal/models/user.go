package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents participant role in the event.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// Participant is an event user.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"nome"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"criadoEm"`
}

// IsAdmin reports whether the participant has the admin role.
func (p Participant) IsAdmin() bool { return p.Role == RoleAdmin }

// Profile holds the editable profile of a participant.
type Profile struct {
	ParticipantID uuid.UUID `json:"participanteId"`
	Name          string    `json:"nome"`
	Company       string    `json:"empresa"`
	JobTitle      string    `json:"cargo"`
	City          string    `json:"cidade"`
	Phone         string    `json:"telefone"`
	PhotoURL      string    `json:"fotoUrl"`
	UpdatedAt     time.Time `json:"atualizadoEm"`
}

// ProfileUpdate carries optional profile fields for PATCH.
type ProfileUpdate struct {
	Name     *string `json:"nome,omitempty"`
	Company  *string `json:"empresa,omitempty"`
	JobTitle *string `json:"cargo,omitempty"`
	City     *string `json:"cidade,omitempty"`
	Phone    *string `json:"telefone,omitempty"`
}
