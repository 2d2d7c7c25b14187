package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionStatus is the moderation state of a question.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionApproved QuestionStatus = "approved"
	QuestionRejected QuestionStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionPending, QuestionApproved, QuestionRejected:
		return true
	}
	return false
}

// Question is an audience question for a talk.
type Question struct {
	ID          uuid.UUID      `json:"id"`
	ActivityID  uuid.UUID      `json:"palestraId"`
	AuthorID    uuid.UUID      `json:"autorId"`
	AuthorName  string         `json:"autorNome"`
	Title       string         `json:"titulo"`
	Description string         `json:"descricao"`
	Votes       int            `json:"votos"`
	Voters      []uuid.UUID    `json:"votantes"`
	Likes       int            `json:"curtidas"`
	Answered    bool           `json:"respondida"`
	Answer      *string        `json:"resposta,omitempty"`
	Status      QuestionStatus `json:"status"`
	CreatedAt   time.Time      `json:"criadoEm"`
}

// HasVoter reports whether id is in the voter set.
func (q Question) HasVoter(id uuid.UUID) bool {
	for _, v := range q.Voters {
		if v == id {
			return true
		}
	}
	return false
}

// LikeAllowance is the pre-flight answer for the per-talk like cap.
type LikeAllowance struct {
	Allowed bool `json:"podeCurtir"`
	Used    int  `json:"curtidasUsadas"`
	Max     int  `json:"maximo"`
}
