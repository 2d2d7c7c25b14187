package models

import "github.com/google/uuid"

// Sort keys for the engagement dashboard.
const (
	SortByAttendance = "presencas"
	SortByFeedback   = "feedbacks"
	SortByQuestions  = "perguntas"
	SortByTotal      = "total"
)

// DrawFilter selects participants eligible for the prize drawing.
type DrawFilter struct {
	MinAttendance int        `json:"minPresencas"`
	MinFeedback   int        `json:"minFeedbacks"`
	MinQuestions  int        `json:"minPerguntas"`
	ActivityID    *uuid.UUID `json:"palestraId,omitempty"`
	ActivityType  string     `json:"tipo,omitempty"`
	SortBy        string     `json:"ordenarPor,omitempty"`
	Order         string     `json:"ordem,omitempty"` // "asc" or "desc"
}

// EngagementRow is one participant line of the engagement dashboard.
type EngagementRow struct {
	ParticipantID uuid.UUID `json:"participanteId"`
	Name          string    `json:"nome"`
	Email         string    `json:"email"`
	Attendance    int       `json:"presencas"`
	Feedback      int       `json:"feedbacks"`
	Questions     int       `json:"perguntas"`
	Likes         int       `json:"curtidas"`
	Total         int       `json:"total"`
}

// DrawResult is the outcome of a prize drawing.
type DrawResult struct {
	Winner     EngagementRow `json:"vencedor"`
	Candidates int           `json:"candidatos"`
}

// EngagementTotal is the score used for "total" ranking.
func EngagementTotal(attendance, feedback, questions, likes int) int {
	return attendance + feedback + questions + likes
}
