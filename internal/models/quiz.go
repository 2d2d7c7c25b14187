package models

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is a multiple-choice quiz attached to an activity.
type Quiz struct {
	ID         uuid.UUID      `json:"id"`
	ActivityID uuid.UUID      `json:"palestraId"`
	Title      string         `json:"titulo"`
	Released   bool           `json:"liberado"`
	Questions  []QuizQuestion `json:"perguntas"`
	CreatedAt  time.Time      `json:"criadoEm"`
}

// QuizQuestion is one question of a quiz.
type QuizQuestion struct {
	ID      uuid.UUID    `json:"id"`
	Prompt  string       `json:"enunciado"`
	Options []QuizOption `json:"opcoes"`
}

// QuizOption is one choice. Correct is never serialised.
type QuizOption struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"texto"`
	Correct bool      `json:"-"`
}

// QuizSubmission maps quiz question id to chosen option id.
type QuizSubmission struct {
	Answers map[uuid.UUID]uuid.UUID `json:"respostas"`
}

// QuizResult is the score of a submission.
type QuizResult struct {
	QuizID  uuid.UUID `json:"quizId"`
	Correct int       `json:"acertos"`
	Total   int       `json:"total"`
}

// Score counts the submitted answers that hit a correct option.
func (q Quiz) Score(sub QuizSubmission) QuizResult {
	res := QuizResult{QuizID: q.ID, Total: len(q.Questions)}
	for _, qq := range q.Questions {
		chosen, ok := sub.Answers[qq.ID]
		if !ok {
			continue
		}
		for _, o := range qq.Options {
			if o.ID == chosen && o.Correct {
				res.Correct++
				break
			}
		}
	}
	return res
}
