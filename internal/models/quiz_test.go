package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestQuizScore(t *testing.T) {
	right := QuizOption{ID: uuid.New(), Correct: true}
	wrong := QuizOption{ID: uuid.New()}
	q1 := QuizQuestion{ID: uuid.New(), Options: []QuizOption{wrong, right}}
	q2 := QuizQuestion{ID: uuid.New(), Options: []QuizOption{right, wrong}}
	quiz := Quiz{ID: uuid.New(), Questions: []QuizQuestion{q1, q2}}

	tests := []struct {
		name    string
		answers map[uuid.UUID]uuid.UUID
		want    int
	}{
		{"all right", map[uuid.UUID]uuid.UUID{q1.ID: right.ID, q2.ID: right.ID}, 2},
		{"one wrong", map[uuid.UUID]uuid.UUID{q1.ID: wrong.ID, q2.ID: right.ID}, 1},
		{"unanswered", map[uuid.UUID]uuid.UUID{q2.ID: right.ID}, 1},
		{"option from nowhere", map[uuid.UUID]uuid.UUID{q1.ID: uuid.New()}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := quiz.Score(QuizSubmission{Answers: tt.answers})
			assert.Equal(t, tt.want, res.Correct)
			assert.Equal(t, 2, res.Total)
			assert.Equal(t, quiz.ID, res.QuizID)
		})
	}
}

func TestQuestionHasVoter(t *testing.T) {
	u := uuid.New()
	q := Question{Voters: []uuid.UUID{uuid.New(), u}}
	assert.True(t, q.HasVoter(u))
	assert.False(t, q.HasVoter(uuid.New()))
	assert.True(t, QuestionApproved.Valid())
	assert.False(t, QuestionStatus("archived").Valid())
}
