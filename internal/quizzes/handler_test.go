package quizzes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semana-app/companion/internal/middleware"
	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/response"
)

type fakeStore struct {
	quiz    *models.Quiz
	results map[uuid.UUID]models.QuizResult
}

func (f *fakeStore) Create(_ context.Context, q *models.Quiz, _ map[int]map[int]bool) error {
	q.ID = uuid.New()
	f.quiz = q
	return nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	if f.quiz == nil || f.quiz.ID != id {
		return nil, ErrNotFound
	}
	return f.quiz, nil
}

func (f *fakeStore) ListReleased(context.Context) ([]models.Quiz, error) {
	if f.quiz != nil && f.quiz.Released {
		return []models.Quiz{*f.quiz}, nil
	}
	return []models.Quiz{}, nil
}

func (f *fakeStore) Release(_ context.Context, id uuid.UUID) error {
	if f.quiz == nil || f.quiz.ID != id {
		return ErrNotFound
	}
	f.quiz.Released = true
	return nil
}

func (f *fakeStore) SaveResult(_ context.Context, pid uuid.UUID, res models.QuizResult) error {
	if _, ok := f.results[pid]; ok {
		return ErrAlreadySubmitted
	}
	f.results[pid] = res
	return nil
}

func sampleQuiz(released bool) *models.Quiz {
	return &models.Quiz{
		ID:       uuid.New(),
		Title:    "Go básico",
		Released: released,
		Questions: []models.QuizQuestion{
			{ID: uuid.New(), Prompt: "Canal sem buffer bloqueia?", Options: []models.QuizOption{
				{ID: uuid.New(), Text: "Sim", Correct: true},
				{ID: uuid.New(), Text: "Não"},
			}},
			{ID: uuid.New(), Prompt: "len de map nil?", Options: []models.QuizOption{
				{ID: uuid.New(), Text: "panic"},
				{ID: uuid.New(), Text: "0", Correct: true},
			}},
		},
	}
}

func newRouter(h *Handler, user uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, user)
		c.Set(middleware.ContextUserRole, role)
	})
	r.GET("/quizzes/liberados", h.ListReleased)
	r.GET("/quizzes/:id", h.Get)
	r.POST("/quizzes/:id/liberar", h.Release)
	r.POST("/quizzes/responder/:id", h.Answer)
	return r
}

func answer(r *gin.Engine, id uuid.UUID, sub models.QuizSubmission) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(sub)
	req := httptest.NewRequest(http.MethodPost, "/quizzes/responder/"+id.String(), &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetNeverExposesCorrectOption(t *testing.T) {
	q := sampleQuiz(true)
	r := newRouter(NewHandler(&fakeStore{quiz: q}, nil), uuid.New(), "participant")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes/"+q.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correta")
	assert.NotContains(t, w.Body.String(), "Correct")
}

func TestUnreleasedQuizHiddenFromParticipants(t *testing.T) {
	q := sampleQuiz(false)
	store := &fakeStore{quiz: q, results: map[uuid.UUID]models.QuizResult{}}
	user := uuid.New()
	r := newRouter(NewHandler(store, nil), user, "participant")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes/"+q.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	sub := models.QuizSubmission{Answers: map[uuid.UUID]uuid.UUID{q.Questions[0].ID: q.Questions[0].Options[0].ID}}
	assert.Equal(t, http.StatusUnprocessableEntity, answer(r, q.ID, sub).Code)
}

func TestAnswerScoresOnce(t *testing.T) {
	q := sampleQuiz(true)
	store := &fakeStore{quiz: q, results: map[uuid.UUID]models.QuizResult{}}
	r := newRouter(NewHandler(store, nil), uuid.New(), "participant")

	sub := models.QuizSubmission{Answers: map[uuid.UUID]uuid.UUID{
		q.Questions[0].ID: q.Questions[0].Options[0].ID,
		q.Questions[1].ID: q.Questions[1].Options[0].ID,
	}}
	w := answer(r, q.ID, sub)
	require.Equal(t, http.StatusOK, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res models.QuizResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 2, res.Total)

	assert.Equal(t, http.StatusConflict, answer(r, q.ID, sub).Code)
}

func TestAnswerValidation(t *testing.T) {
	q := sampleQuiz(true)
	store := &fakeStore{quiz: q, results: map[uuid.UUID]models.QuizResult{}}
	r := newRouter(NewHandler(store, nil), uuid.New(), "participant")

	assert.Equal(t, http.StatusBadRequest, answer(r, q.ID, models.QuizSubmission{}).Code)
	unknown := models.QuizSubmission{Answers: map[uuid.UUID]uuid.UUID{uuid.New(): uuid.New()}}
	assert.Equal(t, http.StatusBadRequest, answer(r, q.ID, unknown).Code)
	assert.Empty(t, store.results)
}

func TestReleaseThenListed(t *testing.T) {
	q := sampleQuiz(false)
	store := &fakeStore{quiz: q}
	r := newRouter(NewHandler(store, nil), uuid.New(), "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes/"+q.ID.String()+"/liberar", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes/liberados", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var list []models.Quiz
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}
