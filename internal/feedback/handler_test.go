package feedback

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
	"github.com/semana-app/companion/pkg/queue"
)

type fakeStore struct {
	attended map[[2]uuid.UUID]bool
	rows     []models.Feedback
}

func (f *fakeStore) Create(_ context.Context, fb *models.Feedback) error {
	key := [2]uuid.UUID{fb.ParticipantID, fb.ActivityID}
	if !f.attended[key] {
		return ErrAttendanceRequired
	}
	for _, r := range f.rows {
		if r.ParticipantID == fb.ParticipantID && r.ActivityID == fb.ActivityID {
			return ErrAlreadySubmitted
		}
	}
	fb.ID = uuid.New()
	f.rows = append(f.rows, *fb)
	return nil
}

func (f *fakeStore) ListByActivity(_ context.Context, id uuid.UUID) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, r := range f.rows {
		if r.ActivityID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByParticipant(_ context.Context, id uuid.UUID) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, r := range f.rows {
		if r.ParticipantID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeQueue struct{ n int }

func (q *fakeQueue) EnqueueEngagement(context.Context, queue.JobType, queue.EngagementPayload) error {
	q.n++
	return nil
}

func newRouter(h *Handler, user uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, user)
		c.Set(middleware.ContextUserRole, "participant")
	})
	r.POST("/feedback", h.Create)
	r.GET("/feedback/palestra/:id", h.ListByActivity)
	r.GET("/feedback/usuario/:id", h.ListByParticipant)
	return r
}

func post(r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/feedback", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateFeedbackRules(t *testing.T) {
	user := uuid.New()
	talk := uuid.New()
	store := &fakeStore{attended: map[[2]uuid.UUID]bool{}}
	jobs := &fakeQueue{}
	r := newRouter(NewHandler(store, jobs, nil, nil), user)

	w := post(r, CreateRequest{ActivityID: talk, Rating: 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no attendance yet")

	store.attended[[2]uuid.UUID{user, talk}] = true
	w = post(r, CreateRequest{ActivityID: talk, Rating: 5})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, jobs.n)

	w = post(r, CreateRequest{ActivityID: talk, Rating: 4})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateFeedbackRatingRange(t *testing.T) {
	user := uuid.New()
	talk := uuid.New()
	store := &fakeStore{attended: map[[2]uuid.UUID]bool{{user, talk}: true}}
	r := newRouter(NewHandler(store, nil, nil, nil), user)

	for _, rating := range []int{0, 6, -1} {
		w := post(r, CreateRequest{ActivityID: talk, Rating: rating})
		assert.Equal(t, http.StatusBadRequest, w.Code, "rating %d", rating)
	}
	assert.Empty(t, store.rows)
}

func TestCreateFeedbackForSomeoneElse(t *testing.T) {
	other := uuid.New()
	r := newRouter(NewHandler(&fakeStore{}, nil, nil, nil), uuid.New())
	w := post(r, CreateRequest{ParticipantID: &other, ActivityID: uuid.New(), Rating: 3})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListByParticipantSelfOnly(t *testing.T) {
	user := uuid.New()
	r := newRouter(NewHandler(&fakeStore{}, nil, nil, nil), user)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feedback/usuario/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feedback/usuario/"+user.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
