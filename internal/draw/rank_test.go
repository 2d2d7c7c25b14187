package draw

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

	"github.com/semana-app/companion/internal/models"
	"github.com/semana-app/companion/pkg/response"
)

func rows() []models.EngagementRow {
	return []models.EngagementRow{
		{ParticipantID: uuid.New(), Name: "Ana", Attendance: 3, Feedback: 1, Questions: 0, Total: 4},
		{ParticipantID: uuid.New(), Name: "Bruno", Attendance: 1, Feedback: 1, Questions: 2, Total: 4},
		{ParticipantID: uuid.New(), Name: "Carla", Attendance: 5, Feedback: 4, Questions: 1, Total: 10},
		{ParticipantID: uuid.New(), Name: "Davi", Attendance: 0, Feedback: 0, Questions: 0, Total: 0},
	}
}

func names(rs []models.EngagementRow) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter models.DrawFilter
		want   []string
	}{
		{"default total desc, stable ties", models.DrawFilter{}, []string{"Carla", "Ana", "Bruno", "Davi"}},
		{"min attendance", models.DrawFilter{MinAttendance: 2}, []string{"Carla", "Ana"}},
		{"by questions", models.DrawFilter{SortBy: models.SortByQuestions}, []string{"Bruno", "Carla", "Ana", "Davi"}},
		{"by attendance asc", models.DrawFilter{SortBy: models.SortByAttendance, Order: "asc"}, []string{"Davi", "Bruno", "Ana", "Carla"}},
		{"unknown key falls back to total", models.DrawFilter{SortBy: "nope", MinFeedback: 1}, []string{"Carla", "Ana", "Bruno"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(rows(), tt.filter)))
		})
	}
}

func TestPick(t *testing.T) {
	_, err := Pick(nil, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	rs := rows()
	res, err := Pick(rs, nil)
	require.NoError(t, err)
	assert.Equal(t, len(rs), res.Candidates)
	assert.Contains(t, names(rs), res.Winner.Name)

	// A zero byte stream makes rand.Int return 0.
	res, err = Pick(rs, bytes.NewReader(make([]byte, 64)))
	require.NoError(t, err)
	assert.Equal(t, "Ana", res.Winner.Name)
}

type fakeStore struct{ rows []models.EngagementRow }

func (f fakeStore) Engagement(context.Context, models.DrawFilter) ([]models.EngagementRow, error) {
	return f.rows, nil
}

func TestDrawHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(fakeStore{rows: rows()}, nil, nil)
	r.POST("/sorteio/usuarios/all", h.List)
	r.POST("/sorteio/sortear", h.Draw)

	post := func(path string, f models.DrawFilter) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(f)
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/sorteio/usuarios/all", models.DrawFilter{MinAttendance: 1})
	require.Equal(t, http.StatusOK, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var list []models.EngagementRow
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 3)

	w = post("/sorteio/sortear", models.DrawFilter{MinAttendance: 5})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res models.DrawResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "Carla", res.Winner.Name)
	assert.Equal(t, 1, res.Candidates)

	w = post("/sorteio/sortear", models.DrawFilter{MinAttendance: 99})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = post("/sorteio/sortear", models.DrawFilter{Order: "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
