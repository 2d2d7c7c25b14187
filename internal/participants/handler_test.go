package participants

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
	"github.com/semana-app/companion/internal/token"
	"github.com/semana-app/companion/pkg/response"
)

type fakeStore struct {
	byID     map[uuid.UUID]*models.Participant
	profiles map[uuid.UUID]*models.Profile
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[uuid.UUID]*models.Participant{}, profiles: map[uuid.UUID]*models.Profile{}}
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Participant, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*models.Participant, error) {
	for _, p := range f.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) List(context.Context) ([]models.Participant, error) {
	var out []models.Participant
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, email, hash, name string, role models.Role) (*models.Participant, error) {
	if p, _ := f.GetByEmail(context.Background(), email); p != nil {
		return nil, ErrEmailTaken
	}
	p := &models.Participant{ID: uuid.New(), Email: email, Password: hash, Name: name, Role: role}
	f.byID[p.ID] = p
	f.profiles[p.ID] = &models.Profile{ParticipantID: p.ID, Name: name}
	return p, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	pr, ok := f.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, id uuid.UUID, u models.ProfileUpdate) error {
	pr := f.profiles[id]
	if u.Name != nil {
		pr.Name = *u.Name
	}
	if u.City != nil {
		pr.City = *u.City
	}
	return nil
}

func (f *fakeStore) SetPhotoKey(_ context.Context, id uuid.UUID, key string) error {
	f.profiles[id].PhotoURL = key
	return nil
}

type fakePhotos struct{}

func (fakePhotos) PresignPhotoUpload(_ context.Context, key, _ string) (string, error) {
	return "https://upload.example/" + key, nil
}

func (fakePhotos) PresignPhotoDownload(_ context.Context, key string) (string, error) {
	return "https://download.example/" + key, nil
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := token.NewService("test-secret", 1)
	h := NewHandler(newFakeStore(), tokens, nil, nil)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/auth/register", RegisterRequest{Email: "ana@example.com", Password: "segredo1", Name: "Ana"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/register", RegisterRequest{Email: "ana@example.com", Password: "segredo1", Name: "Ana"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", LoginRequest{Email: "ana@example.com", Password: "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", LoginRequest{Email: "ana@example.com", Password: "segredo1"})
	require.Equal(t, http.StatusOK, w.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var tr TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tr))
	claims, err := tokens.Validate(tr.Token)
	require.NoError(t, err)
	assert.Equal(t, tr.Participant.ID, claims.ParticipantID)
	assert.Equal(t, models.RoleParticipant, tr.Participant.Role)
}

func TestProfileSelfOrAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	p, err := store.Create(context.Background(), "bia@example.com", "x", "Bia", models.RoleParticipant)
	require.NoError(t, err)
	h := NewHandler(store, token.NewService("s", 1), fakePhotos{}, nil)

	router := func(caller uuid.UUID, role string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserID, caller)
			c.Set(middleware.ContextUserRole, role)
		})
		r.GET("/participantes/:id/perfil", h.GetProfile)
		r.PATCH("/participantes/:id/perfil", h.UpdateProfile)
		r.POST("/participantes/:id/foto", h.PhotoUploadURL)
		return r
	}
	path := "/participantes/" + p.ID.String()

	assert.Equal(t, http.StatusForbidden, doJSON(router(uuid.New(), "participant"), http.MethodGet, path+"/perfil", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(router(uuid.New(), "admin"), http.MethodGet, path+"/perfil", nil).Code)

	city := "Recife"
	w := doJSON(router(p.ID, "participant"), http.MethodPatch, path+"/perfil", models.ProfileUpdate{City: &city})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Recife", store.profiles[p.ID].City)

	blank := "  "
	w = doJSON(router(p.ID, "participant"), http.MethodPatch, path+"/perfil", models.ProfileUpdate{Name: &blank})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router(p.ID, "participant"), http.MethodPost, path+"/foto", PhotoRequest{ContentType: "image/png"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "participants/"+p.ID.String()+".png", store.profiles[p.ID].PhotoURL)

	w = doJSON(router(p.ID, "participant"), http.MethodGet, path+"/perfil", nil)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var pr models.Profile
	require.NoError(t, json.Unmarshal(env.Data, &pr))
	assert.Equal(t, "https://download.example/participants/"+p.ID.String()+".png", pr.PhotoURL)

	w = doJSON(router(p.ID, "participant"), http.MethodPost, path+"/foto", PhotoRequest{ContentType: "application/pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
