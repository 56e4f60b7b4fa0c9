package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) *chi.Mux {
	t.Helper()

	users := services.NewUserService(newFakeUserRepo())
	cfg := config.JWTConfig{Secret: "test-secret", TokenTTL: time.Hour}
	auth := NewAuthHandler(users, nil, cfg, slog.Default())
	handler := NewUserHandler(users, slog.Default())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		AuthRouter(r, auth)
		UserRouter(r, handler, auth.RequireAuth)
	})
	return router
}

func TestUserProfileIsPublic(t *testing.T) {
	router := newUserFixture(t)

	w := postJSON(t, router, "/api/register", registerPayload("jan@example.com", "jan"))
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"jan"`)
}

func TestUserDirectoryIsPublic(t *testing.T) {
	router := newUserFixture(t)

	w := postJSON(t, router, "/api/register", registerPayload("jan@example.com", "jan"))
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body userListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
}

func TestUserWritesRequireAuth(t *testing.T) {
	router := newUserFixture(t)

	w := postJSON(t, router, "/api/register", registerPayload("jan@example.com", "jan"))
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodPut, "/api/users/1", strings.NewReader(`{"bio":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/users/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserUpdateForbiddenForOthers(t *testing.T) {
	router := newUserFixture(t)

	w := postJSON(t, router, "/api/register", registerPayload("jan@example.com", "jan"))
	require.Equal(t, http.StatusCreated, w.Code)
	w = postJSON(t, router, "/api/register", registerPayload("ola@example.com", "ola"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/api/login", map[string]string{
		"email":    "ola@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var token tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))

	req := httptest.NewRequest(http.MethodPut, "/api/users/1", strings.NewReader(`{"bio":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
