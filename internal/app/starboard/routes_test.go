package starboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisminnick/starboard2/internal/lib/jwt"
	"github.com/chrisminnick/starboard2/internal/metrics"
	"github.com/chrisminnick/starboard2/internal/models"
	authservice "github.com/chrisminnick/starboard2/internal/services/auth"
	"github.com/chrisminnick/starboard2/internal/storage"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, storage.ErrUserExists
		}
	}
	user.ID = uuid.NewString()
	m.users[user.ID] = user
	return &user, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memoryUsers) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (m *memoryUsers) UpdatePreferences(_ context.Context, userID string, prefs models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.Preferences = prefs
	m.users[userID] = u
	return nil
}

func newTestRouter(t *testing.T, rateLimit int) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	RegisterRoutes(r, log, RouteOptions{
		ClientURL:    "http://localhost:3000",
		ExposeErrors: true,
		RateLimit:    rateLimit,
		RateWindow:   time.Minute,
	}, Services{
		Auth: authservice.NewAuthService(newMemoryUsers(), jwt.NewJWTMaker("test-secret", time.Hour)),
	}, metrics.New(), nil)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_RegisterThenMe(t *testing.T) {
	router := newTestRouter(t, 100)

	rr := do(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"Ann@Example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered struct {
		Token string            `json:"token"`
		User  models.PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &registered))
	assert.Equal(t, "ann@example.com", registered.User.Email)
	assert.Equal(t, models.SubscriptionTrial, registered.User.Subscription.Status)

	rr = do(t, router, http.MethodGet, "/api/auth/me", "", registered.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), registered.User.ID)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = do(t, router, http.MethodPatch, "/api/auth/preferences", `{"editorTheme":"dark"}`, registered.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"editorTheme":"dark"`)

	rr = do(t, router, http.MethodPost, "/api/auth/login", `{"email":"ann@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","email":"ann@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "User already exists with this email")
}

func TestRoutes_ProtectedWithoutToken(t *testing.T) {
	router := newTestRouter(t, 100)

	for _, target := range []string{"/api/projects", "/api/auth/me", "/api/advisors/p-1/interactions"} {
		rr := do(t, router, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "access denied, no token provided")
	}

	rr := do(t, router, http.MethodGet, "/api/projects", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid token")
}

func TestRoutes_HealthMetricsAndNotFound(t *testing.T) {
	router := newTestRouter(t, 100)

	rr := do(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"OK"`)

	rr = do(t, router, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Route not found")

	rr = do(t, router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `starboard_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRoutes_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestRoutes_RateLimit(t *testing.T) {
	router := newTestRouter(t, 2)

	for i := 0; i < 2; i++ {
		rr := do(t, router, http.MethodPost, "/api/auth/login", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}
	rr := do(t, router, http.MethodPost, "/api/auth/login", `{}`, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = do(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
