package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/authkit/internal/auth"
	"github.com/mrlokans/authkit/internal/config"
	"github.com/mrlokans/authkit/internal/database"
	"github.com/mrlokans/authkit/internal/database/users"
	"github.com/mrlokans/authkit/internal/entities"
)

// captureDispatcher records verification tokens instead of emailing them.
type captureDispatcher struct {
	tokens []string
}

func (d *captureDispatcher) DispatchVerification(user *entities.User, token string) error {
	d.tokens = append(d.tokens, token)
	return nil
}

type testEnv struct {
	router     *gin.Engine
	dispatcher *captureDispatcher
	service    *auth.Service
}

func setupRouter(t *testing.T, limiter *auth.RateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	cfg := config.Auth{
		JWTSecret:         "test-secret",
		BcryptCost:        bcrypt.MinCost,
		MinPasswordLength: 6,
	}

	store := users.NewRepository(db.DB)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	dispatcher := &captureDispatcher{}
	service := auth.NewService(store, hasher, cfg, dispatcher)
	guard := auth.NewMiddleware(service, nil)

	router := NewRouter(RouterConfig{
		Database:    db,
		AuthService: service,
		Guard:       guard,
		RateLimiter: limiter,
		AuthConfig:  cfg,
		Version:     "test",
	})

	return &testEnv{router: router, dispatcher: dispatcher, service: service}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed), "response is not JSON: %s", w.Body.String())
	}
	return w, parsed
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"name":     "Ada",
		"email":    email,
		"password": "secret123",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	env := setupRouter(t, nil)

	w, resp := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["token"])

	user, ok := resp["user"].(map[string]any)
	require.True(t, ok, "user field missing: %v", resp)
	assert.Equal(t, "ada@example.com", user["email"])
	// The hash must never appear in responses
	_, leaked := user["password_hash"]
	assert.False(t, leaked)

	// One verification token was handed to the dispatcher
	assert.Len(t, env.dispatcher.tokens, 1)
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	env := setupRouter(t, nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "invalid email", body: map[string]string{"name": "Ada", "email": "nope", "password": "secret123"}},
		{name: "short password", body: map[string]string{"name": "Ada", "email": "a@example.com", "password": "x"}},
		{name: "missing name", body: map[string]string{"email": "a@example.com", "password": "secret123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, env.router, http.MethodPost, "/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["message"])
		})
	}
}

func TestRegisterEndpoint_MalformedJSON(t *testing.T) {
	env := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterEndpoint_Duplicate(t *testing.T) {
	env := setupRouter(t, nil)

	w, _ := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestLoginEndpoint(t *testing.T) {
	env := setupRouter(t, nil)

	w, _ := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("correct credentials", func(t *testing.T) {
		w, resp := doJSON(t, env.router, http.MethodPost, "/auth/login",
			map[string]string{"email": "ada@example.com", "password": "secret123"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, resp["success"])
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w, resp := doJSON(t, env.router, http.MethodPost, "/auth/login",
			map[string]string{"email": "ada@example.com", "password": "wrong"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, false, resp["success"])
	})

	t.Run("unknown email gets the same response", func(t *testing.T) {
		w, resp := doJSON(t, env.router, http.MethodPost, "/auth/login",
			map[string]string{"email": "nobody@example.com", "password": "secret123"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, false, resp["success"])
		assert.Equal(t, "invalid credentials", resp["message"])
	})
}

func TestLoginEndpoint_RateLimited(t *testing.T) {
	limiter := auth.NewRateLimiter(auth.RateLimitConfig{MaxAttempts: 2})
	defer limiter.Stop()
	env := setupRouter(t, limiter)

	w, _ := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	bad := map[string]string{"email": "ada@example.com", "password": "wrong"}
	for i := 0; i < 2; i++ {
		w, _ := doJSON(t, env.router, http.MethodPost, "/auth/login", bad, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Locked out now, even with the correct password
	w, resp := doJSON(t, env.router, http.MethodPost, "/auth/login",
		map[string]string{"email": "ada@example.com", "password": "secret123"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestMeEndpoint(t *testing.T) {
	env := setupRouter(t, nil)

	w, resp := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	token := resp["token"].(string)

	t.Run("with valid token", func(t *testing.T) {
		w, resp := doJSON(t, env.router, http.MethodGet, "/auth/me", nil,
			map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, resp["success"])
		data, ok := resp["data"].(map[string]any)
		require.True(t, ok, "data field missing: %v", resp)
		assert.Equal(t, "ada@example.com", data["email"])
	})

	t.Run("without token", func(t *testing.T) {
		w, resp := doJSON(t, env.router, http.MethodGet, "/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, false, resp["success"])
	})

	t.Run("with garbage token", func(t *testing.T) {
		w, _ := doJSON(t, env.router, http.MethodGet, "/auth/me", nil,
			map[string]string{"Authorization": "Bearer garbage"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestVerifyEmailEndpoint(t *testing.T) {
	env := setupRouter(t, nil)

	w, _ := doJSON(t, env.router, http.MethodPost, "/auth/register", registerBody("ada@example.com"), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, env.dispatcher.tokens, 1)
	token := env.dispatcher.tokens[0]

	w, resp := doJSON(t, env.router, http.MethodGet, "/auth/verify/"+token, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	// Single use
	w, resp = doJSON(t, env.router, http.MethodGet, "/auth/verify/"+token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["success"])
}

func TestHealthEndpoint(t *testing.T) {
	env := setupRouter(t, nil)

	w, resp := doJSON(t, env.router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])
}
