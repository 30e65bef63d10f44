package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/server/handlers"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testJWTConfig() handlers.JWTConfig {
	return handlers.JWTConfig{
		Secret:         []byte("test-secret"),
		AccessTokenTTL: time.Hour,
	}
}

func authedHandler(t *testing.T, gotUserID, gotUsername *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlers.GetUserID(r.Context())
		require.True(t, ok)
		name, ok := handlers.GetUsername(r.Context())
		require.True(t, ok)
		*gotUserID = id
		*gotUsername = name
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareWithBearerHeader(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := handlers.GenerateAccessToken(cfg, "user-1", "alice")
	require.NoError(t, err)

	var gotUserID, gotUsername string
	mw := AuthMiddleware(testLogger(), cfg)(authedHandler(t, &gotUserID, &gotUsername))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
	assert.Equal(t, "alice", gotUsername)
}

func TestAuthMiddlewareWithQueryToken(t *testing.T) {
	cfg := testJWTConfig()
	token, _, err := handlers.GenerateAccessToken(cfg, "user-1", "alice")
	require.NoError(t, err)

	var gotUserID, gotUsername string
	mw := AuthMiddleware(testLogger(), cfg)(authedHandler(t, &gotUserID, &gotUsername))

	// websocket dials from browsers cannot set headers
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws?token="+token, nil)
	rec := httptest.NewRecorder()

	mw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	cfg := testJWTConfig()

	expired := handlers.JWTConfig{Secret: cfg.Secret, AccessTokenTTL: -time.Hour}
	expiredToken, _, err := handlers.GenerateAccessToken(expired, "user-1", "alice")
	require.NoError(t, err)

	otherSecret := handlers.JWTConfig{Secret: []byte("other"), AccessTokenTTL: time.Hour}
	forgedToken, _, err := handlers.GenerateAccessToken(otherSecret, "user-1", "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing token", header: ""},
		{name: "malformed header", header: "Token abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expiredToken},
		{name: "wrong signature", header: "Bearer " + forgedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := AuthMiddleware(testLogger(), cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
