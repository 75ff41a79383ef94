package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
	"github.com/giantswarm/mcp-oauth/storage/memory"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithUser(t *testing.T, email, name string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	userInfo := &providers.UserInfo{
		Email: email,
		Name:  name,
	}
	return req.WithContext(mcpoauth.ContextWithUserInfo(req.Context(), userInfo))
}

func TestSSOAccessTokenMiddleware_NoUser(t *testing.T) {
	// Without an authenticated user the request passes through and no token
	// is stored, even when the header is present.
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set(SSOAccessTokenHeader, "orphan-access-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSSOAccessTokenMiddleware_NoAccessToken(t *testing.T) {
	// An authenticated user without the forwarded header is the normal
	// direct-login flow, nothing gets stored.
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(okHandler(nil))

	req := requestWithUser(t, "direct@example.com", "Direct User")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := store.GetToken(req.Context(), "direct@example.com")
	assert.Error(t, err)
}

func TestSSOAccessTokenMiddleware_StoresAccessToken(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	var handlerCalled bool
	handler := SSOAccessTokenMiddleware(store, nil)(okHandler(&handlerCalled))

	req := requestWithUser(t, "forwarded@example.com", "Forwarded User")
	req.Header.Set(SSOAccessTokenHeader, "forwarded-access-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, handlerCalled)

	token, err := store.GetToken(req.Context(), "forwarded@example.com")
	require.NoError(t, err)
	assert.Equal(t, "forwarded-access-token", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	// Without an expiry header the default of 1 hour applies
	assert.WithinDuration(t, time.Now().Add(1*time.Hour), token.Expiry, 5*time.Second)
}

func TestSSOAccessTokenMiddleware_WithRefreshToken(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(okHandler(nil))

	req := requestWithUser(t, "refresh@example.com", "Refresh User")
	req.Header.Set(SSOAccessTokenHeader, "short-lived-token")
	req.Header.Set(SSORefreshTokenHeader, "long-lived-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := store.GetToken(req.Context(), "refresh@example.com")
	require.NoError(t, err)
	assert.Equal(t, "short-lived-token", token.AccessToken)
	assert.Equal(t, "long-lived-token", token.RefreshToken)
}

func TestSSOAccessTokenMiddleware_ExpiryHeader(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	handler := SSOAccessTokenMiddleware(store, nil)(okHandler(nil))

	t.Run("valid RFC3339 expiry is respected", func(t *testing.T) {
		expectedExpiry := time.Now().Add(2 * time.Hour).UTC()

		req := requestWithUser(t, "expiry-ok@example.com", "Expiry User")
		req.Header.Set(SSOAccessTokenHeader, "expiring-token")
		req.Header.Set(SSOTokenExpiryHeader, expectedExpiry.Format(time.RFC3339))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		token, err := store.GetToken(req.Context(), "expiry-ok@example.com")
		require.NoError(t, err)
		assert.WithinDuration(t, expectedExpiry, token.Expiry, 1*time.Second)
	})

	t.Run("invalid expiry falls back to default", func(t *testing.T) {
		req := requestWithUser(t, "expiry-bad@example.com", "Expiry User")
		req.Header.Set(SSOAccessTokenHeader, "expiring-token")
		req.Header.Set(SSOTokenExpiryHeader, "next tuesday")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		token, err := store.GetToken(req.Context(), "expiry-bad@example.com")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(1*time.Hour), token.Expiry, 5*time.Second)
	})
}

func TestSSOAccessTokenMiddleware_OverwritesExistingToken(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	existing := &oauth2.Token{
		AccessToken: "stale-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, store.SaveToken(context.Background(), "rotate@example.com", existing))

	handler := SSOAccessTokenMiddleware(store, nil)(okHandler(nil))

	req := requestWithUser(t, "rotate@example.com", "Rotate User")
	req.Header.Set(SSOAccessTokenHeader, "fresh-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := store.GetToken(req.Context(), "rotate@example.com")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token.AccessToken)
}

func TestSSOAccessTokenMiddleware_InjectsIntoContext(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	var capturedToken string
	var tokenFound bool

	handler := SSOAccessTokenMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedToken, tokenFound = GetGoogleAccessTokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := requestWithUser(t, "inject@example.com", "Inject User")
	req.Header.Set(SSOAccessTokenHeader, "context-injected-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, tokenFound, "token should be visible downstream")
	assert.Equal(t, "context-injected-token", capturedToken)
}

func TestParseTokenExpiry(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNear time.Time
	}{
		{
			name:     "empty string uses default",
			input:    "",
			wantNear: time.Now().Add(1 * time.Hour),
		},
		{
			name:     "invalid format uses default",
			input:    "not-a-date",
			wantNear: time.Now().Add(1 * time.Hour),
		},
		{
			name:     "valid RFC3339",
			input:    "2026-03-02T15:04:05Z",
			wantNear: time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC),
		},
		{
			name:     "valid RFC3339 with offset",
			input:    "2026-03-02T15:04:05+02:00",
			wantNear: time.Date(2026, 3, 2, 13, 4, 5, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTokenExpiry(tt.input)
			assert.WithinDuration(t, tt.wantNear, got, 5*time.Second)
		})
	}
}

func TestHashEmailForLog(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "empty email",
			email: "",
			want:  "",
		},
		{
			name:  "short email",
			email: "a@b.com",
			want:  "***",
		},
		{
			name:  "normal email",
			email: "scheduler@example.com",
			want:  "sc***@example.com",
		},
		{
			name:  "short local part",
			email: "ab@example.com",
			want:  "ab***@example.com",
		},
		{
			name:  "no at sign",
			email: "notanemailaddress",
			want:  "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hashEmailForLog(tt.email))
		})
	}
}

func TestWrapWithSSOAccessToken(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	var handlerCalled bool
	wrapped := WrapWithSSOAccessToken(okHandler(&handlerCalled), store, nil)
	require.NotNil(t, wrapped)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMiddlewareChainOrdering_Integration verifies the middleware chain order
// the HTTP transport relies on:
//
//	Request -> ValidateToken -> SSOAccessToken -> handler
//
// The SSO middleware can only see the user info if token validation ran first.
func TestMiddlewareChainOrdering_Integration(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	var (
		mcpHandlerCalled  bool
		userSeenInHandler string
	)

	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mcpHandlerCalled = true
		if userInfo, ok := GetUserFromContext(r.Context()); ok && userInfo != nil {
			userSeenInHandler = userInfo.Email
		}
		w.WriteHeader(http.StatusOK)
	})

	// Stand-in for the library's ValidateToken middleware: validates the
	// bearer token and sets the user info in context.
	simulatedValidateToken := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := &providers.UserInfo{
				Email: "chain@example.com",
				Name:  "Chain User",
			}
			ctx := mcpoauth.ContextWithUserInfo(r.Context(), userInfo)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrapping inside-out: SSO wraps the handler, validation wraps SSO.
	ssoHandler := WrapWithSSOAccessToken(mcpHandler, store, nil)
	validatedHandler := simulatedValidateToken(ssoHandler)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set(SSOAccessTokenHeader, "chain-access-token")
	req.Header.Set(SSORefreshTokenHeader, "chain-refresh-token")

	rec := httptest.NewRecorder()
	validatedHandler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mcpHandlerCalled, "MCP handler should have been called")
	assert.Equal(t, "chain@example.com", userSeenInHandler, "user info should be visible in handler")

	token, err := store.GetToken(context.Background(), "chain@example.com")
	require.NoError(t, err, "access token should have been stored")
	assert.Equal(t, "chain-access-token", token.AccessToken)
	assert.Equal(t, "chain-refresh-token", token.RefreshToken)
}

// TestMiddlewareChainOrdering_WrongOrder documents why the reversed order
// fails: with SSO outside validation, no user info is available when the SSO
// middleware runs and the forwarded token is silently dropped.
func TestMiddlewareChainOrdering_WrongOrder(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	var mcpHandlerCalled bool
	mcpHandler := okHandler(&mcpHandlerCalled)

	simulatedValidateToken := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := &providers.UserInfo{
				Email: "late@example.com",
				Name:  "Late User",
			}
			ctx := mcpoauth.ContextWithUserInfo(r.Context(), userInfo)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// WRONG order: SSO wraps the validated handler
	validatedHandler := simulatedValidateToken(mcpHandler)
	ssoHandler := WrapWithSSOAccessToken(validatedHandler, store, nil)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set(SSOAccessTokenHeader, "should-not-be-stored")

	rec := httptest.NewRecorder()
	ssoHandler.ServeHTTP(rec, req)

	// Request still passes through
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mcpHandlerCalled)

	// But the token was not stored
	_, err := store.GetToken(context.Background(), "late@example.com")
	assert.Error(t, err, "token should not be stored with the wrong middleware order")
}

// mockSSOMetricsRecorder tracks SSO token injection metrics for testing
type mockSSOMetricsRecorder struct {
	results []string
}

func (m *mockSSOMetricsRecorder) RecordSSOTokenInjection(ctx context.Context, result string) {
	m.results = append(m.results, result)
}

func TestSSOAccessTokenMiddleware_WithMetrics(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	metrics := &mockSSOMetricsRecorder{}

	handler := SSOAccessTokenMiddlewareWithConfig(&SSOMiddlewareConfig{
		Store:   store,
		Metrics: metrics,
	})(okHandler(nil))

	t.Run("records no_user when user not authenticated", func(t *testing.T) {
		metrics.results = nil
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		req.Header.Set(SSOAccessTokenHeader, "some-token")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, metrics.results, 1)
		assert.Equal(t, "no_user", metrics.results[0])
	})

	t.Run("records no_token when header not present", func(t *testing.T) {
		metrics.results = nil
		req := requestWithUser(t, "notoken@example.com", "No Token User")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, metrics.results, 1)
		assert.Equal(t, "no_token", metrics.results[0])
	})

	t.Run("records stored for non-SSO user", func(t *testing.T) {
		metrics.results = nil
		// TokenSource unset, so IsSSO reports false
		req := requestWithUser(t, "plain-user@example.com", "Plain User")
		req.Header.Set(SSOAccessTokenHeader, "plain-token")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, metrics.results, 1)
		assert.Equal(t, "stored", metrics.results[0])
	})

	t.Run("records sso_success for SSO user", func(t *testing.T) {
		metrics.results = nil
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		req.Header.Set(SSOAccessTokenHeader, "gateway-token")

		userInfo := &providers.UserInfo{
			Email:       "gateway-user@example.com",
			Name:        "Gateway User",
			TokenSource: "sso", // makes IsSSO report true
		}
		req = req.WithContext(mcpoauth.ContextWithUserInfo(req.Context(), userInfo))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, metrics.results, 1)
		assert.Equal(t, "sso_success", metrics.results[0])
	})
}

func TestWrapWithSSOAccessTokenAndMetrics(t *testing.T) {
	store := memory.New()
	defer store.Stop()

	metrics := &mockSSOMetricsRecorder{}

	var handlerCalled bool
	wrapped := WrapWithSSOAccessTokenAndMetrics(okHandler(&handlerCalled), store, nil, metrics)
	require.NotNil(t, wrapped)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
	// No user info in context, so the middleware records no_user
	require.Len(t, metrics.results, 1)
	assert.Equal(t, "no_user", metrics.results[0])
}
