package oauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-oauth/storage"

	"github.com/teemow/meetfinder/internal/instrumentation"
)

const (
	// SSOAccessTokenHeader is the HTTP header name for forwarded Google access
	// tokens. When SSO token forwarding is enabled, an upstream MCP gateway
	// forwards the user's Google access token in this header alongside the ID
	// token in the Authorization header.
	//
	// The ID token proves identity (validated via TrustedAudiences/JWKS),
	// while the access token provides Google Calendar access with the
	// required scopes.
	SSOAccessTokenHeader = "X-Google-Access-Token"

	// SSORefreshTokenHeader is the optional HTTP header name for forwarded
	// Google refresh tokens. If provided, enables automatic token refresh for
	// long-running sessions.
	SSORefreshTokenHeader = "X-Google-Refresh-Token"

	// SSOTokenExpiryHeader is the optional HTTP header name for the access
	// token expiry time in RFC3339 format (e.g. "2024-01-20T15:04:05Z").
	// When absent, a default expiry of 1 hour is assumed.
	SSOTokenExpiryHeader = "X-Google-Token-Expiry"

	// defaultAccessTokenExpiry applies when no expiry header is provided.
	// Google access tokens typically expire in 1 hour.
	defaultAccessTokenExpiry = 1 * time.Hour

	// tokenStoreTimeout bounds the token store write per request.
	tokenStoreTimeout = 5 * time.Second
)

// SSOMetricsRecorder records SSO token injection metrics. The middleware
// records through this interface rather than depending on the full Metrics type.
type SSOMetricsRecorder interface {
	RecordSSOTokenInjection(ctx context.Context, result string)
}

// SSOMiddlewareConfig holds configuration for the SSO access token middleware.
type SSOMiddlewareConfig struct {
	// Store receives forwarded access tokens, keyed by user email.
	Store storage.TokenStore

	// Logger for audit and debug logging. Defaults to slog.Default when nil.
	Logger *slog.Logger

	// Metrics for recording SSO token injection results (optional).
	Metrics SSOMetricsRecorder
}

// SSOAccessTokenMiddleware creates middleware that extracts and stores Google
// access tokens forwarded by a trusted upstream gateway. It must wrap handlers
// that are already protected by the OAuth ValidateToken middleware, because it
// reads the authenticated user from the request context.
//
// Flow when SSO token forwarding is enabled:
//  1. The upstream gateway authenticates the user with Google OAuth.
//  2. It forwards the ID token in the Authorization header, which the
//     ValidateToken middleware accepts via TrustedAudiences.
//  3. It forwards the access token in the X-Google-Access-Token header.
//  4. This middleware stores the access token for Calendar API calls and
//     injects it into the request context.
//
// Requests without an authenticated user or without the access token header
// pass through unchanged.
func SSOAccessTokenMiddleware(store storage.TokenStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return SSOAccessTokenMiddlewareWithConfig(&SSOMiddlewareConfig{
		Store:  store,
		Logger: logger,
	})
}

// SSOAccessTokenMiddlewareWithConfig creates the middleware with full
// configuration including metrics. Preferred when metrics are available.
func SSOAccessTokenMiddlewareWithConfig(config *SSOMiddlewareConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	recordMetric := func(ctx context.Context, result string) {
		if config.Metrics != nil {
			config.Metrics.RecordSSOTokenInjection(ctx, result)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The OAuth middleware already returned 401 if auth was required,
			// so an absent user here means pass through.
			userInfo, ok := GetUserFromContext(ctx)
			if !ok || userInfo == nil || userInfo.Email == "" {
				recordMetric(ctx, instrumentation.SSOInjectionResultNoUser)
				next.ServeHTTP(w, r)
				return
			}

			accessToken := r.Header.Get(SSOAccessTokenHeader)
			if accessToken == "" {
				// No forwarded token, the user authenticated directly with
				// this server and tokens already live in the store.
				recordMetric(ctx, instrumentation.SSOInjectionResultNoToken)
				next.ServeHTTP(w, r)
				return
			}

			expiry := parseTokenExpiry(r.Header.Get(SSOTokenExpiryHeader))
			token := &oauth2.Token{
				AccessToken:  accessToken,
				RefreshToken: r.Header.Get(SSORefreshTokenHeader),
				TokenType:    "Bearer",
				Expiry:       expiry,
			}

			storeCtx, cancel := context.WithTimeout(ctx, tokenStoreTimeout)
			storeErr := config.Store.SaveToken(storeCtx, userInfo.Email, token)
			cancel()

			if storeErr != nil {
				logger.Error("Failed to store forwarded SSO access token",
					"email", hashEmailForLog(userInfo.Email),
					"error", storeErr,
				)
				recordMetric(ctx, instrumentation.SSOInjectionResultStoreFailed)
				// The context injection below still lets this request proceed.
			} else {
				logger.Info("Stored forwarded SSO access token",
					"email", hashEmailForLog(userInfo.Email),
					"has_refresh_token", token.RefreshToken != "",
					"expires_in", time.Until(expiry).Round(time.Second).String(),
					"is_sso", userInfo.IsSSO(),
				)
			}

			// Make the token available to tools via
			// GetGoogleAccessTokenFromContext without a store lookup.
			ctx = ContextWithGoogleAccessToken(ctx, accessToken)
			r = r.WithContext(ctx)

			// IsSSO distinguishes the SSO flow from a direct login that
			// happens to carry the header (mcp-oauth v0.2.43+).
			if userInfo.IsSSO() {
				logger.Debug("SSO token injection: using SSO-forwarded token",
					"email", hashEmailForLog(userInfo.Email))
				recordMetric(ctx, instrumentation.SSOInjectionResultSuccess)
			} else {
				logger.Debug("SSO token injection: token stored for non-SSO user",
					"email", hashEmailForLog(userInfo.Email))
				if storeErr == nil {
					recordMetric(ctx, instrumentation.SSOInjectionResultStored)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parseTokenExpiry parses the expiry header value. Empty or invalid values
// fall back to one hour from now.
func parseTokenExpiry(expiryStr string) time.Time {
	if expiryStr == "" {
		return time.Now().Add(defaultAccessTokenExpiry)
	}

	expiry, err := time.Parse(time.RFC3339, expiryStr)
	if err != nil {
		return time.Now().Add(defaultAccessTokenExpiry)
	}

	return expiry
}

// hashEmailForLog returns a partially masked email for logging, keeping the
// first 2 characters of the local part and the full domain
// (e.g. "te***@example.com"). Prevents PII leakage while allowing correlation.
func hashEmailForLog(email string) string {
	if email == "" {
		return ""
	}

	// Short emails can't be meaningfully masked
	if len(email) <= 8 {
		return "***"
	}

	localPart, domain, found := strings.Cut(email, "@")
	if !found || localPart == "" || domain == "" {
		return "***"
	}

	if len(localPart) <= 2 {
		return localPart + "***@" + domain
	}
	return localPart[:2] + "***@" + domain
}

// WrapWithSSOAccessToken wraps an HTTP handler with the SSO access token
// middleware.
func WrapWithSSOAccessToken(handler http.Handler, store storage.TokenStore, logger *slog.Logger) http.Handler {
	return SSOAccessTokenMiddleware(store, logger)(handler)
}

// WrapWithSSOAccessTokenAndMetrics wraps an HTTP handler with the SSO access
// token middleware including metrics. Preferred when metrics are available.
func WrapWithSSOAccessTokenAndMetrics(handler http.Handler, store storage.TokenStore, logger *slog.Logger, metrics SSOMetricsRecorder) http.Handler {
	return SSOAccessTokenMiddlewareWithConfig(&SSOMiddlewareConfig{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
	})(handler)
}
