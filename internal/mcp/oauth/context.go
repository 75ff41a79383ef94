package oauth

import (
	"context"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers"
)

// UserInfo is the authenticated user identity that the mcp-oauth token
// validation middleware attaches to request contexts.
type UserInfo = providers.UserInfo

// ContextWithUserInfo returns a context carrying the given user info.
// Exported for callers that establish identity outside the HTTP middleware
// chain, such as tests.
func ContextWithUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return mcpoauth.ContextWithUserInfo(ctx, userInfo)
}

// GetUserFromContext retrieves the authenticated user info placed in the
// context by the mcp-oauth ValidateToken middleware.
func GetUserFromContext(ctx context.Context) (*UserInfo, bool) {
	return mcpoauth.UserInfoFromContext(ctx)
}

type contextKey string

// googleAccessTokenKey carries a Google access token forwarded by a trusted
// upstream client for the duration of a single request.
const googleAccessTokenKey contextKey = "google_access_token"

// ContextWithGoogleAccessToken returns a context carrying a forwarded Google
// access token.
func ContextWithGoogleAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, googleAccessTokenKey, token)
}

// GetGoogleAccessTokenFromContext retrieves a forwarded Google access token
// from the context. Returns false if no token was injected for this request.
func GetGoogleAccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(googleAccessTokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
