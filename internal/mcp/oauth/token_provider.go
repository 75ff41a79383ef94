package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-oauth/storage"
)

// TokenMetricsRecorder records token lookup metrics. It allows the provider
// to report forwarded-token usage without depending on the full Metrics type.
type TokenMetricsRecorder interface {
	RecordOAuthCrossClientToken(ctx context.Context, result, audience string)
}

// TokenProvider implements the google.TokenProvider interface on top of the
// mcp-oauth token store. It bridges OAuth-authenticated sessions with the
// Google API clients, which look up tokens by account (email).
type TokenProvider struct {
	store   storage.TokenStore
	metrics TokenMetricsRecorder
}

// NewTokenProvider creates a token provider backed by an mcp-oauth token store.
func NewTokenProvider(store storage.TokenStore) *TokenProvider {
	return &TokenProvider{
		store: store,
	}
}

// NewTokenProviderWithMetrics creates a token provider that also records
// forwarded-token usage.
func NewTokenProviderWithMetrics(store storage.TokenStore, metrics TokenMetricsRecorder) *TokenProvider {
	return &TokenProvider{
		store:   store,
		metrics: metrics,
	}
}

// GetToken retrieves a Google OAuth token for the given user ID.
func (p *TokenProvider) GetToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	return p.store.GetToken(ctx, userID)
}

// GetTokenForAccount retrieves a Google OAuth token for the specified account
// (typically an email address). A token forwarded by a trusted upstream client
// and injected into the request context takes precedence over the store.
func (p *TokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if accessToken, ok := GetGoogleAccessTokenFromContext(ctx); ok {
		if p.metrics != nil {
			p.metrics.RecordOAuthCrossClientToken(ctx, "accepted", "")
		}
		return &oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		}, nil
	}

	token, err := p.store.GetToken(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token for account %s, authenticate with Google through your MCP client: %w", account, err)
	}
	return token, nil
}

// HasTokenForAccount checks if a token exists for the specified account.
func (p *TokenProvider) HasTokenForAccount(account string) bool {
	_, err := p.store.GetToken(context.Background(), account)
	return err == nil
}

// SaveToken saves a Google OAuth token for the given user ID. Used when
// tokens are refreshed or initially acquired.
func (p *TokenProvider) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	return p.store.SaveToken(ctx, userID, token)
}
