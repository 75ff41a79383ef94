package google

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth tokens for Google API access. It decouples
// API clients from where tokens come from: the file cache in stdio mode,
// or per-session token stores in HTTP mode.
type TokenProvider interface {
	// GetTokenForAccount returns a valid OAuth token for the account.
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount reports whether a token exists for the account.
	HasTokenForAccount(account string) bool
}

// FileTokenProvider implements TokenProvider on top of the local token
// cache. This is the default for stdio mode.
type FileTokenProvider struct{}

// NewFileTokenProvider creates a file-based token provider.
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

// GetTokenForAccount returns a token from the file cache, refreshing it
// when expired.
func (f *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	tokenSource, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return tokenSource.Token()
}

// HasTokenForAccount reports whether a cached token file exists for the
// account.
func (f *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}
