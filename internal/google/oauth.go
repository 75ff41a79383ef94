package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// accountNamePattern restricts account names to characters that are safe
// in file names on every supported platform.
var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName checks that an account name can be embedded in a
// token file path without escaping the cache directory.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphens and underscores are allowed", account)
	}
	return nil
}

// getTokenFilePath returns the token cache file for the given account.
// Each account gets its own file so tokens for different Google accounts
// never overwrite each other.
func getTokenFilePath(account string) string {
	return filepath.Join(userCacheDir(), "meetfinder", fmt.Sprintf("google-%s.token", account))
}

// legacyTokenFilePath is the pre-multi-account token location.
func legacyTokenFilePath() string {
	return filepath.Join(userCacheDir(), "meetfinder", "google.token")
}

// GetOAuthConfig returns the OAuth2 config for the out-of-band device flow.
// Client credentials come from the GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET
// environment variables; the returned config is non-nil even when they are
// unset so callers can surface a useful error at token exchange time.
func GetOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       DefaultOAuthScopes,
	}
}

// GetAuthURL returns the URL the user must visit to authorize access for
// the configured OAuth client.
func GetAuthURL() string {
	conf := GetOAuthConfig()
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HasToken reports whether a cached token exists for the default account.
func HasToken() bool {
	return HasTokenForAccount("default")
}

// HasTokenForAccount reports whether a cached token exists for the given
// account. Invalid account names never have tokens.
func HasTokenForAccount(account string) bool {
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// SaveToken exchanges an authorization code and caches the resulting token
// for the default account.
func SaveToken(ctx context.Context, authCode string) error {
	return SaveTokenForAccount(ctx, authCode, "default")
}

// SaveTokenForAccount exchanges an authorization code and caches the
// resulting token for the given account.
func SaveTokenForAccount(ctx context.Context, authCode, account string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	conf := GetOAuthConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set to exchange authorization codes")
	}

	token, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("authorization response did not include a refresh token; revoke access at https://myaccount.google.com/permissions and try again")
	}

	tokenFile := getTokenFilePath(account)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	contents := fmt.Sprintf("%s %s", token.AccessToken, token.RefreshToken)
	if err := os.WriteFile(tokenFile, []byte(contents), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// GetTokenSource returns a token source for the default account.
func GetTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	return GetTokenSourceForAccount(ctx, "default")
}

// GetTokenSourceForAccount returns a self-refreshing token source backed by
// the cached token for the given account.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	if err := MigrateDefaultToken(); err != nil {
		return nil, err
	}

	tokenFile := getTokenFilePath(account)
	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no cached token for account %q: %w", account, err)
	}

	fields := strings.Fields(string(raw))
	if len(fields) != 2 {
		return nil, fmt.Errorf("token file %s is malformed; remove it and authenticate again", tokenFile)
	}

	conf := GetOAuthConfig()
	token := &oauth2.Token{
		AccessToken:  fields[0],
		RefreshToken: fields[1],
	}
	// Force a refresh on first use so expired access tokens are replaced
	// before any API call sees them.
	token.Expiry = time.Unix(1, 0)

	ts := conf.TokenSource(ctx, token)
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("failed to refresh token for account %q: %w", account, err)
	}
	return ts, nil
}

// MigrateDefaultToken moves a pre-multi-account token file to the
// per-account location for "default". It is a no-op when there is nothing
// to migrate or the target already exists.
func MigrateDefaultToken() error {
	legacy := legacyTokenFilePath()
	if _, err := os.Stat(legacy); err != nil {
		return nil
	}

	target := getTokenFilePath("default")
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}
	if err := os.Rename(legacy, target); err != nil {
		return fmt.Errorf("failed to migrate legacy token file: %w", err)
	}
	return nil
}

// GetAuthenticationErrorMessage returns a user-facing explanation of how to
// authenticate the given account. Tool handlers surface it when no token
// exists, so it names both the in-conversation tool flow and the CLI flow.
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(
		"no Google OAuth token for account %q: call google_get_auth_url, have the user authorize and provide the code, then call google_save_auth_code with account=%q; or run `meetfinder auth --account %s`",
		account, account, account,
	)
}

// userCacheDir returns the base directory for cached tokens, honoring the
// platform conventions and XDG_CACHE_HOME.
func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return dir
		}
		return filepath.Join(homeDir(), "AppData", "Local")
	default:
		if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
			return dir
		}
		return filepath.Join(homeDir(), ".cache")
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "."
}
