package oauth

import (
	"fmt"
	"log/slog"
	"strings"

	mcpoauth "github.com/giantswarm/mcp-oauth"
	googleprovider "github.com/giantswarm/mcp-oauth/providers/google"
	"github.com/giantswarm/mcp-oauth/storage"
	"github.com/giantswarm/mcp-oauth/storage/memory"

	"github.com/teemow/meetfinder/internal/google"
)

// Config holds the settings for the OAuth 2.1 authorization surface of the
// HTTP transport.
type Config struct {
	// BaseURL is the externally visible URL of this server. It becomes the
	// OAuth issuer and the prefix for the callback endpoint.
	BaseURL string

	// GoogleClientID and GoogleClientSecret identify this server at Google.
	GoogleClientID     string
	GoogleClientSecret string

	// Scopes requested from Google. Defaults to google.DefaultOAuthScopes.
	Scopes []string

	// Logger receives the library's audit and debug output.
	// Defaults to slog.Default when nil.
	Logger *slog.Logger

	Security  SecurityConfig
	RateLimit RateLimitConfig
}

// SecurityConfig mirrors the mcp-oauth security settings this server exercises.
type SecurityConfig struct {
	// AllowPublicClientRegistration permits dynamic client registration
	// (RFC 7591) without a registration access token.
	AllowPublicClientRegistration bool

	// RegistrationAccessToken protects the registration endpoint when
	// public registration is disabled.
	RegistrationAccessToken string

	// AllowInsecureAuthWithoutState drops the state parameter requirement
	// for clients that cannot send one.
	AllowInsecureAuthWithoutState bool

	// MaxClientsPerIP caps dynamic client registrations per source IP.
	MaxClientsPerIP int

	// EnableAuditLogging turns on the library's audit log.
	EnableAuditLogging bool

	// TrustedAudiences lists OAuth client IDs whose Google ID tokens are
	// accepted directly. Enables SSO token forwarding from upstream
	// aggregators (mcp-oauth v0.2.38+).
	TrustedAudiences []string
}

// RateLimitConfig mirrors the mcp-oauth rate limit settings.
type RateLimitConfig struct {
	// Rate and Burst limit requests per second per source IP.
	Rate  float64
	Burst int

	// UserRate and UserBurst limit requests per second per authenticated user.
	UserRate  float64
	UserBurst int
}

// Handler bundles the mcp-oauth server, its HTTP handler, and the token
// store they share.
type Handler struct {
	server  *mcpoauth.Server
	handler *mcpoauth.Handler
	store   storage.TokenStore
	stop    func()
}

// NewHandler creates the OAuth server, HTTP handler, and in-memory token
// store from the given configuration.
func NewHandler(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("Google OAuth credentials are required: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = google.DefaultOAuthScopes
	}

	provider := googleprovider.New(&googleprovider.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  strings.TrimSuffix(cfg.BaseURL, "/") + "/oauth/callback",
		Scopes:       scopes,
	}, logger)

	store := memory.New()

	srv, err := mcpoauth.NewServer(&mcpoauth.Config{
		Issuer:   cfg.BaseURL,
		Provider: provider,
		Storage:  store,
		Logger:   logger,
		Security: mcpoauth.SecurityConfig{
			AllowPublicClientRegistration: cfg.Security.AllowPublicClientRegistration,
			RegistrationAccessToken:       cfg.Security.RegistrationAccessToken,
			AllowInsecureAuthWithoutState: cfg.Security.AllowInsecureAuthWithoutState,
			MaxClientsPerIP:               cfg.Security.MaxClientsPerIP,
			EnableAuditLogging:            cfg.Security.EnableAuditLogging,
			TrustedAudiences:              cfg.Security.TrustedAudiences,
		},
		RateLimit: mcpoauth.RateLimitConfig{
			Rate:      cfg.RateLimit.Rate,
			Burst:     cfg.RateLimit.Burst,
			UserRate:  cfg.RateLimit.UserRate,
			UserBurst: cfg.RateLimit.UserBurst,
		},
	})
	if err != nil {
		store.Stop()
		return nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}

	return &Handler{
		server:  srv,
		handler: mcpoauth.NewHandler(srv, logger),
		store:   store,
		stop:    store.Stop,
	}, nil
}

// GetServer returns the underlying mcp-oauth server.
func (h *Handler) GetServer() *mcpoauth.Server {
	return h.server
}

// GetHandler returns the library's HTTP handler, which serves the OAuth
// endpoints and provides the ValidateToken middleware.
func (h *Handler) GetHandler() *mcpoauth.Handler {
	return h.handler
}

// GetStore returns the token store shared with the OAuth server. Google API
// clients read user tokens from it through a TokenProvider.
func (h *Handler) GetStore() storage.TokenStore {
	return h.store
}

// Stop shuts down the token store's background cleanup.
func (h *Handler) Stop() {
	if h.stop != nil {
		h.stop()
	}
}
