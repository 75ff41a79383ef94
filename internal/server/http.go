package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetfinder/internal/instrumentation"
	"github.com/teemow/meetfinder/internal/mcp/oauth"
)

// OAuthConfig holds configuration for the OAuth-enabled HTTP transport
type OAuthConfig struct {
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	DisableStreaming   bool
	DebugMode          bool

	// Security settings
	AllowPublicClientRegistration bool
	RegistrationAccessToken       string
	AllowInsecureAuthWithoutState bool
	MaxClientsPerIP               int

	// TrustedAudiences enables SSO token forwarding from upstream gateways
	// whose tokens carry one of these audiences
	TrustedAudiences []string

	// TLS configuration; when both files are set the server serves HTTPS itself
	TLSCertFile string
	TLSKeyFile  string
}

// OAuthHTTPServer wraps an MCP server with OAuth 2.1 authentication backed by
// the mcp-oauth library. It serves the authorization endpoints alongside the
// MCP endpoint so clients can discover the authorization server and complete
// the Google login flow against this process.
type OAuthHTTPServer struct {
	mcpServer        *mcpserver.MCPServer
	oauthHandler     *oauth.Handler
	httpServer       *http.Server
	serverType       string // "streamable-http"
	disableStreaming bool
	tlsCertFile      string
	tlsKeyFile       string
	healthChecker    *HealthChecker
	sessionManager   *SessionIDManager
	metrics          *instrumentation.Metrics
}

// CreateOAuthHandler creates an OAuth handler for use with the HTTP transport.
// This allows creating the handler before the server so the token provider can
// be injected into the server context first.
func CreateOAuthHandler(config OAuthConfig) (*oauth.Handler, error) {
	return oauth.NewHandler(&oauth.Config{
		BaseURL:            config.BaseURL,
		GoogleClientID:     config.GoogleClientID,
		GoogleClientSecret: config.GoogleClientSecret,
		Security: oauth.SecurityConfig{
			AllowPublicClientRegistration: config.AllowPublicClientRegistration,
			RegistrationAccessToken:       config.RegistrationAccessToken,
			AllowInsecureAuthWithoutState: config.AllowInsecureAuthWithoutState,
			MaxClientsPerIP:               config.MaxClientsPerIP,
			EnableAuditLogging:            true, // Always enable audit logging
			TrustedAudiences:              config.TrustedAudiences,
		},
		RateLimit: oauth.RateLimitConfig{
			Rate:      10,  // 10 req/sec per IP
			Burst:     20,  // Allow burst of 20
			UserRate:  100, // 100 req/sec per authenticated user
			UserBurst: 200, // Allow burst of 200
		},
	})
}

// NewOAuthHTTPServer creates a new OAuth-enabled HTTP server for MCP
func NewOAuthHTTPServer(mcpServer *mcpserver.MCPServer, serverType string, config OAuthConfig) (*OAuthHTTPServer, error) {
	oauthHandler, err := CreateOAuthHandler(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth handler: %w", err)
	}

	return &OAuthHTTPServer{
		mcpServer:        mcpServer,
		oauthHandler:     oauthHandler,
		serverType:       serverType,
		disableStreaming: config.DisableStreaming,
		tlsCertFile:      config.TLSCertFile,
		tlsKeyFile:       config.TLSKeyFile,
	}, nil
}

// NewOAuthHTTPServerWithHandler creates a new OAuth-enabled HTTP server with an existing handler
func NewOAuthHTTPServerWithHandler(mcpServer *mcpserver.MCPServer, serverType string, oauthHandler *oauth.Handler, disableStreaming bool) (*OAuthHTTPServer, error) {
	return &OAuthHTTPServer{
		mcpServer:        mcpServer,
		oauthHandler:     oauthHandler,
		serverType:       serverType,
		disableStreaming: disableStreaming,
	}, nil
}

// NewOAuthHTTPServerWithHandlerAndTLS creates a new OAuth-enabled HTTP server
// with an existing handler that serves HTTPS using the given certificate
func NewOAuthHTTPServerWithHandlerAndTLS(mcpServer *mcpserver.MCPServer, serverType string, oauthHandler *oauth.Handler, disableStreaming bool, tlsCertFile, tlsKeyFile string) (*OAuthHTTPServer, error) {
	return &OAuthHTTPServer{
		mcpServer:        mcpServer,
		oauthHandler:     oauthHandler,
		serverType:       serverType,
		disableStreaming: disableStreaming,
		tlsCertFile:      tlsCertFile,
		tlsKeyFile:       tlsKeyFile,
	}, nil
}

// SetHealthChecker sets the health checker whose endpoints are registered on Start
func (s *OAuthHTTPServer) SetHealthChecker(h *HealthChecker) {
	s.healthChecker = h
}

// SetMetrics sets the metrics recorder for HTTP request instrumentation
func (s *OAuthHTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// Start starts the OAuth-enabled HTTP server
func (s *OAuthHTTPServer) Start(addr string) error {
	// Validate HTTPS requirement for OAuth 2.1
	// Exception: localhost is allowed to use HTTP for development
	baseURL := s.oauthHandler.GetServer().Config.Issuer
	if err := validateHTTPSRequirement(baseURL); err != nil {
		return err
	}

	mux := http.NewServeMux()

	// Track which account each authenticated session belongs to
	s.sessionManager = NewSessionIDManager()

	// Get the library's HTTP handler
	libHandler := s.oauthHandler.GetHandler()

	// ========== OAuth 2.1 Endpoints ==========

	// Protected Resource Metadata endpoint (RFC 9728)
	mux.HandleFunc("/.well-known/oauth-protected-resource", libHandler.ServeProtectedResourceMetadata)

	// Authorization Server Metadata endpoint (RFC 8414)
	mux.HandleFunc("/.well-known/oauth-authorization-server", libHandler.ServeAuthorizationServerMetadata)

	// Dynamic Client Registration endpoint (RFC 7591)
	mux.HandleFunc("/oauth/register", libHandler.ServeClientRegistration)

	// OAuth Authorization endpoint
	mux.Handle("/oauth/authorize", s.oauthInstrumentationWrapper(http.HandlerFunc(libHandler.ServeAuthorization)))

	// OAuth Token endpoint
	mux.Handle("/oauth/token", s.oauthInstrumentationWrapper(http.HandlerFunc(libHandler.ServeToken)))

	// OAuth Callback endpoint (from Google)
	mux.Handle("/oauth/callback", s.oauthInstrumentationWrapper(http.HandlerFunc(libHandler.ServeCallback)))

	// Token Revocation endpoint (RFC 7009)
	mux.HandleFunc("/oauth/revoke", libHandler.ServeTokenRevocation)

	// Token Introspection endpoint (RFC 7662)
	mux.HandleFunc("/oauth/introspect", libHandler.ServeTokenIntrospection)

	// ========== Health Endpoints ==========

	if s.healthChecker != nil {
		s.healthChecker.SetSessionManager(s.sessionManager)
		s.healthChecker.RegisterHealthEndpoints(mux)
	}

	// ========== MCP Endpoints ==========

	// Register MCP endpoints based on server type
	switch s.serverType {
	case "streamable-http":
		// Create Streamable HTTP server
		var streamableServer http.Handler
		if s.disableStreaming {
			streamableServer = mcpserver.NewStreamableHTTPServer(s.mcpServer,
				mcpserver.WithEndpointPath("/mcp"),
				mcpserver.WithDisableStreaming(true),
			)
		} else {
			streamableServer = mcpserver.NewStreamableHTTPServer(s.mcpServer,
				mcpserver.WithEndpointPath("/mcp"),
			)
		}

		var ssoMetrics oauth.SSOMetricsRecorder
		if s.metrics != nil {
			ssoMetrics = s.metrics
		}

		// ValidateToken must run before the SSO middleware so the user
		// identity is on the context when forwarded tokens are extracted
		mcpHandler := oauth.WrapWithSSOAccessTokenAndMetrics(streamableServer, s.oauthHandler.GetStore(), nil, ssoMetrics)
		mcpHandler = s.sessionTrackingMiddleware(mcpHandler)
		mux.Handle("/mcp", libHandler.ValidateToken(mcpHandler))

	default:
		return fmt.Errorf("unsupported server type: %s", s.serverType)
	}

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.instrumentationMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		return s.httpServer.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *OAuthHTTPServer) Shutdown(ctx context.Context) error {
	// Stop the OAuth handler's background services
	if s.oauthHandler != nil {
		s.oauthHandler.Stop()
	}

	// Stop the session cleanup goroutine
	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	// Shutdown HTTP server
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// GetOAuthHandler returns the OAuth handler for testing or direct access
func (s *OAuthHTTPServer) GetOAuthHandler() *oauth.Handler {
	return s.oauthHandler
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before delegating
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes streaming flushes through to the underlying writer.
// The streamable HTTP transport requires this for SSE responses.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// sessionTrackingMiddleware associates the authenticated account with the
// request's session. Runs after token validation so the user identity is
// already on the context.
func (s *OAuthHTTPServer) sessionTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.sessionManager != nil {
			if sessionID, err := s.sessionManager.ResolveSessionID(r); err == nil {
				account := "default"
				if user, ok := oauth.GetUserFromContext(r.Context()); ok && user.Email != "" {
					account = user.Email
				}
				s.sessionManager.SetAccountForSession(sessionID, account)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// instrumentationMiddleware records request count and duration metrics for
// every HTTP request. It passes requests straight through when no metrics
// recorder is configured.
func (s *OAuthHTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// oauthInstrumentationWrapper records authorization outcomes for OAuth flow
// endpoints based on the response status. It passes requests straight through
// when no metrics recorder is configured.
func (s *OAuthHTTPServer) oauthInstrumentationWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		result := instrumentation.OAuthResultSuccess
		if rw.statusCode >= http.StatusBadRequest {
			result = instrumentation.OAuthResultFailure
		}
		s.metrics.RecordOAuthAuth(r.Context(), result)
	})
}

// validateHTTPSRequirement ensures OAuth 2.1 HTTPS compliance
// Allows HTTP only for loopback addresses (localhost, 127.0.0.1, ::1)
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	// Parse URL to properly validate scheme and host
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	// Allow HTTP only for loopback addresses
	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("OAuth 2.1 requires HTTPS for production (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
