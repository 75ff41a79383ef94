package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetfinder/internal/instrumentation"
	"github.com/teemow/meetfinder/internal/mcp/oauth"
	"github.com/teemow/meetfinder/internal/resources"
	"github.com/teemow/meetfinder/internal/scheduling"
	"github.com/teemow/meetfinder/internal/server"
	"github.com/teemow/meetfinder/internal/tools/calendar_tools"
	"github.com/teemow/meetfinder/internal/tools/google_tools"
)

// OAuthSecurityConfig holds OAuth security settings
type OAuthSecurityConfig struct {
	AllowPublicClientRegistration bool
	RegistrationAccessToken       string
	AllowInsecureAuthWithoutState bool
	MaxClientsPerIP               int

	// SSO Token Forwarding (mcp-oauth v0.2.38+)
	TrustedAudiences []string

	// TLS/HTTPS support
	TLSCertFile string
	TLSKeyFile  string
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode          bool
		transport          string
		httpAddr           string
		yolo               bool
		googleClientID     string
		googleClientSecret string
		disableStreaming   bool
		baseURL            string
		// OAuth Security Settings
		allowPublicClientRegistration bool
		registrationAccessToken       string
		allowInsecureAuthWithoutState bool
		maxClientsPerIP               int
		// SSO Token Forwarding (mcp-oauth v0.2.38+)
		trustedAudiences []string
		// TLS/HTTPS support
		tlsCertFile string
		tlsKeyFile  string
		// Metrics server configuration
		metricsEnabled bool
		metricsAddr    string
		// Scheduling policy overrides
		workweek        string
		slotStepMinutes int
		allowPartial    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Calendar
meeting-scheduling tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (event updates, deletions, etc.)

Scheduling Defaults:
  Slot searches use defaults from SCHEDULER_* environment variables.
  The --workweek, --slot-step-minutes and --allow-partial flags override
  the corresponding environment values.

OAuth Configuration:
  HTTP Transport:
    Base URL (required for deployed instances):
      --base-url https://your-domain.com OR MCP_BASE_URL env var
      Auto-detected for localhost (development only)

    Token Refresh (required):
      --google-client-id and --google-client-secret flags
      OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
      Required for OAuth proxy mode and automatic token refresh

  STDIO Transport:
    Tokens come from the cache directory written by 'meetfinder auth'.
    GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set for token
    refresh; without them refresh fails when tokens expire (~1 hour).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load TLS paths from environment if not provided via flags
			if tlsCertFile == "" {
				tlsCertFile = os.Getenv("TLS_CERT_FILE")
			}
			if tlsKeyFile == "" {
				tlsKeyFile = os.Getenv("TLS_KEY_FILE")
			}

			securityConfig := OAuthSecurityConfig{
				AllowPublicClientRegistration: allowPublicClientRegistration,
				RegistrationAccessToken:       registrationAccessToken,
				AllowInsecureAuthWithoutState: allowInsecureAuthWithoutState,
				MaxClientsPerIP:               maxClientsPerIP,
				// SSO Token Forwarding (mcp-oauth v0.2.38+)
				TrustedAudiences: trustedAudiences,
				// TLS support
				TLSCertFile: tlsCertFile,
				TLSKeyFile:  tlsKeyFile,
			}

			// Build metrics config
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			// Scheduling defaults come from SCHEDULER_* env vars; flags
			// override only when explicitly set
			schedulingConfig, err := scheduling.NewConfig()
			if err != nil {
				return fmt.Errorf("invalid scheduling configuration: %w", err)
			}
			if cmd.Flags().Changed("workweek") {
				schedulingConfig.Workweek = workweek
			}
			if cmd.Flags().Changed("slot-step-minutes") {
				schedulingConfig.SlotStepMinutes = slotStepMinutes
			}
			if cmd.Flags().Changed("allow-partial") {
				schedulingConfig.AllowPartialResults = allowPartial
			}
			if err := schedulingConfig.Validate(); err != nil {
				return fmt.Errorf("invalid scheduling configuration: %w", err)
			}

			return runServe(transport, debugMode, httpAddr, yolo, googleClientID, googleClientSecret, disableStreaming, baseURL, schedulingConfig, securityConfig, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (event updates, deletions, etc.). Default is read-only mode.")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID for automatic token refresh (HTTP transport only). Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret for automatic token refresh (HTTP transport only). Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL for OAuth (HTTP transport only). Required for deployed instances. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")

	// OAuth Security Settings (HTTP transport only)
	cmd.Flags().BoolVar(&allowPublicClientRegistration, "oauth-allow-public-registration", false, "WARNING: Allow unauthenticated client registration (NOT recommended for production). Can also use MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION env var. Default: false (secure)")
	cmd.Flags().StringVar(&registrationAccessToken, "oauth-registration-token", "", "Registration access token required for client registration when public registration is disabled. Can also use MCP_OAUTH_REGISTRATION_TOKEN env var.")
	cmd.Flags().BoolVar(&allowInsecureAuthWithoutState, "oauth-allow-no-state", false, "WARNING: Allow authorization without state parameter (weakens CSRF protection). Can also use MCP_OAUTH_ALLOW_NO_STATE env var. Default: false (secure)")
	cmd.Flags().IntVar(&maxClientsPerIP, "oauth-max-clients-per-ip", 10, "Maximum number of clients that can be registered per IP address (prevents DoS). Can also use MCP_OAUTH_MAX_CLIENTS_PER_IP env var. Default: 10")

	// SSO Token Forwarding (mcp-oauth v0.2.38+)
	cmd.Flags().StringSliceVar(&trustedAudiences, "oauth-trusted-audiences", nil, "Additional OAuth client IDs whose tokens are accepted for SSO (comma-separated). Enables token forwarding from upstream aggregators. Can also use OAUTH_TRUSTED_AUDIENCES env var.")

	// TLS flags for HTTPS support
	cmd.Flags().StringVar(&tlsCertFile, "tls-cert-file", "", "Path to TLS certificate file (PEM format). If provided with --tls-key-file, enables HTTPS. Can also use TLS_CERT_FILE env var.")
	cmd.Flags().StringVar(&tlsKeyFile, "tls-key-file", "", "Path to TLS private key file (PEM format). If provided with --tls-cert-file, enables HTTPS. Can also use TLS_KEY_FILE env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	// Scheduling policy flags (override SCHEDULER_* env vars)
	cmd.Flags().StringVar(&workweek, "workweek", scheduling.WorkweekWestern, "Default workweek preset for slot searches: western (Mon-Fri) or israel (Sun-Thu). Can also use SCHEDULER_WORKWEEK env var.")
	cmd.Flags().IntVar(&slotStepMinutes, "slot-step-minutes", 0, "Spacing between candidate slot starts in minutes. 0 tiles slots back to back at the meeting duration. Can also use SCHEDULER_SLOT_STEP_MINUTES env var.")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Answer slot searches with a partial-data warning instead of an error when some calendars cannot be fetched. Can also use SCHEDULER_ALLOW_PARTIAL_RESULTS env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr string, yolo bool, googleClientID, googleClientSecret string, disableStreaming bool, baseURL string, schedulingConfig scheduling.Config, securityConfig OAuthSecurityConfig, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load metrics config from environment if not set via flags
	if !metricsConfig.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			metricsConfig.Enabled = true
		}
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			log.Printf("Metrics server started on %s", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Get Google OAuth credentials from environment if not provided via flags
	if googleClientID == "" {
		googleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if googleClientSecret == "" {
		googleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}

	// Get OAuth security settings from environment if not provided via flags
	if !securityConfig.AllowPublicClientRegistration && os.Getenv("MCP_OAUTH_ALLOW_PUBLIC_REGISTRATION") == "true" {
		securityConfig.AllowPublicClientRegistration = true
	}
	if securityConfig.RegistrationAccessToken == "" {
		securityConfig.RegistrationAccessToken = os.Getenv("MCP_OAUTH_REGISTRATION_TOKEN")
	}
	if !securityConfig.AllowInsecureAuthWithoutState && os.Getenv("MCP_OAUTH_ALLOW_NO_STATE") == "true" {
		securityConfig.AllowInsecureAuthWithoutState = true
	}
	if securityConfig.MaxClientsPerIP == 0 {
		if envMax := os.Getenv("MCP_OAUTH_MAX_CLIENTS_PER_IP"); envMax != "" {
			if maxClients, err := strconv.Atoi(envMax); err == nil && maxClients > 0 {
				securityConfig.MaxClientsPerIP = maxClients
			}
		}
		// If still 0, use default of 10
		if securityConfig.MaxClientsPerIP == 0 {
			securityConfig.MaxClientsPerIP = 10
		}
	}

	// Parse trusted audiences from environment variable (mcp-oauth v0.2.38+)
	// Only apply env var if flag was not explicitly set
	if len(securityConfig.TrustedAudiences) == 0 {
		if audiences := os.Getenv("OAUTH_TRUSTED_AUDIENCES"); audiences != "" {
			securityConfig.TrustedAudiences = parseCommaSeparatedList(audiences)
		}
	}

	// Log security warning when SSO token forwarding is enabled
	// This is a security-sensitive configuration that operators should be aware of
	if len(securityConfig.TrustedAudiences) > 0 {
		slog.Warn("SSO token forwarding enabled: tokens from trusted upstream clients will be accepted",
			"trusted_audiences", securityConfig.TrustedAudiences,
			"security_note", "ensure these client IDs are from services you control and trust")
	}

	// Create server context (will be recreated for HTTP with OAuth token provider)
	serverContext, err := server.NewServerContext(shutdownCtx, schedulingConfig)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Create MCP server
	// Note: mcp.Implementation has Title field but WithTitle() ServerOption not available in v0.43.0
	mcpSrv := mcpserver.NewMCPServer("meetfinder", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo

	// Log the mode for visibility (only for non-stdio transports)
	if transport != "stdio" {
		if readOnly {
			log.Println("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
		} else {
			log.Println("Starting server with WRITE operations enabled (--yolo flag is set)")
		}
	}

	// Register all tools and resources
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		fmt.Printf("Starting meetfinder MCP server with %s transport...\n", transport)
		return runStreamableHTTPServer(mcpSrv, serverContext, httpAddr, shutdownCtx, debugMode, googleClientID, googleClientSecret, readOnly, disableStreaming, baseURL, securityConfig, metricsConfig, provider)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
// Extracted to avoid duplication in serve.go
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	// Define all tool registrations
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Google Auth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, ctx)
			},
		},
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Scheduler Resources",
			register: func() error {
				return resources.RegisterSchedulerResources(mcpSrv, ctx)
			},
		},
	}

	// Register all tools
	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, oldServerContext *server.ServerContext, addr string, ctx context.Context, debugMode bool, googleClientID, googleClientSecret string, readOnly bool, disableStreaming bool, baseURL string, securityConfig OAuthSecurityConfig, metricsConfig MetricsConfig, instrProvider *instrumentation.Provider) error {
	// Create OAuth-enabled HTTP server
	// Base URL should be the full URL where the server is accessible
	// For development, use http://localhost:8080
	// For production, use the actual HTTPS URL

	// Determine base URL from flag, environment variable, or auto-detection
	if baseURL == "" {
		baseURL = os.Getenv("MCP_BASE_URL")
	}
	if baseURL == "" {
		// Fall back to auto-detection for local development
		baseURL = fmt.Sprintf("http://%s", addr)
		if addr[0] == ':' {
			baseURL = fmt.Sprintf("http://localhost%s", addr)
		}
		log.Printf("No base URL configured, using auto-detected: %s", baseURL)
		log.Printf("For deployed instances, set --base-url flag or MCP_BASE_URL env var")
	} else {
		log.Printf("Using configured base URL: %s", baseURL)
	}

	// Create OAuth handler
	oauthConfig := server.OAuthConfig{
		BaseURL:                       baseURL,
		GoogleClientID:                googleClientID,
		GoogleClientSecret:            googleClientSecret,
		DisableStreaming:              disableStreaming,
		DebugMode:                     debugMode,
		AllowPublicClientRegistration: securityConfig.AllowPublicClientRegistration,
		RegistrationAccessToken:       securityConfig.RegistrationAccessToken,
		AllowInsecureAuthWithoutState: securityConfig.AllowInsecureAuthWithoutState,
		MaxClientsPerIP:               securityConfig.MaxClientsPerIP,
		// SSO Token Forwarding (mcp-oauth v0.2.38+)
		TrustedAudiences: securityConfig.TrustedAudiences,
		// TLS configuration
		TLSCertFile: securityConfig.TLSCertFile,
		TLSKeyFile:  securityConfig.TLSKeyFile,
	}

	oauthHandler, err := server.CreateOAuthHandler(oauthConfig)
	if err != nil {
		return fmt.Errorf("failed to create OAuth handler: %w", err)
	}
	defer oauthHandler.Stop() // Ensure cleanup

	// Create token provider from OAuth store with metrics for observability
	var tokenProvider *oauth.TokenProvider
	if instrProvider != nil && instrProvider.Enabled() {
		tokenProvider = oauth.NewTokenProviderWithMetrics(oauthHandler.GetStore(), instrProvider.Metrics())
	} else {
		tokenProvider = oauth.NewTokenProvider(oauthHandler.GetStore())
	}

	// Recreate server context with OAuth token provider
	// This ensures Google API clients use tokens from OAuth authentication
	schedulingConfig := oldServerContext.SchedulingConfig()

	// Shutdown old context and create new one with OAuth token provider
	if err := oldServerContext.Shutdown(); err != nil {
		log.Printf("Warning: failed to shutdown old server context: %v", err)
	}

	serverContext, err := server.NewServerContextWithProvider(ctx, schedulingConfig, tokenProvider)
	if err != nil {
		return fmt.Errorf("failed to create server context with OAuth token provider: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	// Set metrics and audit logger on server context for tool instrumentation
	if instrProvider != nil && instrProvider.Enabled() {
		serverContext.SetMetrics(instrProvider.Metrics())
		// Load audit logging config from environment
		auditConfig := instrumentation.AuditLoggingConfig{
			Enabled:    true,
			IncludePII: os.Getenv("AUDIT_LOGGING_INCLUDE_PII") == "true",
		}
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, auditConfig))
	}

	// Re-register all tools with the new context
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Create OAuth server with existing handler
	oauthServer, err := server.NewOAuthHTTPServerWithHandlerAndTLS(mcpSrv, "streamable-http", oauthHandler, disableStreaming, securityConfig.TLSCertFile, securityConfig.TLSKeyFile)
	if err != nil {
		return fmt.Errorf("failed to create OAuth HTTP server: %w", err)
	}

	// Set up health checker for health check endpoints
	healthChecker := server.NewHealthChecker(serverContext)
	oauthServer.SetHealthChecker(healthChecker)

	// Set up HTTP instrumentation for metrics
	if instrProvider != nil && instrProvider.Enabled() {
		oauthServer.SetMetrics(instrProvider.Metrics())
	}

	fmt.Printf("Streamable HTTP server with Google OAuth authentication starting on %s\n", addr)
	fmt.Printf("  HTTP endpoint: /mcp\n")
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	fmt.Printf("  OAuth metadata: /.well-known/oauth-protected-resource\n")
	fmt.Printf("  Authorization Server: %s\n", baseURL)
	if metricsConfig.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", metricsConfig.Addr)
	}

	if googleClientID != "" && googleClientSecret != "" {
		fmt.Println("\n✓ Automatic token refresh: ENABLED")
		fmt.Println("  Tokens will be refreshed automatically before expiration")
	} else {
		fmt.Println("\n⚠ Automatic token refresh: DISABLED")
		fmt.Println("  Users will need to re-authenticate when tokens expire (~1 hour)")
		fmt.Println("  To enable, provide --google-client-id and --google-client-secret")
	}

	fmt.Println("\nClients must authenticate with Google OAuth to access this server.")
	fmt.Println("The MCP client (e.g., Cursor, Claude Desktop) will handle the OAuth flow automatically.")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := oauthServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := oauthServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
