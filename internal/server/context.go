package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/meetfinder/internal/calendar"
	"github.com/teemow/meetfinder/internal/google"
	"github.com/teemow/meetfinder/internal/instrumentation"
	"github.com/teemow/meetfinder/internal/scheduling"
	"github.com/teemow/meetfinder/internal/timezone"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	calendarClients map[string]*calendar.Client     // Maps account name to Calendar client
	schedulers      map[string]*scheduling.Scheduler // Maps account name to slot scheduler
	tokenProvider   google.TokenProvider             // Optional, overrides file-based token storage
	schedulingCfg   scheduling.Config
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context using file-based token storage
func NewServerContext(ctx context.Context, schedulingCfg scheduling.Config) (*ServerContext, error) {
	return NewServerContextWithProvider(ctx, schedulingCfg, nil)
}

// NewServerContextWithProvider creates a new server context with a custom token
// provider. When provider is nil, clients fall back to file-based token storage.
func NewServerContextWithProvider(ctx context.Context, schedulingCfg scheduling.Config, provider google.TokenProvider) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	// Initialize client maps
	calendarClients := make(map[string]*calendar.Client)

	// Try to create default Calendar client, but don't fail if token is missing
	// Clients will be lazily initialized when first needed
	if provider == nil && calendar.HasToken() {
		calendarClient, err := calendar.NewClient(shutdownCtx)
		if err != nil {
			// Log but don't fail - will be re-attempted on first use
			fmt.Printf("Warning: failed to create Calendar client for default account: %v\n", err)
		} else {
			calendarClients["default"] = calendarClient
		}
	}

	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		calendarClients: calendarClients,
		schedulers:      make(map[string]*scheduling.Scheduler),
		tokenProvider:   provider,
		schedulingCfg:   schedulingCfg,
		shutdown:        false,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarClientForAccount returns the Calendar client for a specific account
// Creates and caches the client if it doesn't exist yet
// Returns nil if the account has no token
func (sc *ServerContext) CalendarClientForAccount(account string) *calendar.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Check if client already exists
	if client, ok := sc.calendarClients[account]; ok {
		return client
	}

	if sc.tokenProvider != nil {
		client, err := calendar.NewClientForAccountWithProvider(sc.ctx, account, sc.tokenProvider)
		if err != nil {
			fmt.Printf("Warning: failed to create Calendar client for account %s: %v\n", account, err)
			return nil
		}
		sc.calendarClients[account] = client
		return client
	}

	// Try to create client if token exists
	if !calendar.HasTokenForAccount(account) {
		return nil
	}

	client, err := calendar.NewClientForAccount(sc.ctx, account)
	if err != nil {
		fmt.Printf("Warning: failed to create Calendar client for account %s: %v\n", account, err)
		return nil
	}

	sc.calendarClients[account] = client
	return client
}

// CalendarClient returns the Calendar client for the default account
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.CalendarClientForAccount("default")
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
	delete(sc.schedulers, account)
}

// SetCalendarClient sets the Calendar client for the default account
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.SetCalendarClientForAccount("default", client)
}

// SchedulerForAccount returns the slot scheduler for a specific account
// Creates and caches the scheduler if it doesn't exist yet
func (sc *ServerContext) SchedulerForAccount(account string) (*scheduling.Scheduler, error) {
	sc.mu.RLock()
	if scheduler, ok := sc.schedulers[account]; ok {
		sc.mu.RUnlock()
		return scheduler, nil
	}
	sc.mu.RUnlock()

	// CalendarClientForAccount takes the write lock itself
	client := sc.CalendarClientForAccount(account)
	if client == nil {
		return nil, fmt.Errorf("no Google OAuth token for account %s", account)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if scheduler, ok := sc.schedulers[account]; ok {
		return scheduler, nil
	}

	source := calendar.NewSchedulerSource(client)
	resolver, err := timezone.NewResolver(source, sc.schedulingCfg.TimezoneCacheSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create timezone resolver: %w", err)
	}

	scheduler := scheduling.NewScheduler(source, resolver, sc.schedulingCfg, nil)
	sc.schedulers[account] = scheduler
	return scheduler, nil
}

// Scheduler returns the slot scheduler for the default account
func (sc *ServerContext) Scheduler() (*scheduling.Scheduler, error) {
	return sc.SchedulerForAccount("default")
}

// SchedulingConfig returns the scheduling configuration
func (sc *ServerContext) SchedulingConfig() scheduling.Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.schedulingCfg
}

// SetSchedulingConfig replaces the scheduling configuration
// Cached schedulers are discarded so they pick up the new settings
func (sc *ServerContext) SetSchedulingConfig(cfg scheduling.Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.schedulingCfg = cfg
	sc.schedulers = make(map[string]*scheduling.Scheduler)
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// AuditLogger returns the audit logger, or nil if audit logging is disabled
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger
func (sc *ServerContext) SetAuditLogger(logger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
