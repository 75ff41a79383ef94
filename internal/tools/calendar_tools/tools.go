package calendar_tools

import (
	"errors"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetfinder/internal/calendar"
	"github.com/teemow/meetfinder/internal/google"
	"github.com/teemow/meetfinder/internal/server"
)

// getCalendarClient returns the Calendar client for the given account.
// The server context creates and caches clients, so a nil answer means
// the account has no usable OAuth token.
func getCalendarClient(account string, sc *server.ServerContext) (*calendar.Client, error) {
	client := sc.CalendarClientForAccount(account)
	if client == nil {
		return nil, errors.New(google.GetAuthenticationErrorMessage(account))
	}
	return client, nil
}

// RegisterCalendarTools registers all Calendar-related tools with the MCP
// server. In read-only mode the event mutation tools are not registered.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register event tools
	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	// Register calendar list tools
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	// Register scheduling tools
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}
