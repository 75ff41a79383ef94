package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetfinder/internal/scheduling"
	"github.com/teemow/meetfinder/internal/server"
)

// RegisterSchedulerResources registers resources describing the active
// scheduling configuration. Agents read these to learn the defaults and
// limits before calling calendar_find_meeting_slots.
func RegisterSchedulerResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Register scheduler configuration resource
	configResource := mcp.NewResource(
		"scheduler://config",
		"Scheduler Configuration",
		mcp.WithResourceDescription("Active defaults and limits for meeting slot searches"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(configResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSchedulerConfig(ctx, request, sc)
	})

	// Register workweek presets resource
	workweeksResource := mcp.NewResource(
		"scheduler://workweeks",
		"Workweek Presets",
		mcp.WithResourceDescription("Available workweek presets and their weekdays"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(workweeksResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleWorkweekPresets(ctx, request, sc)
	})

	return nil
}

// handleSchedulerConfig returns the active scheduling configuration
func handleSchedulerConfig(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.SchedulingConfig()

	configData := map[string]interface{}{
		"maxRangeDays":           cfg.MaxRangeDays,
		"defaultDurationMinutes": cfg.DefaultDurationMinutes,
		"defaultEarliestHour":    cfg.DefaultEarliestHour,
		"defaultLatestHour":      cfg.DefaultLatestHour,
		"defaultMaxSuggestions":  cfg.DefaultMaxSuggestions,
		"slotStepMinutes":        cfg.SlotStepMinutes,
		"workweek":               cfg.Workweek,
		"allowPartialResults":    cfg.AllowPartialResults,
		"fetchTimeout":           cfg.FetchTimeout.String(),
		"description":            "Defaults applied when calendar_find_meeting_slots arguments are omitted",
	}

	jsonData, err := json.MarshalIndent(configData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scheduler config: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleWorkweekPresets returns the workweek presets and their weekdays
func handleWorkweekPresets(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	presets := []string{scheduling.WorkweekWestern, scheduling.WorkweekIsrael}

	workweeks := make(map[string]interface{}, len(presets))
	for _, name := range presets {
		days, err := scheduling.WorkweekDays(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workweek %s: %w", name, err)
		}
		var dayNames []string
		for _, d := range days.Weekdays() {
			dayNames = append(dayNames, d.String())
		}
		workweeks[name] = dayNames
	}

	payload := map[string]interface{}{
		"default":   sc.SchedulingConfig().Workweek,
		"workweeks": workweeks,
	}

	jsonData, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workweek presets: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
