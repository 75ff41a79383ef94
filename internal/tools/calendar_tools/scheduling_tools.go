package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetfinder/internal/scheduling"
	"github.com/teemow/meetfinder/internal/server"
	"github.com/teemow/meetfinder/internal/tools/batch"
	"github.com/teemow/meetfinder/internal/tools/common"
)

// RegisterSchedulingTools registers scheduling and availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Find meeting slots tool
	findSlotsTool := mcp.NewTool("calendar_find_meeting_slots",
		mcp.WithDescription("Find meeting slots where all attendees are free, in chronological order with preferred-window matches first"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Attendee email address (string) or array of addresses; every attendee must be free"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting duration in minutes (default: 30)"),
		),
		mcp.WithString("dateStart",
			mcp.Required(),
			mcp.Description("First day to consider (YYYY-MM-DD)"),
		),
		mcp.WithString("dateEnd",
			mcp.Required(),
			mcp.Description("Last day to consider, inclusive (YYYY-MM-DD)"),
		),
		mcp.WithString("preferredTimeStart",
			mcp.Description("Preferred window start (HH:MM). Slots inside the window rank first; requires preferredTimeEnd"),
		),
		mcp.WithString("preferredTimeEnd",
			mcp.Description("Preferred window end (HH:MM); requires preferredTimeStart"),
		),
		mcp.WithNumber("earliestHour",
			mcp.Description("Earliest meeting hour 0-23 in the target timezone (default: 9)"),
		),
		mcp.WithNumber("latestHour",
			mcp.Description("Latest meeting hour 1-24 in the target timezone (default: 17)"),
		),
		mcp.WithNumber("maxSuggestions",
			mcp.Description("Maximum number of slots to return (default: 5)"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone for working hours and output (default: the organizer calendar's timezone)"),
		),
		mcp.WithString("workweek",
			mcp.Description("Workweek preset: 'western' (Mon-Fri) or 'israel' (Sun-Thu)"),
		),
		mcp.WithString("weekdays",
			mcp.Description("Weekday name (string) or array of weekday names to schedule on; overrides workweek"),
		),
		mcp.WithNumber("slotStepMinutes",
			mcp.Description("Spacing between candidate start times in minutes (default: the meeting duration)"),
		),
		mcp.WithBoolean("allowPartial",
			mcp.Description("Propose slots even when some calendars cannot be fetched; excluded calendars are named in the response"),
		),
	)

	s.AddTool(findSlotsTool, common.InstrumentedToolHandlerWithService(
		"calendar_find_meeting_slots", "calendar", "freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindMeetingSlots(ctx, request, sc)
		}))

	// Query free/busy tool
	queryFreeBusyTool := mcp.NewTool("calendar_query_freebusy",
		mcp.WithDescription("Check availability for one or more calendars/attendees in a time range"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("calendarIds",
			mcp.Required(),
			mcp.Description("Calendar ID or email (string) or array of calendar IDs to check"),
		),
	)

	s.AddTool(queryFreeBusyTool, common.InstrumentedToolHandlerWithService(
		"calendar_query_freebusy", "calendar", "freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		}))

	// Get today tool: anchors relative-date reasoning for agents
	getTodayTool := mcp.NewTool("calendar_get_today",
		mcp.WithDescription("Get today's date, weekday, and current time, optionally in a specific timezone"),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone (e.g., 'Europe/Berlin'). Defaults to the server's local timezone."),
		),
	)

	s.AddTool(getTodayTool, common.InstrumentedToolHandler(
		"calendar_get_today", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetToday(ctx, request)
		}))

	return nil
}

// buildSlotRequest translates raw tool arguments into a scheduling
// request, filling unset fields from the configured defaults. The
// scheduler re-validates; this only rejects what cannot be expressed
// as a request at all.
func buildSlotRequest(args map[string]interface{}, cfg scheduling.Config) (scheduling.Request, error) {
	attendeeArgs, err := batch.ParseStringOrArray(args["attendees"], "attendees")
	if err != nil {
		return scheduling.Request{}, err
	}
	var refs []scheduling.CalendarRef
	for _, entry := range attendeeArgs {
		for _, id := range strings.Split(entry, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			refs = append(refs, scheduling.CalendarRef{ID: id})
		}
	}
	if len(refs) == 0 {
		return scheduling.Request{}, errors.New("attendees cannot be empty")
	}

	duration := cfg.DefaultDuration()
	if v, ok := args["durationMinutes"].(float64); ok {
		if v <= 0 {
			return scheduling.Request{}, errors.New("durationMinutes must be positive")
		}
		duration = time.Duration(v) * time.Minute
	}

	dateStart, ok := args["dateStart"].(string)
	if !ok || dateStart == "" {
		return scheduling.Request{}, errors.New("dateStart is required")
	}
	dateEnd, ok := args["dateEnd"].(string)
	if !ok || dateEnd == "" {
		return scheduling.Request{}, errors.New("dateEnd is required")
	}
	dates, err := scheduling.ParseDateRange(dateStart, dateEnd)
	if err != nil {
		return scheduling.Request{}, err
	}

	hours := cfg.DefaultHours()
	if v, ok := args["earliestHour"].(float64); ok {
		hours.EarliestHour = int(v)
	}
	if v, ok := args["latestHour"].(float64); ok {
		hours.LatestHour = int(v)
	}

	// An explicit weekday list wins over a named workweek preset.
	if raw, ok := args["weekdays"]; ok && raw != nil {
		names, err := batch.ParseStringOrArray(raw, "weekdays")
		if err != nil {
			return scheduling.Request{}, err
		}
		var split []string
		for _, name := range names {
			for _, part := range strings.Split(name, ",") {
				if part = strings.TrimSpace(part); part != "" {
					split = append(split, part)
				}
			}
		}
		days, err := scheduling.ParseWeekdays(split)
		if err != nil {
			return scheduling.Request{}, err
		}
		hours.Days = days
	} else if name, ok := args["workweek"].(string); ok && name != "" {
		days, err := scheduling.WorkweekDays(name)
		if err != nil {
			return scheduling.Request{}, err
		}
		hours.Days = days
	}

	preferredStart, _ := args["preferredTimeStart"].(string)
	preferredEnd, _ := args["preferredTimeEnd"].(string)
	preferred, err := scheduling.ParsePreferredWindow(preferredStart, preferredEnd)
	if err != nil {
		return scheduling.Request{}, err
	}

	maxSuggestions := cfg.DefaultMaxSuggestions
	if v, ok := args["maxSuggestions"].(float64); ok && v > 0 {
		maxSuggestions = int(v)
	}

	req := scheduling.Request{
		Attendees:      refs,
		Duration:       duration,
		Dates:          dates,
		Hours:          hours,
		Preferred:      preferred,
		MaxSuggestions: maxSuggestions,
		AllowPartial:   cfg.AllowPartialResults,
	}

	if tz, ok := args["timezone"].(string); ok {
		req.Timezone = tz
	}
	if v, ok := args["slotStepMinutes"].(float64); ok {
		if v < 0 {
			return scheduling.Request{}, errors.New("slotStepMinutes must not be negative")
		}
		req.Step = time.Duration(v) * time.Minute
	}
	if v, ok := args["allowPartial"].(bool); ok {
		req.AllowPartial = v
	}

	return req, nil
}

// formatSlotsResult renders a slot finding answer for the agent. An
// empty slot list is a valid answer, and partial coverage is called
// out so the agent can warn the user.
func formatSlotsResult(res *scheduling.Result, duration time.Duration) string {
	var result string
	if len(res.Slots) == 0 {
		result = "No common free slots found in the requested range.\n"
	} else {
		result = fmt.Sprintf("Found %d meeting slot(s) for a %d minute meeting (times in %s):\n\n",
			len(res.Slots), int(duration.Minutes()), res.Timezone)
		for i, slot := range res.Slots {
			result += fmt.Sprintf("%d. %s to %s",
				i+1,
				slot.Start.Format("Mon, Jan 2 15:04"),
				slot.End.Format("15:04"))
			if slot.MatchesPreferred {
				result += " [preferred]"
			}
			result += "\n"
		}
	}

	if res.Partial {
		result += fmt.Sprintf("\nWarning: free/busy data was unavailable for: %s. Slots may conflict with those calendars.\n",
			strings.Join(res.UnavailableCalendars, ", "))
	}

	return result
}

func handleFindMeetingSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	req, err := buildSlotRequest(args, sc.SchedulingConfig())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Resolve the client first so a missing token surfaces as the
	// authentication hint; the scheduler reuses the cached client.
	if _, err := getCalendarClient(account, sc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scheduler, err := sc.SchedulerForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create scheduler: %v", err)), nil
	}

	res, err := scheduler.FindSlots(ctx, req)
	if err != nil {
		if calendars, ok := scheduling.IsPartialData(err); ok {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Free/busy data unavailable for: %s. Retry with allowPartial=true to schedule around the remaining calendars.",
				strings.Join(calendars, ", "))), nil
		}
		if errors.Is(err, scheduling.ErrUpstreamUnavailable) {
			return mcp.NewToolResultError(fmt.Sprintf("Free/busy lookup failed: %v", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find meeting slots: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSlotsResult(res, req.Duration)), nil
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	timeMinStr, ok := args["timeMin"].(string)
	if !ok || timeMinStr == "" {
		return mcp.NewToolResultError("timeMin is required"), nil
	}
	timeMin, err := time.Parse(time.RFC3339, timeMinStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
	}

	timeMaxStr, ok := args["timeMax"].(string)
	if !ok || timeMaxStr == "" {
		return mcp.NewToolResultError("timeMax is required"), nil
	}
	timeMax, err := time.Parse(time.RFC3339, timeMaxStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax format: %v", err)), nil
	}

	calendarArgs, err := batch.ParseStringOrArray(args["calendarIds"], "calendarIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var calendars []string
	for _, entry := range calendarArgs {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.TrimSpace(id); id != "" {
				calendars = append(calendars, id)
			}
		}
	}
	if len(calendars) == 0 {
		return mcp.NewToolResultError("calendarIds cannot be empty"), nil
	}

	client, err := getCalendarClient(account, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	freeBusyInfos, err := client.QueryFreeBusy(ctx, timeMin, timeMax, calendars)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	result := fmt.Sprintf("Free/Busy information for %d calendar(s):\n\n", len(freeBusyInfos))
	for _, info := range freeBusyInfos {
		result += fmt.Sprintf("Calendar: %s\n", info.Calendar)

		if len(info.Errors) > 0 {
			result += fmt.Sprintf("  Errors: %s\n", strings.Join(info.Errors, ", "))
		}

		if len(info.Busy) == 0 {
			result += "  Status: FREE for entire range\n"
		} else {
			result += fmt.Sprintf("  Busy periods: %d\n", len(info.Busy))
			for i, busy := range info.Busy {
				result += fmt.Sprintf("  %d. %s to %s\n",
					i+1,
					busy.Start.Format("2006-01-02 15:04"),
					busy.End.Format("2006-01-02 15:04"))
			}
		}
		result += "\n"
	}

	return mcp.NewToolResultText(result), nil
}

func handleGetToday(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	loc := time.Local
	if tzVal, ok := args["timezone"].(string); ok && tzVal != "" {
		var err error
		loc, err = time.LoadLocation(tzVal)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Unknown timezone %q", tzVal)), nil
		}
	}

	now := time.Now().In(loc)
	payload := struct {
		Date     string `json:"date"`
		Weekday  string `json:"weekday"`
		Time     string `json:"time"`
		Timezone string `json:"timezone"`
	}{
		Date:     now.Format("2006-01-02"),
		Weekday:  now.Weekday().String(),
		Time:     now.Format("15:04"),
		Timezone: loc.String(),
	}

	data, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}
