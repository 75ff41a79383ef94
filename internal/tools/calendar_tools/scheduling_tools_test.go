package calendar_tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/meetfinder/internal/scheduling"
)

func TestBuildSlotRequestDefaults(t *testing.T) {
	cfg := scheduling.DefaultConfig()
	args := map[string]interface{}{
		"attendees": "alice@example.com",
		"dateStart": "2025-03-10",
		"dateEnd":   "2025-03-14",
	}

	req, err := buildSlotRequest(args, cfg)
	if err != nil {
		t.Fatalf("buildSlotRequest() error = %v", err)
	}

	if len(req.Attendees) != 1 || req.Attendees[0].ID != "alice@example.com" {
		t.Errorf("Attendees = %v, want alice@example.com", req.Attendees)
	}
	if req.Duration != 30*time.Minute {
		t.Errorf("Duration = %v, want 30m", req.Duration)
	}
	if req.Dates.Start != (scheduling.Date{Year: 2025, Month: time.March, Day: 10}) {
		t.Errorf("Dates.Start = %v, want 2025-03-10", req.Dates.Start)
	}
	if req.Dates.End != (scheduling.Date{Year: 2025, Month: time.March, Day: 14}) {
		t.Errorf("Dates.End = %v, want 2025-03-14", req.Dates.End)
	}
	if req.Hours.EarliestHour != 9 || req.Hours.LatestHour != 17 {
		t.Errorf("Hours = %d-%d, want 9-17", req.Hours.EarliestHour, req.Hours.LatestHour)
	}
	if !req.Hours.Days.Contains(time.Monday) || req.Hours.Days.Contains(time.Saturday) {
		t.Errorf("Days = %v, want the western workweek", req.Hours.Days)
	}
	if req.Preferred != nil {
		t.Errorf("Preferred = %v, want nil", req.Preferred)
	}
	if req.MaxSuggestions != 5 {
		t.Errorf("MaxSuggestions = %d, want 5", req.MaxSuggestions)
	}
	if req.Timezone != "" {
		t.Errorf("Timezone = %q, want empty", req.Timezone)
	}
	if req.Step != 0 {
		t.Errorf("Step = %v, want 0", req.Step)
	}
	if req.AllowPartial {
		t.Error("AllowPartial should default to false")
	}
}

func TestBuildSlotRequestOverrides(t *testing.T) {
	cfg := scheduling.DefaultConfig()
	args := map[string]interface{}{
		"attendees":          []interface{}{"alice@example.com", "bob@example.com"},
		"durationMinutes":    float64(45),
		"dateStart":          "2025-03-10",
		"dateEnd":            "2025-03-14",
		"preferredTimeStart": "10:00",
		"preferredTimeEnd":   "12:30",
		"earliestHour":       float64(8),
		"latestHour":         float64(18),
		"maxSuggestions":     float64(3),
		"timezone":           "Europe/Berlin",
		"slotStepMinutes":    float64(15),
		"allowPartial":       true,
	}

	req, err := buildSlotRequest(args, cfg)
	if err != nil {
		t.Fatalf("buildSlotRequest() error = %v", err)
	}

	if len(req.Attendees) != 2 {
		t.Fatalf("got %d attendees, want 2", len(req.Attendees))
	}
	if req.Duration != 45*time.Minute {
		t.Errorf("Duration = %v, want 45m", req.Duration)
	}
	if req.Preferred == nil {
		t.Fatal("Preferred should be set")
	}
	if req.Preferred.Start != (scheduling.TimeOfDay{Hour: 10}) {
		t.Errorf("Preferred.Start = %v, want 10:00", req.Preferred.Start)
	}
	if req.Preferred.End != (scheduling.TimeOfDay{Hour: 12, Minute: 30}) {
		t.Errorf("Preferred.End = %v, want 12:30", req.Preferred.End)
	}
	if req.Hours.EarliestHour != 8 || req.Hours.LatestHour != 18 {
		t.Errorf("Hours = %d-%d, want 8-18", req.Hours.EarliestHour, req.Hours.LatestHour)
	}
	if req.MaxSuggestions != 3 {
		t.Errorf("MaxSuggestions = %d, want 3", req.MaxSuggestions)
	}
	if req.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want Europe/Berlin", req.Timezone)
	}
	if req.Step != 15*time.Minute {
		t.Errorf("Step = %v, want 15m", req.Step)
	}
	if !req.AllowPartial {
		t.Error("AllowPartial should be true")
	}
}

func TestBuildSlotRequestAttendeeForms(t *testing.T) {
	cfg := scheduling.DefaultConfig()

	tests := []struct {
		name      string
		attendees interface{}
		want      []string
	}{
		{
			name:      "single string",
			attendees: "alice@example.com",
			want:      []string{"alice@example.com"},
		},
		{
			name:      "comma separated string",
			attendees: "alice@example.com, bob@example.com",
			want:      []string{"alice@example.com", "bob@example.com"},
		},
		{
			name:      "array of strings",
			attendees: []interface{}{"alice@example.com", "bob@example.com"},
			want:      []string{"alice@example.com", "bob@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{
				"attendees": tt.attendees,
				"dateStart": "2025-03-10",
				"dateEnd":   "2025-03-10",
			}

			req, err := buildSlotRequest(args, cfg)
			if err != nil {
				t.Fatalf("buildSlotRequest() error = %v", err)
			}
			if len(req.Attendees) != len(tt.want) {
				t.Fatalf("got %d attendees, want %d", len(req.Attendees), len(tt.want))
			}
			for i, id := range tt.want {
				if req.Attendees[i].ID != id {
					t.Errorf("Attendees[%d] = %s, want %s", i, req.Attendees[i].ID, id)
				}
			}
		})
	}
}

func TestBuildSlotRequestWeekdays(t *testing.T) {
	cfg := scheduling.DefaultConfig()
	base := func() map[string]interface{} {
		return map[string]interface{}{
			"attendees": "alice@example.com",
			"dateStart": "2025-03-10",
			"dateEnd":   "2025-03-14",
		}
	}

	t.Run("workweek preset", func(t *testing.T) {
		args := base()
		args["workweek"] = "israel"

		req, err := buildSlotRequest(args, cfg)
		if err != nil {
			t.Fatalf("buildSlotRequest() error = %v", err)
		}
		if !req.Hours.Days.Contains(time.Sunday) || req.Hours.Days.Contains(time.Friday) {
			t.Errorf("Days = %v, want Sun-Thu", req.Hours.Days)
		}
	})

	t.Run("explicit weekday list", func(t *testing.T) {
		args := base()
		args["weekdays"] = []interface{}{"monday", "Wed"}

		req, err := buildSlotRequest(args, cfg)
		if err != nil {
			t.Fatalf("buildSlotRequest() error = %v", err)
		}
		if !req.Hours.Days.Contains(time.Monday) || !req.Hours.Days.Contains(time.Wednesday) {
			t.Errorf("Days = %v, want Mon and Wed", req.Hours.Days)
		}
		if req.Hours.Days.Contains(time.Tuesday) {
			t.Errorf("Days = %v, Tuesday should not be included", req.Hours.Days)
		}
	})

	t.Run("weekdays override workweek", func(t *testing.T) {
		args := base()
		args["workweek"] = "israel"
		args["weekdays"] = "saturday"

		req, err := buildSlotRequest(args, cfg)
		if err != nil {
			t.Fatalf("buildSlotRequest() error = %v", err)
		}
		if !req.Hours.Days.Contains(time.Saturday) || req.Hours.Days.Contains(time.Sunday) {
			t.Errorf("Days = %v, want Saturday only", req.Hours.Days)
		}
	})
}

func TestBuildSlotRequestErrors(t *testing.T) {
	cfg := scheduling.DefaultConfig()

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "missing attendees",
			args: map[string]interface{}{
				"dateStart": "2025-03-10",
				"dateEnd":   "2025-03-14",
			},
		},
		{
			name: "blank attendees",
			args: map[string]interface{}{
				"attendees": " , ",
				"dateStart": "2025-03-10",
				"dateEnd":   "2025-03-14",
			},
		},
		{
			name: "missing dateStart",
			args: map[string]interface{}{
				"attendees": "alice@example.com",
				"dateEnd":   "2025-03-14",
			},
		},
		{
			name: "bad date format",
			args: map[string]interface{}{
				"attendees": "alice@example.com",
				"dateStart": "03/10/2025",
				"dateEnd":   "2025-03-14",
			},
		},
		{
			name: "inverted date range",
			args: map[string]interface{}{
				"attendees": "alice@example.com",
				"dateStart": "2025-03-14",
				"dateEnd":   "2025-03-10",
			},
		},
		{
			name: "zero duration",
			args: map[string]interface{}{
				"attendees":       "alice@example.com",
				"dateStart":       "2025-03-10",
				"dateEnd":         "2025-03-14",
				"durationMinutes": float64(0),
			},
		},
		{
			name: "preferred start without end",
			args: map[string]interface{}{
				"attendees":          "alice@example.com",
				"dateStart":          "2025-03-10",
				"dateEnd":            "2025-03-14",
				"preferredTimeStart": "10:00",
			},
		},
		{
			name: "bad preferred time format",
			args: map[string]interface{}{
				"attendees":          "alice@example.com",
				"dateStart":          "2025-03-10",
				"dateEnd":            "2025-03-14",
				"preferredTimeStart": "10am",
				"preferredTimeEnd":   "12:00",
			},
		},
		{
			name: "unknown workweek",
			args: map[string]interface{}{
				"attendees": "alice@example.com",
				"dateStart": "2025-03-10",
				"dateEnd":   "2025-03-14",
				"workweek":  "mars",
			},
		},
		{
			name: "unknown weekday",
			args: map[string]interface{}{
				"attendees": "alice@example.com",
				"dateStart": "2025-03-10",
				"dateEnd":   "2025-03-14",
				"weekdays":  "moonday",
			},
		},
		{
			name: "negative slot step",
			args: map[string]interface{}{
				"attendees":       "alice@example.com",
				"dateStart":       "2025-03-10",
				"dateEnd":         "2025-03-14",
				"slotStepMinutes": float64(-5),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildSlotRequest(tt.args, cfg); err == nil {
				t.Error("buildSlotRequest() should fail")
			}
		})
	}
}

func TestFormatSlotsResult(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, berlin)

	t.Run("no slots", func(t *testing.T) {
		res := &scheduling.Result{Timezone: "Europe/Berlin"}

		out := formatSlotsResult(res, 30*time.Minute)
		if !strings.Contains(out, "No common free slots") {
			t.Errorf("output = %q, want a no-slots message", out)
		}
	})

	t.Run("slots with preferred marker", func(t *testing.T) {
		res := &scheduling.Result{
			Slots: []scheduling.Slot{
				{Start: start, End: start.Add(30 * time.Minute), MatchesPreferred: true},
				{Start: start.Add(2 * time.Hour), End: start.Add(2*time.Hour + 30*time.Minute)},
			},
			Timezone: "Europe/Berlin",
		}

		out := formatSlotsResult(res, 30*time.Minute)
		if !strings.Contains(out, "Found 2 meeting slot(s)") {
			t.Errorf("output = %q, want slot count", out)
		}
		if !strings.Contains(out, "Europe/Berlin") {
			t.Errorf("output = %q, want the timezone", out)
		}
		if !strings.Contains(out, "Mon, Mar 10 09:00 to 09:30 [preferred]") {
			t.Errorf("output = %q, want the first slot marked preferred", out)
		}
		if strings.Count(out, "[preferred]") != 1 {
			t.Errorf("output = %q, want exactly one preferred marker", out)
		}
	})

	t.Run("partial warning", func(t *testing.T) {
		res := &scheduling.Result{
			Timezone:             "UTC",
			Partial:              true,
			UnavailableCalendars: []string{"bob@example.com"},
		}

		out := formatSlotsResult(res, 30*time.Minute)
		if !strings.Contains(out, "unavailable for: bob@example.com") {
			t.Errorf("output = %q, want the partial warning", out)
		}
	})
}

func TestHandleFindMeetingSlotsValidation(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "missing attendees",
			args: map[string]interface{}{
				"dateStart": "2025-03-10",
				"dateEnd":   "2025-03-14",
			},
		},
		{
			name: "missing date range",
			args: map[string]interface{}{
				"attendees": "alice@example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      "calendar_find_meeting_slots",
					Arguments: tt.args,
				},
			}

			result, err := handleFindMeetingSlots(ctx, request, sc)
			if err != nil {
				t.Errorf("handleFindMeetingSlots() unexpected error = %v", err)
			}
			if result == nil || !result.IsError {
				t.Error("handleFindMeetingSlots() should return an error result")
			}
		})
	}
}

func TestHandleQueryFreeBusyValidation(t *testing.T) {
	ctx := context.Background()
	sc := newTestServerContext(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "missing timeMin",
			args: map[string]interface{}{
				"timeMax":     "2025-01-31T23:59:59Z",
				"calendarIds": "alice@example.com",
			},
		},
		{
			name: "invalid timeMax",
			args: map[string]interface{}{
				"timeMin":     "2025-01-01T00:00:00Z",
				"timeMax":     "soon",
				"calendarIds": "alice@example.com",
			},
		},
		{
			name: "missing calendarIds",
			args: map[string]interface{}{
				"timeMin": "2025-01-01T00:00:00Z",
				"timeMax": "2025-01-31T23:59:59Z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      "calendar_query_freebusy",
					Arguments: tt.args,
				},
			}

			result, err := handleQueryFreeBusy(ctx, request, sc)
			if err != nil {
				t.Errorf("handleQueryFreeBusy() unexpected error = %v", err)
			}
			if result == nil || !result.IsError {
				t.Error("handleQueryFreeBusy() should return an error result")
			}
		})
	}
}

func TestHandleGetToday(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit timezone", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "calendar_get_today",
				Arguments: map[string]interface{}{"timezone": "UTC"},
			},
		}

		result, err := handleGetToday(ctx, request)
		if err != nil {
			t.Fatalf("handleGetToday() unexpected error = %v", err)
		}
		if result == nil || result.IsError {
			t.Fatal("handleGetToday() should succeed for a valid timezone")
		}
		if len(result.Content) == 0 {
			t.Error("handleGetToday() returned empty content")
		}
	})

	t.Run("unknown timezone", func(t *testing.T) {
		request := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "calendar_get_today",
				Arguments: map[string]interface{}{"timezone": "Atlantis/Lost"},
			},
		}

		result, err := handleGetToday(ctx, request)
		if err != nil {
			t.Fatalf("handleGetToday() unexpected error = %v", err)
		}
		if result == nil || !result.IsError {
			t.Error("handleGetToday() should return an error result for an unknown timezone")
		}
	})
}
