package calendar

import (
	"testing"
	"time"
)

func TestBusyFromInfos(t *testing.T) {
	morning := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

	t.Run("converts busy ranges", func(t *testing.T) {
		infos := []FreeBusyInfo{
			{
				Calendar: "alice@example.com",
				Busy: []TimeRange{
					{Start: morning, End: morning.Add(time.Hour)},
					{Start: morning.Add(3 * time.Hour), End: morning.Add(4 * time.Hour)},
				},
			},
		}

		intervals, err := busyFromInfos(infos, "alice@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(intervals) != 2 {
			t.Fatalf("expected 2 intervals, got %d", len(intervals))
		}
		if !intervals[0].Start.Equal(morning) {
			t.Errorf("expected first interval at %v, got %v", morning, intervals[0].Start)
		}
	})

	t.Run("empty busy list is a valid answer", func(t *testing.T) {
		infos := []FreeBusyInfo{{Calendar: "alice@example.com"}}

		intervals, err := busyFromInfos(infos, "alice@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(intervals) != 0 {
			t.Errorf("expected no intervals, got %d", len(intervals))
		}
	})

	t.Run("api reported errors fail the calendar", func(t *testing.T) {
		infos := []FreeBusyInfo{
			{
				Calendar: "hidden@example.com",
				Errors:   []string{"notFound"},
			},
		}

		_, err := busyFromInfos(infos, "hidden@example.com")
		if err == nil {
			t.Fatal("expected an error for a calendar the API cannot answer for")
		}
	})

	t.Run("missing calendar in response is an error", func(t *testing.T) {
		infos := []FreeBusyInfo{{Calendar: "other@example.com"}}

		_, err := busyFromInfos(infos, "alice@example.com")
		if err == nil {
			t.Fatal("expected an error when the response skips the calendar")
		}
	})

	t.Run("degenerate ranges are skipped", func(t *testing.T) {
		infos := []FreeBusyInfo{
			{
				Calendar: "alice@example.com",
				Busy: []TimeRange{
					{Start: morning, End: morning},
					{Start: morning, End: morning.Add(time.Hour)},
				},
			},
		}

		intervals, err := busyFromInfos(infos, "alice@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(intervals) != 1 {
			t.Errorf("expected the zero-length range to be dropped, got %d intervals", len(intervals))
		}
	})
}
