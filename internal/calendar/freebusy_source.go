package calendar

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/meetfinder/internal/scheduling"
)

// SchedulerSource adapts a Client to the interfaces the scheduling
// engine consumes: it serves busy intervals per calendar and answers
// timezone questions. One source queries on behalf of one
// authenticated account; attendee calendars are visible to the extent
// they share free/busy data with that account.
type SchedulerSource struct {
	client *Client
}

// NewSchedulerSource wraps a calendar client for the scheduling
// engine.
func NewSchedulerSource(client *Client) *SchedulerSource {
	return &SchedulerSource{client: client}
}

var _ scheduling.FreeBusySource = (*SchedulerSource)(nil)

// FetchBusy returns the raw busy intervals of one calendar inside the
// window. A calendar the API reports errors for is unavailable, not
// free: silently treating it as an empty timeline would invent
// availability.
func (s *SchedulerSource) FetchBusy(ctx context.Context, calendarID string, window scheduling.TimeInterval) ([]scheduling.TimeInterval, error) {
	infos, err := s.client.QueryFreeBusy(ctx, window.Start, window.End, []string{calendarID})
	if err != nil {
		return nil, err
	}
	return busyFromInfos(infos, calendarID)
}

// CalendarTimezone returns the timezone declared on the calendar.
func (s *SchedulerSource) CalendarTimezone(ctx context.Context, calendarID string) (string, error) {
	return s.client.GetCalendarTimezone(ctx, calendarID)
}

// InferTimezone guesses the calendar's timezone from recent events.
func (s *SchedulerSource) InferTimezone(ctx context.Context, calendarID string) (string, error) {
	return s.client.InferTimezoneFromEvents(ctx, calendarID)
}

// busyFromInfos picks the answer for calendarID out of a free/busy
// response and converts it to engine intervals. Degenerate ranges the
// API should never send are skipped rather than failing the whole
// calendar.
func busyFromInfos(infos []FreeBusyInfo, calendarID string) ([]scheduling.TimeInterval, error) {
	for _, info := range infos {
		if info.Calendar != calendarID {
			continue
		}
		if len(info.Errors) > 0 {
			return nil, fmt.Errorf("calendar %s is not answerable: %s",
				calendarID, strings.Join(info.Errors, ", "))
		}

		intervals := make([]scheduling.TimeInterval, 0, len(info.Busy))
		for _, busy := range info.Busy {
			iv, err := scheduling.NewTimeInterval(busy.Start, busy.End)
			if err != nil {
				continue
			}
			intervals = append(intervals, iv)
		}
		return intervals, nil
	}
	return nil, fmt.Errorf("free/busy response has no answer for calendar %s", calendarID)
}
