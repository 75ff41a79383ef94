// Package scheduling implements the meeting slot finder engine.
//
// Given a set of attendee calendars, a date range, and working-hour
// constraints, the engine proposes conflict-free meeting slots. It is
// built from three pure components plus an orchestrator:
//
//   - Aggregator: fetches busy intervals for every attendee calendar
//     concurrently and merges them into a single normalized timeline.
//   - Candidate generation: expands the requested date range into
//     back-to-back candidate slots inside the working hours of the
//     target timezone.
//   - Ranking: drops candidates that overlap busy time, tags the ones
//     inside the preferred window, and orders the survivors.
//
// All engine times are UTC internally. Timezones only matter at the
// edges: working hours and the preferred window are interpreted as
// wall-clock times in the target timezone, and results are converted
// back for presentation.
//
// The engine itself performs no network I/O. Busy data comes from a
// FreeBusySource implementation; the Google Calendar backed one lives
// in the calendar package.
//
// Example usage:
//
//	sched := scheduling.NewScheduler(source, resolver, cfg, logger)
//	result, err := sched.FindSlots(ctx, scheduling.Request{
//	    Attendees: []scheduling.CalendarRef{{ID: "alice@example.com"}, {ID: "bob@example.com"}},
//	    Duration:  30 * time.Minute,
//	    DateRange: scheduling.DateRange{Start: start, End: end},
//	    Hours:     hours,
//	    MaxSuggestions: 5,
//	})
package scheduling
