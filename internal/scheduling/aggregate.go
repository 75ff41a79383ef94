package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/meetfinder/internal/logging"
)

// AggregateResult is the merged free/busy view across all attendee
// calendars inside the query window, together with the calendars that
// could not be fetched.
type AggregateResult struct {
	Busy        BusyTimeline
	Unavailable []string
}

// Complete reports whether every calendar answered.
func (r AggregateResult) Complete() bool {
	return len(r.Unavailable) == 0
}

// Aggregator fetches busy intervals for many calendars concurrently
// and folds them into one normalized timeline. It reports per-calendar
// fetch failures as data, not as errors; the caller decides whether a
// partial view is acceptable.
type Aggregator struct {
	source       FreeBusySource
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewAggregator creates an aggregator over the given source. Each
// per-calendar fetch is bounded by fetchTimeout.
func NewAggregator(source FreeBusySource, fetchTimeout time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		source:       source,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

type fetchOutcome struct {
	intervals []TimeInterval
	err       error
}

// Aggregate queries every calendar for busy intervals inside window
// and merges the answers into a single timeline. Intervals are clipped
// to the window and normalized to UTC before merging. Calendars whose
// fetch fails end up in Unavailable; an error is returned only when
// the input is invalid or ctx is done.
func (a *Aggregator) Aggregate(ctx context.Context, calendars []CalendarRef, window TimeInterval) (AggregateResult, error) {
	if len(calendars) == 0 {
		return AggregateResult{}, fmt.Errorf("%w: no calendars to aggregate", ErrInvalidInput)
	}
	if !window.Start.Before(window.End) {
		return AggregateResult{}, fmt.Errorf("%w: aggregation window %s is empty", ErrInvalidInput, window)
	}

	outcomes := make([]fetchOutcome, len(calendars))
	var wg sync.WaitGroup
	for i, cal := range calendars {
		wg.Add(1)
		go func(i int, cal CalendarRef) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
			defer cancel()
			intervals, err := a.source.FetchBusy(fetchCtx, cal.ID, window)
			outcomes[i] = fetchOutcome{intervals: intervals, err: err}
		}(i, cal)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return AggregateResult{}, err
	}

	var result AggregateResult
	var raw []TimeInterval
	for i, outcome := range outcomes {
		cal := calendars[i]
		if outcome.err != nil {
			a.logger.Warn("free/busy fetch failed",
				logging.Operation("freebusy.aggregate"),
				logging.CalendarHash(cal.ID),
				logging.Err(outcome.err))
			result.Unavailable = append(result.Unavailable, cal.ID)
			continue
		}
		for _, iv := range outcome.intervals {
			clipped, ok := iv.UTC().Clip(window.UTC())
			if !ok {
				continue
			}
			raw = append(raw, clipped)
		}
	}
	result.Busy = MergeIntervals(raw)

	a.logger.Debug("aggregated free/busy timelines",
		logging.Operation("freebusy.aggregate"),
		logging.Calendars(len(calendars)),
		slog.Int("busy_intervals", len(result.Busy)),
		slog.Int("unavailable", len(result.Unavailable)))
	return result, nil
}
