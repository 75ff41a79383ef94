package scheduling

import (
	"fmt"
	"time"
)

// GenerateCandidates expands a date range into candidate slots. Each
// working day contributes slots inside [EarliestHour, LatestHour) of
// the target location, tiled from the window start. With a zero step
// the slots sit back to back at the slot duration; a positive step
// spaces the slot starts instead, producing overlapping candidates
// when step < duration. Slots that would not fit the full duration
// before the window closes are dropped. Returned intervals are UTC;
// order is chronological.
func GenerateCandidates(dates DateRange, duration time.Duration, hours WorkingHours, step time.Duration, loc *time.Location) ([]SlotCandidate, error) {
	if loc == nil {
		loc = time.UTC
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: slot duration %s must be positive", ErrInvalidInput, duration)
	}
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	if duration > hours.Window() {
		return nil, fmt.Errorf("%w: slot duration %s exceeds the %s working window",
			ErrInvalidInput, duration, hours.Window())
	}
	if step <= 0 {
		step = duration
	}
	days := hours.Days
	if days == nil {
		days = DefaultWorkweek()
	}

	var candidates []SlotCandidate
	for d := dates.Start; !d.After(dates.End); d = d.Next() {
		if !days.Contains(d.Weekday()) {
			continue
		}
		windowStart := d.At(hours.EarliestHour, 0, loc)
		windowEnd := d.At(hours.LatestHour, 0, loc)
		for start := windowStart; !start.Add(duration).After(windowEnd); start = start.Add(step) {
			candidates = append(candidates, SlotCandidate{
				Interval: TimeInterval{Start: start.UTC(), End: start.Add(duration).UTC()},
			})
		}
	}
	return candidates, nil
}
