package scheduling

import (
	"fmt"
	"sort"
	"time"
)

// TimeInterval is a half-open time span [Start, End) on the UTC
// timeline. Start is always strictly before End.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeInterval builds an interval and rejects zero-length or
// inverted spans.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if !start.Before(end) {
		return TimeInterval{}, fmt.Errorf("%w: interval start %s must be before end %s",
			ErrInvalidInput, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeInterval{Start: start, End: end}, nil
}

// Duration returns the length of the interval.
func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// UTC normalizes both endpoints to the UTC location.
func (i TimeInterval) UTC() TimeInterval {
	return TimeInterval{Start: i.Start.UTC(), End: i.End.UTC()}
}

// In converts both endpoints to the given location. The instants are
// unchanged, only the wall-clock representation moves.
func (i TimeInterval) In(loc *time.Location) TimeInterval {
	return TimeInterval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

// Overlaps reports whether two half-open intervals share any time.
// Touching endpoints do not overlap: [9:00, 10:00) and [10:00, 11:00)
// are disjoint.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Contains reports whether t falls inside the interval.
func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Clip intersects the interval with bounds. The second return value is
// false when the intersection is empty.
func (i TimeInterval) Clip(bounds TimeInterval) (TimeInterval, bool) {
	start, end := i.Start, i.End
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if !start.Before(end) {
		return TimeInterval{}, false
	}
	return TimeInterval{Start: start, End: end}, true
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// BusyTimeline is a merged free/busy view: intervals are sorted by
// start and strictly disjoint, so every interval's end is at or before
// the next interval's start.
type BusyTimeline []TimeInterval

// MergeIntervals collapses an arbitrary set of intervals into a
// BusyTimeline. Overlapping and touching intervals are unioned into
// one. The input slice is not modified.
func MergeIntervals(intervals []TimeInterval) BusyTimeline {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]TimeInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(a, b int) bool {
		if !sorted[a].Start.Equal(sorted[b].Start) {
			return sorted[a].Start.Before(sorted[b].Start)
		}
		return sorted[a].End.Before(sorted[b].End)
	})

	merged := BusyTimeline{sorted[0]}
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		// Touching intervals merge too: busy until 10:00 plus busy
		// from 10:00 is one continuous block.
		if !next.Start.After(last.End) {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// Conflicts reports whether the candidate overlaps any busy interval.
// The timeline is sorted, so a binary search finds the only interval
// that could collide.
func (t BusyTimeline) Conflicts(candidate TimeInterval) bool {
	idx := sort.Search(len(t), func(i int) bool {
		return t[i].End.After(candidate.Start)
	})
	return idx < len(t) && t[idx].Start.Before(candidate.End)
}

// TotalBusy returns the summed length of all busy intervals.
func (t BusyTimeline) TotalBusy() time.Duration {
	var total time.Duration
	for _, iv := range t {
		total += iv.Duration()
	}
	return total
}
