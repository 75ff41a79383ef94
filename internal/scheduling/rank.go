package scheduling

import (
	"sort"
	"time"
)

// RankCandidates filters candidates against the busy timeline, tags
// the ones inside the preferred window, and returns at most
// maxSuggestions slots. A candidate survives when it overlaps no busy
// interval; a slot that merely touches a busy boundary is free.
//
// Order is deterministic: preferred slots first, then earlier starts,
// with generation order breaking exact ties. The preferred window only
// reorders, it never rejects.
func RankCandidates(candidates []SlotCandidate, busy BusyTimeline, preferred *PreferredWindow, maxSuggestions int, loc *time.Location) []SlotCandidate {
	if maxSuggestions <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	free := make([]SlotCandidate, 0, len(candidates))
	for _, c := range candidates {
		if busy.Conflicts(c.Interval) {
			continue
		}
		c.MatchesPreferred = preferred != nil && preferred.ContainsSlot(c.Interval, loc)
		free = append(free, c)
	}

	sort.SliceStable(free, func(i, j int) bool {
		if free[i].MatchesPreferred != free[j].MatchesPreferred {
			return free[i].MatchesPreferred
		}
		return free[i].Interval.Start.Before(free[j].Interval.Start)
	})

	if len(free) > maxSuggestions {
		free = free[:maxSuggestions]
	}
	return free
}
