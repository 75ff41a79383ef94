package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is the set of weekdays on which meetings may be
// scheduled.
type WeekdaySet map[time.Weekday]bool

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	s := make(WeekdaySet, len(days))
	for _, d := range days {
		s[d] = true
	}
	return s
}

// Contains reports whether d is a working day.
func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s[d]
}

// Weekdays returns the member days in Sunday-first order.
func (s WeekdaySet) Weekdays() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s[d] {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, len(s))
	for _, d := range s.Weekdays() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// Workweek preset names. A preset picks the weekday set for a region's
// customary working week.
const (
	WorkweekWestern = "western"
	WorkweekIsrael  = "israel"
)

// DefaultWorkweek returns the western Monday through Friday workweek.
func DefaultWorkweek() WeekdaySet {
	return NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
}

// WorkweekDays resolves a workweek preset name to its weekday set.
func WorkweekDays(name string) (WeekdaySet, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case WorkweekWestern:
		return DefaultWorkweek(), nil
	case WorkweekIsrael:
		return NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday), nil
	default:
		return nil, fmt.Errorf("%w: unknown workweek %q (supported: %s, %s)",
			ErrInvalidInput, name, WorkweekWestern, WorkweekIsrael)
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday parses a single weekday name, accepting full names and
// three-letter abbreviations in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, s)
	}
	return d, nil
}

// ParseWeekdays parses a list of weekday names into a set.
func ParseWeekdays(names []string) (WeekdaySet, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: weekday list is empty", ErrInvalidInput)
	}
	s := make(WeekdaySet, len(names))
	for _, name := range names {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		s[d] = true
	}
	return s, nil
}
