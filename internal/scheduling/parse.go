package scheduling

import (
	"fmt"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timeOfDayLayout = "15:04"
)

// ParseDate parses a civil date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

// ParseDateRange parses an inclusive date range from two YYYY-MM-DD
// strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// ParseTimeOfDay parses a wall-clock time in HH:MM form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParsePreferredWindow parses an optional preferred window from its
// two HH:MM bounds. Both must be given or both empty; an empty pair
// yields nil.
func ParsePreferredWindow(start, end string) (*PreferredWindow, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: preferred window needs both start and end times", ErrInvalidInput)
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return nil, err
	}
	w, err := NewPreferredWindow(s, e)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
