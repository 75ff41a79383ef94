package scheduling

import (
	"context"
	"fmt"
	"time"
)

// CalendarRef identifies one attendee calendar. For Google Calendar
// the ID is the attendee's email address. Timezone optionally carries
// the calendar's declared IANA timezone; when empty the scheduler
// resolves it. Only the first attendee's timezone governs working
// hours.
type CalendarRef struct {
	ID       string
	Timezone string
}

// FreeBusySource supplies raw busy intervals for a calendar inside a
// query window. Implementations may return intervals that extend past
// the window or in non-UTC locations; the aggregator normalizes them.
// A calendar the backend cannot answer for must surface as an error,
// not as an empty list.
type FreeBusySource interface {
	FetchBusy(ctx context.Context, calendarID string, window TimeInterval) ([]TimeInterval, error)
}

// TimezoneResolver maps a calendar ID to its IANA timezone location.
type TimezoneResolver interface {
	Resolve(ctx context.Context, calendarID string) (*time.Location, error)
}

// TimeOfDay is a wall-clock time without a date, used for preferred
// windows. The zero value is midnight.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// MinuteOfDay returns minutes since midnight.
func (t TimeOfDay) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.MinuteOfDay() < other.MinuteOfDay()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Date is a civil date with no time or timezone attached. It only
// becomes an instant when combined with a location via At.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the civil date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// At returns the instant at the given wall-clock hour and minute of
// this date in loc. An hour of 24 means midnight at the start of the
// next day.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// Weekday returns the day of week of the date.
func (d Date) Weekday() time.Weekday {
	return d.At(0, 0, time.UTC).Weekday()
}

// Next returns the following civil date.
func (d Date) Next() Date {
	return DateOf(d.At(0, 0, time.UTC).AddDate(0, 0, 1))
}

// After reports whether d is a later date than other.
func (d Date) After(other Date) bool {
	if d.Year != other.Year {
		return d.Year > other.Year
	}
	if d.Month != other.Month {
		return d.Month > other.Month
	}
	return d.Day > other.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateRange is an inclusive span of civil dates. Both boundary days
// contribute candidate slots.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange validates that end is not before start.
func NewDateRange(start, end Date) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: date range end %s is before start %s", ErrInvalidInput, end, start)
	}
	return DateRange{Start: start, End: end}, nil
}

// Days returns the number of calendar days in the range, counting both
// boundary dates.
func (r DateRange) Days() int {
	start := r.Start.At(0, 0, time.UTC)
	end := r.End.At(0, 0, time.UTC)
	return int(end.Sub(start)/(24*time.Hour)) + 1
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start, r.End)
}

// WorkingHours bounds candidate slots to a daily wall-clock window on
// a set of weekdays. The window runs [EarliestHour:00, LatestHour:00)
// in the target timezone; LatestHour may be 24 for end of day.
type WorkingHours struct {
	EarliestHour int
	LatestHour   int
	Days         WeekdaySet
}

// NewWorkingHours validates hour bounds. A nil day set falls back to
// the western workweek.
func NewWorkingHours(earliest, latest int, days WeekdaySet) (WorkingHours, error) {
	h := WorkingHours{EarliestHour: earliest, LatestHour: latest, Days: days}
	if err := h.Validate(); err != nil {
		return WorkingHours{}, err
	}
	if h.Days == nil {
		h.Days = DefaultWorkweek()
	}
	return h, nil
}

// Validate checks the hour invariants without touching the day set.
func (h WorkingHours) Validate() error {
	if h.EarliestHour < 0 || h.EarliestHour > 23 {
		return fmt.Errorf("%w: earliest hour %d must be between 0 and 23", ErrInvalidInput, h.EarliestHour)
	}
	if h.LatestHour < 1 || h.LatestHour > 24 {
		return fmt.Errorf("%w: latest hour %d must be between 1 and 24", ErrInvalidInput, h.LatestHour)
	}
	if h.EarliestHour >= h.LatestHour {
		return fmt.Errorf("%w: earliest hour %d must be before latest hour %d", ErrInvalidInput, h.EarliestHour, h.LatestHour)
	}
	return nil
}

// Window returns the length of the daily working window.
func (h WorkingHours) Window() time.Duration {
	return time.Duration(h.LatestHour-h.EarliestHour) * time.Hour
}

// PreferredWindow is a daily wall-clock range used to rank slots.
// Slots fully inside [Start, End) are preferred; the window never
// rejects a slot.
type PreferredWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewPreferredWindow validates that the window is non-empty.
func NewPreferredWindow(start, end TimeOfDay) (PreferredWindow, error) {
	if !start.Before(end) {
		return PreferredWindow{}, fmt.Errorf("%w: preferred window start %s must be before end %s", ErrInvalidInput, start, end)
	}
	return PreferredWindow{Start: start, End: end}, nil
}

// ContainsSlot reports whether the slot's wall-clock span in loc lies
// entirely inside the window. The slot end is measured from its start,
// so a slot running to midnight counts as ending at minute 1440 rather
// than wrapping to zero.
func (w PreferredWindow) ContainsSlot(slot TimeInterval, loc *time.Location) bool {
	local := slot.Start.In(loc)
	startMin := local.Hour()*60 + local.Minute()
	endMin := startMin + int(slot.Duration().Minutes())
	return startMin >= w.Start.MinuteOfDay() && endMin <= w.End.MinuteOfDay()
}

func (w PreferredWindow) String() string {
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}

// SlotCandidate is a proposed meeting slot. MatchesPreferred is set
// during ranking when the slot falls inside the preferred window.
type SlotCandidate struct {
	Interval         TimeInterval
	MatchesPreferred bool
}
