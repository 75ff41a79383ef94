package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/meetfinder/internal/logging"
)

// Request describes one slot finding query. All fields are explicit;
// callers resolve defaults from Config before building a Request, so
// a MaxSuggestions of zero really means zero suggestions.
type Request struct {
	// Attendees lists the calendars that must all be free. The first
	// attendee is the organizer; their timezone governs working hours
	// unless Timezone overrides it.
	Attendees []CalendarRef

	// Duration is the exact meeting length.
	Duration time.Duration

	// Dates is the inclusive range of days to search.
	Dates DateRange

	// Hours bounds candidates to a daily wall-clock window and a set
	// of weekdays.
	Hours WorkingHours

	// Preferred optionally ranks slots inside a wall-clock window
	// first. It never filters.
	Preferred *PreferredWindow

	// MaxSuggestions caps the number of returned slots.
	MaxSuggestions int

	// Timezone optionally forces an IANA timezone instead of the
	// organizer's calendar timezone.
	Timezone string

	// Step spaces candidate starts; zero falls back to the configured
	// step, and a zero configured step tiles by Duration.
	Step time.Duration

	// AllowPartial accepts an answer built from incomplete free/busy
	// data when some calendars cannot be fetched.
	AllowPartial bool
}

// Slot is one suggested meeting time, expressed in the target
// timezone.
type Slot struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	MatchesPreferred bool      `json:"matchesPreferred"`
}

// Result is the answer to a slot finding query. An empty Slots list is
// a valid answer meaning no common free time exists in the range.
type Result struct {
	Slots    []Slot `json:"slots"`
	Timezone string `json:"timezone"`

	// Partial is set when the answer ignores calendars listed in
	// UnavailableCalendars because their busy data could not be
	// fetched.
	Partial              bool     `json:"partial,omitempty"`
	UnavailableCalendars []string `json:"unavailableCalendars,omitempty"`
}

// Scheduler orchestrates free/busy aggregation, candidate generation,
// and ranking into a single slot finding operation.
type Scheduler struct {
	aggregator *Aggregator
	resolver   TimezoneResolver
	cfg        Config
	logger     *slog.Logger
}

// NewScheduler wires a scheduler over the given free/busy source.
// resolver may be nil, in which case unresolved timezones fall back to
// UTC.
func NewScheduler(source FreeBusySource, resolver TimezoneResolver, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		aggregator: NewAggregator(source, cfg.FetchTimeout, logger),
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger,
	}
}

// Config returns the scheduler defaults and limits, so request
// builders can fill in unset fields.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// FindSlots runs one scheduling query: it resolves the target
// timezone, aggregates busy data across all attendees, generates
// candidates inside working hours, and ranks them.
//
// Invalid requests fail with ErrInvalidInput. When busy data for some
// calendars cannot be fetched the behavior depends on
// Request.AllowPartial: a PartialDataError, or a degraded Result with
// Partial set. If no calendar can be fetched at all the query fails
// with ErrUpstreamUnavailable regardless of AllowPartial.
func (s *Scheduler) FindSlots(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	loc, err := s.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}

	window := TimeInterval{
		Start: req.Dates.Start.At(0, 0, loc).UTC(),
		End:   req.Dates.End.Next().At(0, 0, loc).UTC(),
	}

	agg, err := s.aggregator.Aggregate(ctx, req.Attendees, window)
	if err != nil {
		return nil, err
	}
	if len(agg.Unavailable) == len(req.Attendees) {
		return nil, fmt.Errorf("%w: all calendars failed: %s",
			ErrUpstreamUnavailable, strings.Join(agg.Unavailable, ", "))
	}
	if !agg.Complete() && !req.AllowPartial {
		return nil, &PartialDataError{Calendars: agg.Unavailable}
	}

	step := req.Step
	if step <= 0 {
		step = s.cfg.SlotStep()
	}
	candidates, err := GenerateCandidates(req.Dates, req.Duration, req.Hours, step, loc)
	if err != nil {
		return nil, err
	}

	ranked := RankCandidates(candidates, agg.Busy, req.Preferred, req.MaxSuggestions, loc)

	result := &Result{
		Slots:                make([]Slot, 0, len(ranked)),
		Timezone:             loc.String(),
		Partial:              !agg.Complete(),
		UnavailableCalendars: agg.Unavailable,
	}
	for _, c := range ranked {
		result.Slots = append(result.Slots, Slot{
			Start:            c.Interval.Start.In(loc),
			End:              c.Interval.End.In(loc),
			MatchesPreferred: c.MatchesPreferred,
		})
	}

	s.logger.Info("scheduling query complete",
		logging.Operation("scheduler.find_slots"),
		logging.Calendars(len(req.Attendees)),
		logging.Slots(len(result.Slots)),
		logging.Timezone(result.Timezone),
		logging.Partial(result.Partial),
		slog.Int("candidates", len(candidates)))
	return result, nil
}

func (s *Scheduler) validate(req Request) error {
	if len(req.Attendees) == 0 {
		return fmt.Errorf("%w: at least one attendee calendar is required", ErrInvalidInput)
	}
	for _, cal := range req.Attendees {
		if cal.ID == "" {
			return fmt.Errorf("%w: attendee calendar ID is empty", ErrInvalidInput)
		}
	}
	if req.Duration <= 0 {
		return fmt.Errorf("%w: meeting duration %s must be positive", ErrInvalidInput, req.Duration)
	}
	if err := req.Hours.Validate(); err != nil {
		return err
	}
	if req.Duration > req.Hours.Window() {
		return fmt.Errorf("%w: meeting duration %s exceeds the %s working window",
			ErrInvalidInput, req.Duration, req.Hours.Window())
	}
	if req.Dates.Start.After(req.Dates.End) {
		return fmt.Errorf("%w: date range end %s is before start %s",
			ErrInvalidInput, req.Dates.End, req.Dates.Start)
	}
	if days := req.Dates.Days(); days > s.cfg.MaxRangeDays {
		return fmt.Errorf("%w: date range spans %d days, limit is %d",
			ErrInvalidInput, days, s.cfg.MaxRangeDays)
	}
	if req.MaxSuggestions < 0 {
		return fmt.Errorf("%w: max suggestions %d must not be negative", ErrInvalidInput, req.MaxSuggestions)
	}
	if req.Step < 0 {
		return fmt.Errorf("%w: slot step %s must not be negative", ErrInvalidInput, req.Step)
	}
	return nil
}

// resolveLocation picks the timezone for working hours: an explicit
// request override wins, then the organizer calendar's declared
// timezone, then the resolver's answer, then UTC.
func (s *Scheduler) resolveLocation(ctx context.Context, req Request) (*time.Location, error) {
	if req.Timezone != "" {
		loc, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, req.Timezone)
		}
		return loc, nil
	}

	organizer := req.Attendees[0]
	if organizer.Timezone != "" {
		loc, err := time.LoadLocation(organizer.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q for calendar %s",
				ErrInvalidInput, organizer.Timezone, organizer.ID)
		}
		return loc, nil
	}

	if s.resolver != nil {
		loc, err := s.resolver.Resolve(ctx, organizer.ID)
		if err == nil && loc != nil {
			return loc, nil
		}
		// Timezone resolution is best effort; scheduling still works
		// in UTC.
		s.logger.Warn("timezone resolution failed, falling back to UTC",
			logging.Operation("scheduler.resolve_timezone"),
			logging.CalendarHash(organizer.ID),
			logging.Err(err))
	}
	return time.UTC, nil
}
