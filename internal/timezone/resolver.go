// Package timezone resolves the IANA timezone of a calendar. It asks
// the calendar backend for the declared timezone first, falls back to
// inferring one from recent events, and finally answers UTC. Results
// are cached in a small LRU keyed by calendar ID.
package timezone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/teemow/meetfinder/internal/logging"
)

// Source answers timezone questions about a calendar. Both lookups
// may fail or return an empty name; the resolver treats either as a
// miss and moves to the next stage.
type Source interface {
	// CalendarTimezone returns the timezone declared on the calendar.
	CalendarTimezone(ctx context.Context, calendarID string) (string, error)

	// InferTimezone derives a timezone from the calendar's recent
	// events.
	InferTimezone(ctx context.Context, calendarID string) (string, error)
}

// Resolver caches calendar timezone lookups.
type Resolver struct {
	source Source
	cache  *lru.Cache[string, string]
	logger *slog.Logger
}

// NewResolver builds a resolver with an LRU cache of the given size.
func NewResolver(source Source, cacheSize int, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create timezone cache: %w", err)
	}
	return &Resolver{
		source: source,
		cache:  cache,
		logger: logger,
	}, nil
}

// Resolve returns the location to interpret the calendar's working
// hours in. It never fails: when neither the declared timezone nor
// event inference yields a loadable location the answer is UTC.
// Only successful lookups are cached, so a calendar that was briefly
// unreachable is retried on the next query.
func (r *Resolver) Resolve(ctx context.Context, calendarID string) (*time.Location, error) {
	if name, ok := r.cache.Get(calendarID); ok {
		loc, err := time.LoadLocation(name)
		if err == nil {
			return loc, nil
		}
		r.cache.Remove(calendarID)
	}

	if loc, name := r.lookup(ctx, calendarID); loc != nil {
		r.cache.Add(calendarID, name)
		return loc, nil
	}
	return time.UTC, nil
}

func (r *Resolver) lookup(ctx context.Context, calendarID string) (*time.Location, string) {
	name, err := r.source.CalendarTimezone(ctx, calendarID)
	if err != nil {
		r.logger.Debug("declared timezone lookup failed",
			logging.Operation("timezone.resolve"),
			logging.CalendarHash(calendarID),
			logging.Err(err))
	} else if loc := load(name); loc != nil {
		return loc, name
	}

	name, err = r.source.InferTimezone(ctx, calendarID)
	if err != nil {
		r.logger.Debug("timezone inference failed",
			logging.Operation("timezone.resolve"),
			logging.CalendarHash(calendarID),
			logging.Err(err))
		return nil, ""
	}
	if loc := load(name); loc != nil {
		return loc, name
	}
	return nil, ""
}

// load parses an IANA name, rejecting empty names and names Go cannot
// load. Google occasionally reports offsets like "GMT+05:30" that are
// no use for wall-clock scheduling, so those fall through to the next
// stage.
func load(name string) *time.Location {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	return loc
}
