package scheduling

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config carries the scheduler defaults and limits. Values come from
// the environment; command line flags may override them afterwards.
type Config struct {
	// MaxRangeDays caps the requested date span, counting both
	// boundary dates.
	MaxRangeDays int `env:"SCHEDULER_MAX_RANGE_DAYS" envDefault:"90"`

	// DefaultDurationMinutes is the slot length used when a request
	// does not specify one.
	DefaultDurationMinutes int `env:"SCHEDULER_DEFAULT_DURATION_MINUTES" envDefault:"30"`

	// DefaultEarliestHour and DefaultLatestHour bound the daily
	// working window when a request does not override it.
	DefaultEarliestHour int `env:"SCHEDULER_DEFAULT_EARLIEST_HOUR" envDefault:"9"`
	DefaultLatestHour   int `env:"SCHEDULER_DEFAULT_LATEST_HOUR" envDefault:"17"`

	// DefaultMaxSuggestions limits how many slots a request returns
	// when it does not ask for a specific count.
	DefaultMaxSuggestions int `env:"SCHEDULER_DEFAULT_MAX_SUGGESTIONS" envDefault:"5"`

	// SlotStepMinutes spaces candidate starts. Zero tiles candidates
	// back to back at the slot duration.
	SlotStepMinutes int `env:"SCHEDULER_SLOT_STEP_MINUTES" envDefault:"0"`

	// Workweek names the default weekday preset.
	Workweek string `env:"SCHEDULER_WORKWEEK" envDefault:"western"`

	// AllowPartialResults makes the scheduler answer with a partial
	// flag instead of failing when some calendars cannot be fetched.
	AllowPartialResults bool `env:"SCHEDULER_ALLOW_PARTIAL_RESULTS" envDefault:"false"`

	// FetchTimeout bounds each per-calendar free/busy fetch.
	FetchTimeout time.Duration `env:"SCHEDULER_FETCH_TIMEOUT" envDefault:"10s"`

	// TimezoneCacheSize sizes the calendar timezone LRU cache.
	TimezoneCacheSize int `env:"SCHEDULER_TIMEZONE_CACHE_SIZE" envDefault:"256"`
}

// NewConfig reads the scheduler configuration from the environment and
// validates it.
func NewConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse scheduler config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		MaxRangeDays:           90,
		DefaultDurationMinutes: 30,
		DefaultEarliestHour:    9,
		DefaultLatestHour:      17,
		DefaultMaxSuggestions:  5,
		Workweek:               WorkweekWestern,
		FetchTimeout:           10 * time.Second,
		TimezoneCacheSize:      256,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.MaxRangeDays < 1 {
		return fmt.Errorf("%w: max range days %d must be at least 1", ErrInvalidInput, c.MaxRangeDays)
	}
	if c.DefaultDurationMinutes < 1 {
		return fmt.Errorf("%w: default duration %d minutes must be positive", ErrInvalidInput, c.DefaultDurationMinutes)
	}
	hours := WorkingHours{EarliestHour: c.DefaultEarliestHour, LatestHour: c.DefaultLatestHour}
	if err := hours.Validate(); err != nil {
		return err
	}
	if c.DefaultMaxSuggestions < 0 {
		return fmt.Errorf("%w: default max suggestions %d must not be negative", ErrInvalidInput, c.DefaultMaxSuggestions)
	}
	if c.SlotStepMinutes < 0 {
		return fmt.Errorf("%w: slot step %d minutes must not be negative", ErrInvalidInput, c.SlotStepMinutes)
	}
	if _, err := WorkweekDays(c.Workweek); err != nil {
		return err
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch timeout %s must be positive", ErrInvalidInput, c.FetchTimeout)
	}
	if c.TimezoneCacheSize < 1 {
		return fmt.Errorf("%w: timezone cache size %d must be at least 1", ErrInvalidInput, c.TimezoneCacheSize)
	}
	return nil
}

// DefaultDuration returns the default slot length.
func (c Config) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

// SlotStep returns the configured candidate spacing; zero means tile
// by slot duration.
func (c Config) SlotStep() time.Duration {
	return time.Duration(c.SlotStepMinutes) * time.Minute
}

// DefaultDays returns the weekday set of the configured workweek
// preset.
func (c Config) DefaultDays() WeekdaySet {
	days, err := WorkweekDays(c.Workweek)
	if err != nil {
		return DefaultWorkweek()
	}
	return days
}

// DefaultHours returns the configured daily working window with the
// configured workweek days.
func (c Config) DefaultHours() WorkingHours {
	return WorkingHours{
		EarliestHour: c.DefaultEarliestHour,
		LatestHour:   c.DefaultLatestHour,
		Days:         c.DefaultDays(),
	}
}
