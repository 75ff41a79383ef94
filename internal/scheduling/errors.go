package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks request validation failures. Errors wrapping
// it describe the offending field and value.
var ErrInvalidInput = errors.New("invalid input")

// ErrUpstreamUnavailable is returned when no attendee calendar could
// be queried at all, so no scheduling answer is possible.
var ErrUpstreamUnavailable = errors.New("free/busy source unavailable")

// PartialDataError reports that busy data for some calendars could not
// be fetched. The scheduler returns it when partial results are not
// allowed; callers can inspect Calendars to see which attendees are
// missing.
type PartialDataError struct {
	Calendars []string
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("free/busy data unavailable for %d calendar(s): %s",
		len(e.Calendars), strings.Join(e.Calendars, ", "))
}

// IsPartialData reports whether err is a PartialDataError and returns
// the affected calendar IDs.
func IsPartialData(err error) ([]string, bool) {
	var pErr *PartialDataError
	if errors.As(err, &pErr) {
		return pErr.Calendars, true
	}
	return nil, false
}
