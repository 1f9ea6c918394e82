package models

import "errors"

// Error kinds of the resolution engine. Only ErrInvalidRequest ever reaches a caller;
// the others are recovered through tier demotion or field defaulting.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrCalendarUnavailable = errors.New("calendar unavailable")
	ErrUnknownTimezone     = errors.New("unknown timezone")
	ErrNoUpcomingSession   = errors.New("no upcoming session")
)

// ErrorKind returns the wire name for one of the engine's error kinds.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrCalendarUnavailable):
		return "CalendarUnavailable"
	case errors.Is(err, ErrUnknownTimezone):
		return "UnknownTimezone"
	case errors.Is(err, ErrNoUpcomingSession):
		return "NoUpcomingSession"
	default:
		return "Internal"
	}
}
