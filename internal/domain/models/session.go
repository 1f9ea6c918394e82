package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TransitionKind is the kind of the next session boundary.
type TransitionKind string

const (
	TransitionOpen  TransitionKind = "OPEN"
	TransitionClose TransitionKind = "CLOSE"
)

// SessionStatus summarizes a MarketSession for display.
type SessionStatus string

const (
	SessionOpen    SessionStatus = "open"
	SessionClosed  SessionStatus = "closed"
	SessionUnknown SessionStatus = "unknown"
)

// MarketSession describes whether a market is trading at an instant and when that changes.
type MarketSession struct {
	Market                string         `json:"market"`
	TimezoneID            string         `json:"timezone_id"`
	Status                SessionStatus  `json:"market_status"`
	IsOpen                bool           `json:"is_open"`
	LocalTime             string         `json:"local_time,omitempty"`
	NextTransitionInstant *time.Time     `json:"next_transition_instant,omitempty"`
	NextTransitionKind    TransitionKind `json:"next_transition_kind,omitempty"`
}

// UnknownSession is the degraded market_info used when status cannot be computed.
func UnknownSession(market, timezoneID string) MarketSession {
	return MarketSession{Market: market, TimezoneID: timezoneID, Status: SessionUnknown}
}

// Clock is a local wall-clock time of day in minutes after midnight. 24:00 is allowed as a close.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for constants.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the wall-clock minute of t in its own location.
func ClockOf(t time.Time) Clock { return Clock(t.Hour()*60 + t.Minute()) }

// On returns the instant this clock reads on the civil date of day in loc.
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, int(c), 0, 0, loc)
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }
