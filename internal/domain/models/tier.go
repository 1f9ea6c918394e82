package models

import (
	"fmt"
	"strings"
)

// Tier is the active feature level governing calendar/timezone precision.
// Higher values carry more capability; demotion only ever lowers the value.
type Tier int32

const (
	TierBasic Tier = iota
	TierTimezoneOnly
	TierFull
)

// String returns the wire name of the tier.
func (t Tier) String() string {
	switch t {
	case TierFull:
		return "FULL"
	case TierTimezoneOnly:
		return "TIMEZONE_ONLY"
	case TierBasic:
		return "BASIC"
	default:
		return fmt.Sprintf("TIER(%d)", int32(t))
	}
}

// ConfidenceDelta is added to the raw confidence of predictions served at this tier.
func (t Tier) ConfidenceDelta() float64 {
	if t == TierFull {
		return 0.05
	}
	return 0
}

// HasTimezones reports whether the tier resolves timezones.
func (t Tier) HasTimezones() bool { return t >= TierTimezoneOnly }

// HasCalendar reports whether the tier consults a business-day calendar.
func (t Tier) HasCalendar() bool { return t >= TierFull }

// Lower returns the tier one level below t, saturating at BASIC.
func (t Tier) Lower() Tier {
	if t <= TierBasic {
		return TierBasic
	}
	return t - 1
}

// MinTier returns the lower of two tiers.
func MinTier(a, b Tier) Tier {
	if a < b {
		return a
	}
	return b
}

// MarshalText renders the tier name in JSON payloads.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier parses a tier name (case-insensitive).
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FULL":
		return TierFull, nil
	case "TIMEZONE_ONLY":
		return TierTimezoneOnly, nil
	case "BASIC":
		return TierBasic, nil
	}
	return TierBasic, fmt.Errorf("unknown tier %q", s)
}

// FailureKind classifies provider failures reported to the tier selector.
type FailureKind string

const (
	FailureCalendar FailureKind = "calendar"
	FailureTimezone FailureKind = "timezone"
)
