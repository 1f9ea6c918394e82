package models

import "time"

// Anchor is the reference instant a horizon is measured from.
type Anchor struct {
	instant  time.Time
	timezone string
}

// NewAnchor builds an anchor; the instant is normalized to UTC.
func NewAnchor(instant time.Time, timezone string) Anchor {
	return Anchor{instant: instant.UTC(), timezone: timezone}
}

// Instant returns the anchor in UTC.
func (a Anchor) Instant() time.Time { return a.instant }

// Timezone returns the source timezone identifier.
func (a Anchor) Timezone() string { return a.timezone }

// HorizonRequest is the per-call "N days ahead" request.
type HorizonRequest struct {
	Pair            string
	Units           int
	UseBusinessDays bool
	Timezone        string
	Market          string // empty: derived from Pair
}

// ResolvedHorizon is the concrete target produced for a HorizonRequest.
type ResolvedHorizon struct {
	TargetInstant       time.Time
	CalendarDaysElapsed int
	BusinessDaysElapsed int
	TierUsed            Tier
	BusinessDaysApplied bool
	TimezoneApplied     string
	Market              string
	Location            *time.Location
}

// TargetDate returns the target's civil date in the applied zone.
func (h ResolvedHorizon) TargetDate() string {
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return h.TargetInstant.In(loc).Format(time.DateOnly)
}
