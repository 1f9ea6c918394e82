package repository

import (
	"context"
	"time"

	"FXCast/internal/domain/models"
)

// CalendarProvider answers business-day questions for a market.
// Dates are civil dates carried as midnight UTC.
type CalendarProvider interface {
	IsBusinessDay(ctx context.Context, date time.Time, market string) (bool, error)
	AdvanceBusinessDays(ctx context.Context, date time.Time, count int, market string) (time.Time, error)
	Available() bool
}

// Zone is a resolved timezone with the session window of its market.
type Zone struct {
	ID            string
	Location      *time.Location
	OffsetMinutes int
	SessionOpen   models.Clock
	SessionClose  models.Clock
}

// TimezoneResolver maps market/timezone identifiers to zones.
type TimezoneResolver interface {
	Resolve(id string, at time.Time) (Zone, error)
	Available() bool
}

// FailureReporter receives provider failures; implemented by the tier selector.
type FailureReporter interface {
	ReportFailure(kind models.FailureKind)
}

// EventPublisher emits domain events to downstream consumers.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, ev models.PredictionEvent) error
	PublishTierChange(ctx context.Context, ev models.TierEvent) error
	Close() error
}

type Metrics interface {
	RecordPrediction(pair string, tier models.Tier)
	RecordDegradation(kind string)
	RecordTier(tier models.Tier)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
