package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"FXCast/internal/domain/models"
	domrepo "FXCast/internal/domain/repository"
	"FXCast/pkg/logger"

	"github.com/google/uuid"
)

// TierListener observes a demotion. It runs on the goroutine that caused it.
type TierListener func(from, to models.Tier, reason models.FailureKind)

// TierStatus is a snapshot of the selector for diagnostics.
type TierStatus struct {
	Tier              models.Tier `json:"tier"`
	CalendarAvailable bool        `json:"calendar_available"`
	TimezoneAvailable bool        `json:"timezone_available"`
	FailureThreshold  int         `json:"failure_threshold"`
	CalendarFailures  int64       `json:"calendar_failures"`
	TimezoneFailures  int64       `json:"timezone_failures"`
}

// TierSelector holds the process-wide capability tier. The register only moves down.
type TierSelector struct {
	current   atomic.Int32
	calendar  domrepo.CalendarProvider
	timezones domrepo.TimezoneResolver
	threshold int64
	failures  map[models.FailureKind]*atomic.Int64
	listeners []TierListener
}

// NewTierSelector starts at the highest tier the providers support.
// threshold is the number of failures of one kind per demotion step; 0 disables demotion.
func NewTierSelector(cal domrepo.CalendarProvider, tz domrepo.TimezoneResolver, threshold int, listeners ...TierListener) *TierSelector {
	s := &TierSelector{
		calendar:  cal,
		timezones: tz,
		threshold: int64(threshold),
		failures: map[models.FailureKind]*atomic.Int64{
			models.FailureCalendar: new(atomic.Int64),
			models.FailureTimezone: new(atomic.Int64),
		},
		listeners: listeners,
	}
	start, _ := s.ceiling()
	s.current.Store(int32(start))
	return s
}

// ceiling is the highest tier the providers currently allow.
func (s *TierSelector) ceiling() (models.Tier, models.FailureKind) {
	if s.timezones == nil || !s.timezones.Available() {
		return models.TierBasic, models.FailureTimezone
	}
	if s.calendar == nil || !s.calendar.Available() {
		return models.TierTimezoneOnly, models.FailureCalendar
	}
	return models.TierFull, ""
}

// Current returns the active tier, lowering it first if a provider stopped being available.
func (s *TierSelector) Current() models.Tier {
	limit, reason := s.ceiling()
	for {
		cur := models.Tier(s.current.Load())
		if cur <= limit {
			return cur
		}
		if s.current.CompareAndSwap(int32(cur), int32(limit)) {
			s.notify(cur, limit, reason)
			return limit
		}
	}
}

// ReportFailure records a provider failure and demotes one level every threshold failures.
// Demotion at BASIC is a no-op.
func (s *TierSelector) ReportFailure(kind models.FailureKind) {
	if s.threshold <= 0 {
		return
	}
	counter, ok := s.failures[kind]
	if !ok {
		return
	}
	if n := counter.Add(1); n%s.threshold != 0 {
		return
	}
	for {
		cur := models.Tier(s.current.Load())
		if cur == models.TierBasic {
			return
		}
		next := cur.Lower()
		if s.current.CompareAndSwap(int32(cur), int32(next)) {
			s.notify(cur, next, kind)
			return
		}
	}
}

// Status returns a snapshot for the tier endpoint.
func (s *TierSelector) Status() TierStatus {
	return TierStatus{
		Tier:              s.Current(),
		CalendarAvailable: s.calendar != nil && s.calendar.Available(),
		TimezoneAvailable: s.timezones != nil && s.timezones.Available(),
		FailureThreshold:  int(s.threshold),
		CalendarFailures:  s.failures[models.FailureCalendar].Load(),
		TimezoneFailures:  s.failures[models.FailureTimezone].Load(),
	}
}

func (s *TierSelector) notify(from, to models.Tier, reason models.FailureKind) {
	for _, l := range s.listeners {
		l(from, to, reason)
	}
}

// LogTierChanges logs every demotion.
func LogTierChanges(log *logger.Logger) TierListener {
	return func(from, to models.Tier, reason models.FailureKind) {
		log.Warn("capability tier demoted",
			logger.String("from", from.String()),
			logger.String("to", to.String()),
			logger.String("reason", string(reason)),
		)
	}
}

// RecordTierChanges keeps the tier gauge current.
func RecordTierChanges(m domrepo.Metrics) TierListener {
	return func(_, to models.Tier, _ models.FailureKind) {
		m.RecordTier(to)
	}
}

// PublishTierChanges emits a tier event per demotion. The write runs on its own goroutine
// so the request that triggered the demotion never waits on the broker.
func PublishTierChanges(events domrepo.EventPublisher, log *logger.Logger) TierListener {
	return func(from, to models.Tier, reason models.FailureKind) {
		ev := models.TierEvent{
			ID:     uuid.NewString(),
			From:   from,
			To:     to,
			Reason: reason,
			At:     time.Now().UTC(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := events.PublishTierChange(ctx, ev); err != nil {
				log.Error("publish tier event failed", logger.String("event_id", ev.ID), logger.Error(err))
			}
		}()
	}
}
