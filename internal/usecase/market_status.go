package usecase

import (
	"context"
	"fmt"
	"time"

	"FXCast/internal/domain/models"
	domrepo "FXCast/internal/domain/repository"
	"FXCast/pkg/logger"
	"FXCast/pkg/util"
)

const defaultLookaheadDays = 14

// MarketStatusReporter computes whether a market is trading and its next session boundary.
type MarketStatusReporter struct {
	calendar  domrepo.CalendarProvider
	fallback  domrepo.CalendarProvider
	timezones domrepo.TimezoneResolver
	failures  domrepo.FailureReporter
	log       *logger.Logger
	lookahead int
}

// NewMarketStatusReporter builds a reporter. fallback is the weekend-only calendar used
// when the tier has no calendar or the primary calendar fails.
func NewMarketStatusReporter(cal, fallback domrepo.CalendarProvider, tz domrepo.TimezoneResolver,
	failures domrepo.FailureReporter, log *logger.Logger, lookaheadDays int) *MarketStatusReporter {
	if lookaheadDays < 1 {
		lookaheadDays = defaultLookaheadDays
	}
	return &MarketStatusReporter{
		calendar:  cal,
		fallback:  fallback,
		timezones: tz,
		failures:  failures,
		log:       log,
		lookahead: lookaheadDays,
	}
}

// Status reports the session of market at instant. The returned session is always usable;
// a non-nil error explains why it is unknown. The next open is searched over lookahead days
// counting today.
func (r *MarketStatusReporter) Status(ctx context.Context, market string, instant time.Time, tier models.Tier) (models.MarketSession, error) {
	if !tier.HasTimezones() {
		return models.UnknownSession(market, ""), nil
	}

	zone, err := r.timezones.Resolve(market, instant)
	if err != nil {
		r.failures.ReportFailure(models.FailureTimezone)
		return models.UnknownSession(market, ""), fmt.Errorf("market %s: %w", market, err)
	}

	days := &sessionDays{
		ctx:      ctx,
		market:   market,
		fallback: r.fallback,
		onFailure: func(err error) {
			if ctx.Err() != nil {
				// the caller went away; the provider did not fail
				return
			}
			r.log.Warn("market calendar failed, using weekend rule", logger.String("market", market), logger.Error(err))
			r.failures.ReportFailure(models.FailureCalendar)
		},
	}
	if tier.HasCalendar() && r.calendar.Available() {
		days.primary = r.calendar
	}

	local := instant.In(zone.Location)
	today := util.CivilDate(local)
	session := models.MarketSession{
		Market:     market,
		TimezoneID: zone.ID,
		LocalTime:  local.Format(time.RFC3339),
	}

	now := models.ClockOf(local)
	if days.isBusiness(today) && now >= zone.SessionOpen && now < zone.SessionClose {
		closeAt := zone.SessionClose.On(today, zone.Location).UTC()
		session.Status = models.SessionOpen
		session.IsOpen = true
		session.NextTransitionInstant = &closeAt
		session.NextTransitionKind = models.TransitionClose
		return session, nil
	}

	session.Status = models.SessionClosed
	for offset := 0; offset < r.lookahead; offset++ {
		day := today.AddDate(0, 0, offset)
		if !days.isBusiness(day) {
			continue
		}
		openAt := zone.SessionOpen.On(day, zone.Location)
		if openAt.After(instant) {
			openAt = openAt.UTC()
			session.NextTransitionInstant = &openAt
			session.NextTransitionKind = models.TransitionOpen
			return session, nil
		}
	}

	unknown := models.UnknownSession(market, zone.ID)
	unknown.LocalTime = session.LocalTime
	return unknown, fmt.Errorf("market %s: %w within %d days", market, models.ErrNoUpcomingSession, r.lookahead)
}

// sessionDays answers business-day questions for one Status call. After the primary calendar
// fails once, the rest of the call uses the fallback.
type sessionDays struct {
	ctx       context.Context
	market    string
	primary   domrepo.CalendarProvider
	fallback  domrepo.CalendarProvider
	onFailure func(error)
}

func (d *sessionDays) isBusiness(day time.Time) bool {
	if d.primary != nil {
		ok, err := d.primary.IsBusinessDay(d.ctx, day, d.market)
		if err == nil {
			return ok
		}
		d.primary = nil
		d.onFailure(err)
	}
	ok, err := d.fallback.IsBusinessDay(d.ctx, day, d.market)
	if err != nil {
		return !util.IsWeekend(day)
	}
	return ok
}
