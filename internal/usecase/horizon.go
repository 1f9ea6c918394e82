package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FXCast/internal/domain/models"
	domrepo "FXCast/internal/domain/repository"
	"FXCast/pkg/logger"
	"FXCast/pkg/util"
)

// HorizonResolver turns "N days ahead" into a concrete target instant for the active tier.
type HorizonResolver struct {
	calendar  domrepo.CalendarProvider
	timezones domrepo.TimezoneResolver
	failures  domrepo.FailureReporter
	metrics   domrepo.Metrics
	log       *logger.Logger
	defaultTZ string
}

func NewHorizonResolver(cal domrepo.CalendarProvider, tz domrepo.TimezoneResolver, failures domrepo.FailureReporter,
	metrics domrepo.Metrics, log *logger.Logger, defaultTZ string) *HorizonResolver {
	return &HorizonResolver{
		calendar:  cal,
		timezones: tz,
		failures:  failures,
		metrics:   metrics,
		log:       log,
		defaultTZ: defaultTZ,
	}
}

// Resolve computes the target of req measured from anchor.
// Provider failures never surface: the result is degraded to a flat calendar-day horizon instead.
// A request whose context ended mid-lookup gets the context error and reports no failure.
func (h *HorizonResolver) Resolve(ctx context.Context, req models.HorizonRequest, anchor models.Anchor, tier models.Tier) (models.ResolvedHorizon, error) {
	if req.Units < 1 {
		return models.ResolvedHorizon{}, fmt.Errorf("%w: days must be at least 1, got %d", models.ErrInvalidRequest, req.Units)
	}
	market := req.Market
	if market == "" {
		market = MarketForPair(req.Pair)
	}

	tzID, loc, ok := h.zone(req.Timezone, anchor.Instant(), tier)
	if !ok {
		// requested zone unusable: serve the default zone on the BASIC path
		tier = models.TierBasic
	}

	if !req.UseBusinessDays || !tier.HasTimezones() {
		return flat(req.Units, anchor, loc, tzID, market, tier), nil
	}

	if !tier.HasCalendar() || !h.calendar.Available() {
		h.degraded("calendar_unavailable")
		return flat(req.Units, anchor, loc, tzID, market, models.TierBasic), nil
	}

	local := anchor.Instant().In(loc)
	date, err := h.calendar.AdvanceBusinessDays(ctx, util.CivilDate(local), req.Units, market)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRequest) {
			return models.ResolvedHorizon{}, err
		}
		if cerr := ctx.Err(); cerr != nil {
			return models.ResolvedHorizon{}, fmt.Errorf("resolve horizon %s: %w", market, cerr)
		}
		h.log.Warn("business-day calendar failed, serving calendar days",
			logger.String("market", market),
			logger.Int("days", req.Units),
			logger.Error(err),
		)
		h.failures.ReportFailure(models.FailureCalendar)
		h.degraded("calendar_failure")
		return flat(req.Units, anchor, loc, tzID, market, models.TierBasic), nil
	}

	// keep the anchor's local wall-clock time on the new date, whatever the DST offset there
	target := time.Date(date.Year(), date.Month(), date.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc)

	return models.ResolvedHorizon{
		TargetInstant:       target.UTC(),
		CalendarDaysElapsed: util.DaysBetween(local, date),
		BusinessDaysElapsed: req.Units,
		TierUsed:            tier,
		BusinessDaysApplied: true,
		TimezoneApplied:     tzID,
		Market:              market,
		Location:            loc,
	}, nil
}

// zone resolves the requested timezone, falling back to the default id.
// ok is false when the request could not be honored at the given tier.
func (h *HorizonResolver) zone(requested string, at time.Time, tier models.Tier) (string, *time.Location, bool) {
	if !tier.HasTimezones() {
		return h.defaultTZ, time.UTC, true
	}
	id := requested
	if id == "" {
		id = h.defaultTZ
	}
	z, err := h.timezones.Resolve(id, at)
	if err == nil {
		return id, z.Location, true
	}

	h.degraded("unknown_timezone")
	if id != h.defaultTZ {
		if z, derr := h.timezones.Resolve(h.defaultTZ, at); derr == nil {
			return h.defaultTZ, z.Location, false
		}
	}
	// the default zone itself failed: the resolver is broken
	h.log.Error("default timezone failed to resolve", logger.String("timezone", h.defaultTZ), logger.Error(err))
	h.failures.ReportFailure(models.FailureTimezone)
	return h.defaultTZ, time.UTC, false
}

func (h *HorizonResolver) degraded(kind string) {
	if h.metrics != nil {
		h.metrics.RecordDegradation(kind)
	}
}

func flat(units int, anchor models.Anchor, loc *time.Location, tzID, market string, tier models.Tier) models.ResolvedHorizon {
	target := anchor.Instant().In(loc).AddDate(0, 0, units)
	return models.ResolvedHorizon{
		TargetInstant:       target.UTC(),
		CalendarDaysElapsed: units,
		BusinessDaysElapsed: units,
		TierUsed:            tier,
		BusinessDaysApplied: false,
		TimezoneApplied:     tzID,
		Market:              market,
		Location:            loc,
	}
}
