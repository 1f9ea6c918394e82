package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FXCast/internal/domain/models"
	domrepo "FXCast/internal/domain/repository"
	"FXCast/internal/services/calendar"
	"FXCast/pkg/logger"
)

func newTestHorizon(t *testing.T, cal domrepo.CalendarProvider) (*HorizonResolver, *recordingReporter, *fakeMetrics) {
	t.Helper()
	rep := &recordingReporter{}
	m := newFakeMetrics()
	return NewHorizonResolver(cal, testTimezones(t), rep, m, logger.Nop(), "UTC"), rep, m
}

func TestHorizonFlatDays(t *testing.T) {
	h, _, _ := newTestHorizon(t, testCalendar())
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "UTC")

	for _, tier := range []models.Tier{models.TierBasic, models.TierTimezoneOnly, models.TierFull} {
		for units := 1; units <= 30; units++ {
			req := models.HorizonRequest{Pair: "USD/JPY", Units: units, Timezone: "UTC"}
			got, err := h.Resolve(context.Background(), req, anchor, tier)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got.CalendarDaysElapsed != units || got.BusinessDaysElapsed != units {
				t.Fatalf("%s units=%d: expected %d/%d, got %d/%d", tier, units, units, units,
					got.CalendarDaysElapsed, got.BusinessDaysElapsed)
			}
			if want := anchor.Instant().AddDate(0, 0, units); !got.TargetInstant.Equal(want) {
				t.Fatalf("%s units=%d: expected %v, got %v", tier, units, want, got.TargetInstant)
			}
			if got.BusinessDaysApplied || got.TierUsed != tier {
				t.Fatalf("unexpected flat horizon %+v", got)
			}
		}
	}
}

func TestHorizonBasicIgnoresBusinessDays(t *testing.T) {
	h, _, _ := newTestHorizon(t, testCalendar())
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "Tokyo")
	req := models.HorizonRequest{Pair: "USD/JPY", Units: 1, UseBusinessDays: true, Timezone: "Tokyo"}

	got, err := h.Resolve(context.Background(), req, anchor, models.TierBasic)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.BusinessDaysApplied || got.CalendarDaysElapsed != 1 || got.TimezoneApplied != "UTC" {
		t.Fatalf("expected flat UTC horizon at BASIC, got %+v", got)
	}
}

func TestHorizonBusinessDaysOverWeekend(t *testing.T) {
	h, _, _ := newTestHorizon(t, testCalendar())
	// Friday 09:00 in Tokyo
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "Tokyo")
	req := models.HorizonRequest{Pair: "USD/JPY", Units: 1, UseBusinessDays: true, Timezone: "Tokyo"}

	got, err := h.Resolve(context.Background(), req, anchor, models.TierFull)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Monday 09:00 in Tokyo
	if want := utc(2025, 10, 20, 0, 0); !got.TargetInstant.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got.TargetInstant)
	}
	if got.CalendarDaysElapsed != 3 || got.BusinessDaysElapsed != 1 {
		t.Fatalf("expected 3 calendar / 1 business, got %d/%d", got.CalendarDaysElapsed, got.BusinessDaysElapsed)
	}
	if !got.BusinessDaysApplied || got.TierUsed != models.TierFull || got.Market != "Tokyo" {
		t.Fatalf("unexpected horizon %+v", got)
	}
	if got.TargetDate() != "2025-10-20" {
		t.Fatalf("unexpected target date %s", got.TargetDate())
	}
}

func TestHorizonPreservesWallClockAcrossDST(t *testing.T) {
	h, _, _ := newTestHorizon(t, testCalendar())
	// Friday 2025-03-28 09:00 GMT; clocks go forward on Sunday 30th
	anchor := models.NewAnchor(utc(2025, 3, 28, 9, 0), "London")
	req := models.HorizonRequest{Pair: "EUR/USD", Units: 1, UseBusinessDays: true, Timezone: "London", Market: "London"}

	got, err := h.Resolve(context.Background(), req, anchor, models.TierFull)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Monday 09:00 BST is 08:00 UTC
	if want := utc(2025, 3, 31, 8, 0); !got.TargetInstant.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got.TargetInstant)
	}
	local := got.TargetInstant.In(got.Location)
	if local.Hour() != 9 || local.Minute() != 0 {
		t.Fatalf("expected 09:00 local, got %s", local.Format(time.Kitchen))
	}
}

func TestHorizonCalendarNeverBelowBusiness(t *testing.T) {
	h, _, _ := newTestHorizon(t, testCalendar())
	start := utc(2025, 4, 1, 3, 0)
	for i := 0; i < 60; i++ {
		anchor := models.NewAnchor(start.AddDate(0, 0, i), "Tokyo")
		for units := 1; units <= 10; units++ {
			req := models.HorizonRequest{Pair: "USD/JPY", Units: units, UseBusinessDays: true, Timezone: "Tokyo"}
			got, err := h.Resolve(context.Background(), req, anchor, models.TierFull)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got.CalendarDaysElapsed < got.BusinessDaysElapsed {
				t.Fatalf("calendar %d < business %d", got.CalendarDaysElapsed, got.BusinessDaysElapsed)
			}
		}
	}
}

func TestHorizonCalendarFailureDegrades(t *testing.T) {
	h, rep, m := newTestHorizon(t, &failingCalendar{})
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "Tokyo")
	req := models.HorizonRequest{Pair: "USD/JPY", Units: 1, UseBusinessDays: true, Timezone: "Tokyo"}

	got, err := h.Resolve(context.Background(), req, anchor, models.TierFull)
	if err != nil {
		t.Fatalf("provider failure must not surface: %v", err)
	}
	if got.TierUsed != models.TierBasic || got.BusinessDaysApplied {
		t.Fatalf("expected BASIC flat horizon, got %+v", got)
	}
	if got.CalendarDaysElapsed != 1 || got.TimezoneApplied != "Tokyo" {
		t.Fatalf("unexpected degraded horizon %+v", got)
	}
	if rep.count(models.FailureCalendar) != 1 {
		t.Fatalf("expected one calendar failure report, got %d", rep.count(models.FailureCalendar))
	}
	if m.degradations["calendar_failure"] != 1 {
		t.Fatalf("expected degradation metric")
	}
}

func TestHorizonTimezoneOnlyUsesCalendarDays(t *testing.T) {
	h, rep, _ := newTestHorizon(t, testCalendar())
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "Tokyo")
	req := models.HorizonRequest{Pair: "USD/JPY", Units: 1, UseBusinessDays: true, Timezone: "Tokyo"}

	got, err := h.Resolve(context.Background(), req, anchor, models.TierTimezoneOnly)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.BusinessDaysApplied || got.TierUsed != models.TierBasic {
		t.Fatalf("expected flat horizon served as BASIC, got %+v", got)
	}
	if want := utc(2025, 10, 18, 0, 0); !got.TargetInstant.Equal(want) {
		t.Fatalf("expected Saturday target %v, got %v", want, got.TargetInstant)
	}
	if len(rep.kinds) != 0 {
		t.Fatalf("no failure should be reported, got %v", rep.kinds)
	}
}

func TestHorizonUnknownTimezoneFallsBack(t *testing.T) {
	h, rep, _ := newTestHorizon(t, testCalendar())
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "Mars")
	req := models.HorizonRequest{Pair: "USD/JPY", Units: 1, UseBusinessDays: true, Timezone: "Mars"}

	got, err := h.Resolve(context.Background(), req, anchor, models.TierFull)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.TimezoneApplied != "UTC" || got.TierUsed != models.TierBasic || got.BusinessDaysApplied {
		t.Fatalf("expected UTC BASIC fallback, got %+v", got)
	}
	if len(rep.kinds) != 0 {
		t.Fatalf("an unknown user timezone is not a provider failure, got %v", rep.kinds)
	}
}

func TestHorizonRejectsNonPositiveUnits(t *testing.T) {
	h, _, _ := newTestHorizon(t, testCalendar())
	_, err := h.Resolve(context.Background(), models.HorizonRequest{Pair: "USD/JPY"}, models.NewAnchor(time.Now(), "UTC"), models.TierFull)
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestHorizonCancelledRequestKeepsTier(t *testing.T) {
	cal := calendar.NewGuarded(testCalendar(), time.Second)
	tz := testTimezones(t)
	tiers := NewTierSelector(cal, tz, 1)
	h := NewHorizonResolver(cal, tz, tiers, newFakeMetrics(), logger.Nop(), "UTC")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	anchor := models.NewAnchor(utc(2025, 10, 17, 0, 0), "Tokyo")
	req := models.HorizonRequest{Pair: "USD/JPY", Units: 1, UseBusinessDays: true, Timezone: "Tokyo"}

	_, err := h.Resolve(ctx, req, anchor, tiers.Current())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := tiers.Current(); got != models.TierFull {
		t.Fatalf("expected tier FULL after cancelled request, got %s", got)
	}
	if n := tiers.Status().CalendarFailures; n != 0 {
		t.Fatalf("expected no calendar failures, got %d", n)
	}
}
