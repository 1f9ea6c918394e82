package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"FXCast/internal/domain/models"
	domrepo "FXCast/internal/domain/repository"
	"FXCast/internal/services/calendar"
	"FXCast/internal/services/timezone"
)

type fakeMetrics struct {
	mu           sync.Mutex
	predictions  map[string]int
	degradations map[string]int
	errors       map[string]int
	tier         models.Tier
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{predictions: map[string]int{}, degradations: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(pair string, tier models.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[pair+"|"+tier.String()]++
}

func (m *fakeMetrics) RecordDegradation(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degradations[kind]++
}

func (m *fakeMetrics) RecordTier(tier models.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tier = tier
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type recordingReporter struct {
	mu    sync.Mutex
	kinds []models.FailureKind
}

func (r *recordingReporter) ReportFailure(kind models.FailureKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recordingReporter) count(kind models.FailureKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

// failingCalendar claims availability but errors on every call.
type failingCalendar struct {
	calls atomic.Int32
}

func (f *failingCalendar) IsBusinessDay(context.Context, time.Time, string) (bool, error) {
	f.calls.Add(1)
	return false, models.ErrCalendarUnavailable
}

func (f *failingCalendar) AdvanceBusinessDays(context.Context, time.Time, int, string) (time.Time, error) {
	f.calls.Add(1)
	return time.Time{}, models.ErrCalendarUnavailable
}

func (f *failingCalendar) Available() bool { return true }

// closedCalendar has no business days at all.
type closedCalendar struct{}

func (closedCalendar) IsBusinessDay(context.Context, time.Time, string) (bool, error) { return false, nil }
func (closedCalendar) AdvanceBusinessDays(context.Context, time.Time, int, string) (time.Time, error) {
	return time.Time{}, models.ErrCalendarUnavailable
}
func (closedCalendar) Available() bool { return true }

// toggle is a provider whose availability can be flipped by the test.
type toggle struct {
	up atomic.Bool
}

func newToggle(up bool) *toggle {
	t := &toggle{}
	t.up.Store(up)
	return t
}

func (t *toggle) Available() bool { return t.up.Load() }

func (t *toggle) IsBusinessDay(context.Context, time.Time, string) (bool, error) { return true, nil }
func (t *toggle) AdvanceBusinessDays(_ context.Context, d time.Time, n int, _ string) (time.Time, error) {
	return d.AddDate(0, 0, n), nil
}
func (t *toggle) Resolve(id string, _ time.Time) (domrepo.Zone, error) {
	return domrepo.Zone{ID: id, Location: time.UTC, SessionClose: models.MustClock("24:00")}, nil
}

func testCalendar() *calendar.Static {
	return calendar.NewStatic(map[string]string{"Tokyo": "JP", "London": "UK", "New_York": "US"})
}

func testTimezones(t *testing.T) *timezone.Resolver {
	t.Helper()
	r, err := timezone.New([]timezone.Market{
		{ID: "Tokyo", Zone: "Asia/Tokyo", Open: models.MustClock("09:00"), Close: models.MustClock("15:00")},
		{ID: "London", Zone: "Europe/London", Open: models.MustClock("08:00"), Close: models.MustClock("16:30")},
		{ID: "New_York", Zone: "America/New_York", Open: models.MustClock("09:30"), Close: models.MustClock("16:00")},
		{ID: "UTC", Zone: "UTC", Open: 0, Close: models.MustClock("24:00")},
	}, true)
	if err != nil {
		t.Fatalf("timezones: %v", err)
	}
	return r
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}
