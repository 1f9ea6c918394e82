package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"FXCast/internal/domain/models"
	xhttp "FXCast/pkg/http"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func testStatic() *Static {
	return NewStatic(map[string]string{"Tokyo": "JP", "London": "UK", "New_York": "US", "UTC": ""})
}

func TestAdvanceZeroReturnsInput(t *testing.T) {
	cal := testStatic()
	// Saturday stays Saturday: no snapping to a business day
	sat := time.Date(2025, 10, 18, 13, 45, 0, 0, time.UTC)
	got, err := cal.AdvanceBusinessDays(context.Background(), sat, 0, "Tokyo")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !got.Equal(sat) {
		t.Fatalf("expected %v, got %v", sat, got)
	}
}

func TestAdvanceSkipsWeekend(t *testing.T) {
	cal := testStatic()
	got, err := cal.AdvanceBusinessDays(context.Background(), day(2025, 10, 17), 1, "Tokyo")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if want := day(2025, 10, 20); !got.Equal(want) {
		t.Fatalf("expected Monday %v, got %v", want, got)
	}
}

func TestAdvanceSkipsHolidays(t *testing.T) {
	cal := testStatic()
	cases := []struct {
		market string
		from   time.Time
		count  int
		want   time.Time
	}{
		{"Tokyo", day(2025, 4, 28), 1, day(2025, 4, 30)},
		{"London", day(2025, 12, 24), 1, day(2025, 12, 29)},
		{"new_york", day(2025, 7, 3), 1, day(2025, 7, 7)},
		{"UTC", day(2025, 12, 24), 1, day(2025, 12, 25)},
		{"Tokyo", day(2025, 10, 17), 5, day(2025, 10, 24)},
	}
	for _, tc := range cases {
		got, err := cal.AdvanceBusinessDays(context.Background(), tc.from, tc.count, tc.market)
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", tc.market, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("%s %s +%d: expected %s, got %s", tc.market, tc.from.Format(time.DateOnly), tc.count,
				tc.want.Format(time.DateOnly), got.Format(time.DateOnly))
		}
	}
}

func TestAdvanceNeverLandsOnNonBusinessDay(t *testing.T) {
	cal := testStatic()
	ctx := context.Background()
	start := day(2025, 1, 1)
	for i := 0; i < 120; i++ {
		from := start.AddDate(0, 0, i)
		for n := 1; n <= 10; n++ {
			got, err := cal.AdvanceBusinessDays(ctx, from, n, "Tokyo")
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if ok, _ := cal.IsBusinessDay(ctx, got, "Tokyo"); !ok {
				t.Fatalf("%s +%d landed on non-business day %s", from.Format(time.DateOnly), n, got.Format(time.DateOnly))
			}
			if !got.After(from) {
				t.Fatalf("target %s not after start %s", got, from)
			}
		}
	}
}

func TestAdvanceNegativeCount(t *testing.T) {
	_, err := testStatic().AdvanceBusinessDays(context.Background(), day(2025, 1, 6), -1, "Tokyo")
	if !errors.Is(err, models.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestStaticDatedHolidays(t *testing.T) {
	cal := testStatic()
	err := cal.AddHolidays([]Holiday{{Set: "jp", Date: "2025-10-13", Name: "Sports Day"}})
	if err != nil {
		t.Fatalf("add holidays: %v", err)
	}
	ok, _ := cal.IsBusinessDay(context.Background(), day(2025, 10, 13), "Tokyo")
	if ok {
		t.Fatalf("expected 2025-10-13 to be a Tokyo holiday")
	}
	ok, _ = cal.IsBusinessDay(context.Background(), day(2025, 10, 13), "London")
	if !ok {
		t.Fatalf("expected 2025-10-13 to be a London business day")
	}
	if err := cal.AddHolidays([]Holiday{{Set: "JP", Date: "13/10/2025"}}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestWeekendCalendar(t *testing.T) {
	w := NewWeekend()
	ok, err := w.IsBusinessDay(context.Background(), day(2025, 12, 25), "London")
	if err != nil || !ok {
		t.Fatalf("expected Christmas to be a weekday business day, got %v %v", ok, err)
	}
	ok, _ = w.IsBusinessDay(context.Background(), day(2025, 10, 19), "London")
	if ok {
		t.Fatalf("expected Sunday to be closed")
	}
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{Reason: "disabled"}
	if u.Available() {
		t.Fatalf("expected unavailable")
	}
	if _, err := u.AdvanceBusinessDays(context.Background(), day(2025, 1, 6), 1, "Tokyo"); !errors.Is(err, models.ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
}

type slowCalendar struct {
	delay time.Duration
}

func (s slowCalendar) IsBusinessDay(ctx context.Context, _ time.Time, _ string) (bool, error) {
	select {
	case <-time.After(s.delay):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s slowCalendar) AdvanceBusinessDays(ctx context.Context, date time.Time, count int, market string) (time.Time, error) {
	return advance(ctx, date, count, func(ctx context.Context, d time.Time) (bool, error) {
		return s.IsBusinessDay(ctx, d, market)
	})
}

func (slowCalendar) Available() bool { return true }

func TestGuardedTimeout(t *testing.T) {
	g := NewGuarded(slowCalendar{delay: time.Second}, 20*time.Millisecond)
	start := time.Now()
	_, err := g.AdvanceBusinessDays(context.Background(), day(2025, 1, 6), 3, "Tokyo")
	if !errors.Is(err, models.ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("guard did not bound the call")
	}
}

func TestGuardedCallerCancellation(t *testing.T) {
	g := NewGuarded(slowCalendar{delay: time.Second}, 500*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.AdvanceBusinessDays(ctx, day(2025, 1, 6), 3, "Tokyo")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected caller deadline, got %v", err)
	}
	if errors.Is(err, models.ErrCalendarUnavailable) {
		t.Fatalf("caller deadline reported as provider failure: %v", err)
	}
}

func TestAdvanceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testStatic().AdvanceBusinessDays(ctx, day(2025, 10, 17), 1, "Tokyo")
	if !errors.Is(err, context.Canceled) || errors.Is(err, models.ErrCalendarUnavailable) {
		t.Fatalf("expected plain context.Canceled, got %v", err)
	}
}

func TestGuardedPassesThrough(t *testing.T) {
	g := NewGuarded(testStatic(), time.Second)
	got, err := g.AdvanceBusinessDays(context.Background(), day(2025, 10, 17), 1, "Tokyo")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !got.Equal(day(2025, 10, 20)) {
		t.Fatalf("unexpected %v", got)
	}
	if !g.Available() {
		t.Fatalf("expected available")
	}
}

func TestLoadHolidaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	content := "holidays:\n  - set: UK\n    date: \"2025-08-25\"\n    name: Summer bank holiday\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	hs, err := LoadHolidaysFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(hs) != 1 || hs[0].Set != "UK" || hs[0].Date != "2025-08-25" {
		t.Fatalf("unexpected holidays: %+v", hs)
	}
}

func TestFetchHolidaysRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"holidays":[{"set":"US","date":"2025-11-27","name":"Thanksgiving"}]}`))
	}))
	defer srv.Close()

	hs, err := FetchHolidays(context.Background(), xhttp.NewClient(xhttp.WithTimeout(time.Second)), srv.URL, 10*time.Second)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(hs) != 1 || hs[0].Name != "Thanksgiving" {
		t.Fatalf("unexpected holidays: %+v", hs)
	}
	if atomic.LoadInt32(&calls) < 2 {
		t.Fatalf("expected a retry, got %d calls", calls)
	}
}
