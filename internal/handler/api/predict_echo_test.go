package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"FXCast/internal/domain/models"
	"FXCast/internal/service/ratelimit"
	"FXCast/internal/services/calendar"
	"FXCast/internal/services/forecast"
	"FXCast/internal/services/timezone"
	"FXCast/internal/usecase"
	"FXCast/pkg/logger"
	"FXCast/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestServer(t *testing.T, rl *ratelimit.Limiter) *echo.Echo {
	t.Helper()
	log := logger.Nop()
	rec := metrics.NewWithRegisterer(prometheus.NewRegistry())

	cal := calendar.NewStatic(map[string]string{"Tokyo": "JP", "London": "UK", "New_York": "US"})
	tz, err := timezone.New([]timezone.Market{
		{ID: "Tokyo", Zone: "Asia/Tokyo", Open: models.MustClock("09:00"), Close: models.MustClock("15:00")},
		{ID: "London", Zone: "Europe/London", Open: models.MustClock("08:00"), Close: models.MustClock("16:30")},
		{ID: "New_York", Zone: "America/New_York", Open: models.MustClock("09:30"), Close: models.MustClock("16:00")},
		{ID: "UTC", Zone: "UTC", Open: 0, Close: models.MustClock("24:00")},
	}, true)
	if err != nil {
		t.Fatalf("timezones: %v", err)
	}

	tiers := usecase.NewTierSelector(cal, tz, 1, usecase.RecordTierChanges(rec))
	horizon := usecase.NewHorizonResolver(cal, tz, tiers, rec, log, "UTC")
	status := usecase.NewMarketStatusReporter(cal, calendar.NewWeekend(), tz, tiers, log, 14)
	model := forecast.NewDriftModel([]forecast.PairModel{
		{Symbol: "USD/JPY", ReferenceRate: 147.49, DailyDrift: 0.0005},
	}, nil)
	now := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	svc := usecase.NewPredictionService(usecase.PredictionConfig{
		DefaultTimezone: "UTC",
		Pairs:           map[string]string{"USD/JPY": ""},
		Markets:         []string{"Tokyo", "London", "New_York", "UTC"},
	}, tiers, horizon, status, model, nil, rec, log, usecase.WithNow(func() time.Time { return now }))

	e := echo.New()
	NewPredictEchoHandler(log, svc, rl).RegisterRoutes(e)
	return e
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestPredictOK(t *testing.T) {
	e := newTestServer(t, nil)
	rec := get(t, e, "/api/predict?pair=USD/JPY&days=1&use_business_days=true&timezone=Tokyo")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["tier"] != "FULL" || body["target_date"] != "2025-10-20" || body["timezone_applied"] != "Tokyo" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["market_info"].(map[string]interface{}); !ok {
		t.Fatalf("market_info missing: %v", body)
	}
}

func TestPredictDefaultsDays(t *testing.T) {
	e := newTestServer(t, nil)
	rec := get(t, e, "/api/predict?pair=usdjpy")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["days_ahead"] != float64(1) || body["timezone_applied"] != "UTC" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPredictInvalidRequests(t *testing.T) {
	e := newTestServer(t, nil)
	cases := []string{
		"/api/predict?pair=XXX/YYY&days=1",
		"/api/predict?pair=USD/JPY&days=0",
		"/api/predict?pair=USD/JPY&days=abc",
		"/api/predict?pair=USD/JPY&use_business_days=maybe",
		"/api/predict?pair=USD/JPY&market=Atlantis",
		"/api/predict?pair=USD/JPY&at=yesterday",
		"/api/predict?days=1",
	}
	for _, target := range cases {
		rec := get(t, e, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d (%s)", target, rec.Code, rec.Body.String())
		}
		var body map[string]interface{}
		decode(t, rec, &body)
		if body["error_kind"] != "InvalidRequest" || body["errors"] == nil {
			t.Fatalf("%s: unexpected body %v", target, body)
		}
	}
}

func TestPredictUnknownTimezoneFallsBack(t *testing.T) {
	e := newTestServer(t, nil)
	rec := get(t, e, "/api/predict?pair=USD/JPY&days=2&timezone=Mars/Base")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["timezone_applied"] != "UTC" || body["timezone"] != "Mars/Base" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPredictExplicitAnchor(t *testing.T) {
	e := newTestServer(t, nil)
	rec := get(t, e, "/api/predict?pair=USD/JPY&days=1&at=2025-12-31T12:00:00Z")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["target_date"] != "2026-01-01" {
		t.Fatalf("unexpected target %v", body["target_date"])
	}
}

func TestPredictMulti(t *testing.T) {
	e := newTestServer(t, nil)
	rec := get(t, e, "/api/predict_multi?pair=USD/JPY&days=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var body []map[string]interface{}
	decode(t, rec, &body)
	if len(body) != 5 {
		t.Fatalf("expected 5 horizons, got %d", len(body))
	}
	for i, p := range body {
		if p["days_ahead"] != float64(i+1) {
			t.Fatalf("entry %d: days_ahead %v", i, p["days_ahead"])
		}
	}

	rec = get(t, e, "/api/predict_multi?pair=USD/JPY&days=31")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 above 30 days, got %d", rec.Code)
	}
}

func TestTierAndHealth(t *testing.T) {
	e := newTestServer(t, nil)
	rec := get(t, e, "/api/tier")
	if rec.Code != http.StatusOK {
		t.Fatalf("tier status %d", rec.Code)
	}
	var st usecase.TierStatus
	decode(t, rec, &st)
	if st.Tier != models.TierFull || !st.CalendarAvailable || !st.TimezoneAvailable {
		t.Fatalf("unexpected tier status %+v", st)
	}

	rec = get(t, e, "/healthz")
	var body map[string]interface{}
	decode(t, rec, &body)
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["tier"] != "FULL" {
		t.Fatalf("unexpected health %d %v", rec.Code, body)
	}
}

func TestPredictRateLimited(t *testing.T) {
	e := newTestServer(t, ratelimit.New(0.001, 1))
	if rec := get(t, e, "/api/predict?pair=USD/JPY"); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := get(t, e, "/api/predict?pair=USD/JPY")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["error_kind"] != "RateLimited" {
		t.Fatalf("unexpected body %v", body)
	}
}
