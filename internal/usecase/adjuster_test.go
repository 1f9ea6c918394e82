package usecase

import (
	"testing"
	"time"

	"FXCast/internal/domain/models"
)

func TestAdjustConfidenceDelta(t *testing.T) {
	raw := models.RawPrediction{Pair: "USD/JPY", PredictedRate: 147.5637, Confidence: 0.88}
	h := models.ResolvedHorizon{TargetInstant: utc(2025, 10, 20, 0, 0), CalendarDaysElapsed: 3, BusinessDaysElapsed: 1,
		BusinessDaysApplied: true, TimezoneApplied: "Tokyo", Location: time.UTC}

	cases := map[models.Tier]float64{
		models.TierFull:         0.93,
		models.TierTimezoneOnly: 0.88,
		models.TierBasic:        0.88,
	}
	for tier, want := range cases {
		got := Adjust(raw, h, models.UnknownSession("Tokyo", ""), tier)
		if got.Confidence != want {
			t.Errorf("%s: expected %v, got %v", tier, want, got.Confidence)
		}
		if got.RawPrediction != raw {
			t.Errorf("%s: raw prediction must pass through unchanged", tier)
		}
		if got.Tier != tier || got.CalendarDaysElapsed != 3 || got.TargetDate != "2025-10-20" {
			t.Errorf("%s: unexpected response %+v", tier, got)
		}
	}
}

func TestAdjustClampsConfidence(t *testing.T) {
	got := Adjust(models.RawPrediction{Confidence: 0.98}, models.ResolvedHorizon{}, models.MarketSession{}, models.TierFull)
	if got.Confidence != 1 {
		t.Fatalf("expected 1, got %v", got.Confidence)
	}
	got = Adjust(models.RawPrediction{Confidence: -0.2}, models.ResolvedHorizon{}, models.MarketSession{}, models.TierBasic)
	if got.Confidence != 0 {
		t.Fatalf("expected 0, got %v", got.Confidence)
	}
}
