package usecase

import (
	"FXCast/internal/domain/models"

	"github.com/shopspring/decimal"
)

var (
	confidenceFloor = decimal.Zero
	confidenceCeil  = decimal.NewFromInt(1)
)

// Adjust applies the tier's confidence delta to a raw prediction and attaches the resolved
// horizon and market session. It has no side effects.
func Adjust(raw models.RawPrediction, horizon models.ResolvedHorizon, session models.MarketSession, tier models.Tier) models.PredictionResponse {
	return models.PredictionResponse{
		Pair:                   raw.Pair,
		RawPrediction:          raw,
		Confidence:             adjustConfidence(raw.Confidence, tier),
		CalendarDaysElapsed:    horizon.CalendarDaysElapsed,
		BusinessDaysElapsed:    horizon.BusinessDaysElapsed,
		TargetInstant:          horizon.TargetInstant,
		TargetDate:             horizon.TargetDate(),
		UseBusinessDaysApplied: horizon.BusinessDaysApplied,
		TimezoneApplied:        horizon.TimezoneApplied,
		Tier:                   tier,
		MarketInfo:             session,
	}
}

// adjustConfidence adds the tier delta in decimal so 0.88+0.05 renders as 0.93, clamped to [0,1].
func adjustConfidence(raw float64, tier models.Tier) float64 {
	c := decimal.NewFromFloat(raw).Add(decimal.NewFromFloat(tier.ConfidenceDelta()))
	if c.LessThan(confidenceFloor) {
		c = confidenceFloor
	}
	if c.GreaterThan(confidenceCeil) {
		c = confidenceCeil
	}
	return c.InexactFloat64()
}
