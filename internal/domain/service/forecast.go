package service

import (
	"context"

	"FXCast/internal/domain/models"
)

// RawPredictor produces the model forecast for a pair N days ahead.
// The result must not depend on calendars, timezones or the active tier.
type RawPredictor interface {
	Predict(ctx context.Context, pair string, units int) (models.RawPrediction, error)
}
