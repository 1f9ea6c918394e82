package models

import (
	"strings"
	"time"
)

// RawPrediction is the forecasting model's output before calendar/tier adjustment.
type RawPrediction struct {
	Pair          string    `json:"pair"`
	CurrentRate   float64   `json:"current_rate"`
	PredictedRate float64   `json:"predicted_rate"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Confidence    float64   `json:"confidence"`
	Source        string    `json:"source"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// PredictionResponse is the payload served by /api/predict.
type PredictionResponse struct {
	Pair                   string        `json:"pair"`
	RawPrediction          RawPrediction `json:"raw_prediction"`
	Confidence             float64       `json:"confidence"`
	DaysAhead              int           `json:"days_ahead"`
	CalendarDaysElapsed    int           `json:"calendar_days_elapsed"`
	BusinessDaysElapsed    int           `json:"business_days_elapsed"`
	Anchor                 time.Time     `json:"anchor"`
	TargetInstant          time.Time     `json:"target_instant"`
	TargetDate             string        `json:"target_date"`
	UseBusinessDays        bool          `json:"use_business_days"`
	UseBusinessDaysApplied bool          `json:"use_business_days_applied"`
	Timezone               string        `json:"timezone"`
	TimezoneApplied        string        `json:"timezone_applied"`
	Tier                   Tier          `json:"tier"`
	MarketInfo             MarketSession `json:"market_info"`
}

// PredictionEvent is published for every served prediction.
type PredictionEvent struct {
	ID         string    `json:"id"`
	Pair       string    `json:"pair"`
	DaysAhead  int       `json:"days_ahead"`
	Tier       Tier      `json:"tier"`
	Confidence float64   `json:"confidence"`
	Target     time.Time `json:"target_instant"`
	ServedAt   time.Time `json:"served_at"`
}

// TierEvent is published when the process-wide tier is demoted.
type TierEvent struct {
	ID     string      `json:"id"`
	From   Tier        `json:"from"`
	To     Tier        `json:"to"`
	Reason FailureKind `json:"reason"`
	At     time.Time   `json:"at"`
}

// NormalizePair upper-cases a pair symbol and inserts the slash in six-letter forms ("usdjpy" -> "USD/JPY").
func NormalizePair(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 6 && !strings.Contains(s, "/") {
		return s[:3] + "/" + s[3:]
	}
	return s
}
