package forecast

import (
	"context"
	"fmt"
	"time"

	"FXCast/internal/domain/models"

	"github.com/shopspring/decimal"
)

const driftSource = "reference-drift"

// PairModel holds the reference rate and per-day drift of a currency pair.
type PairModel struct {
	Symbol        string
	ReferenceRate float64
	DailyDrift    float64
}

// DriftModel projects a reference rate forward by compounding a fixed daily drift.
// Output depends only on the pair and the number of horizon units.
type DriftModel struct {
	pairs map[string]PairModel
	now   func() time.Time
}

// NewDriftModel builds a model over the given pairs. now defaults to time.Now.
func NewDriftModel(pairs []PairModel, now func() time.Time) *DriftModel {
	if now == nil {
		now = time.Now
	}
	m := &DriftModel{pairs: make(map[string]PairModel, len(pairs)), now: now}
	for _, p := range pairs {
		p.Symbol = models.NormalizePair(p.Symbol)
		m.pairs[p.Symbol] = p
	}
	return m
}

// Supports reports whether pair is configured.
func (m *DriftModel) Supports(pair string) bool {
	_, ok := m.pairs[models.NormalizePair(pair)]
	return ok
}

// Pairs returns the configured pair symbols.
func (m *DriftModel) Pairs() []string {
	out := make([]string, 0, len(m.pairs))
	for s := range m.pairs {
		out = append(out, s)
	}
	return out
}

func (m *DriftModel) Predict(_ context.Context, pair string, units int) (models.RawPrediction, error) {
	p, ok := m.pairs[models.NormalizePair(pair)]
	if !ok {
		return models.RawPrediction{}, fmt.Errorf("%w: unsupported pair %q", models.ErrInvalidRequest, pair)
	}
	if units < 1 {
		return models.RawPrediction{}, fmt.Errorf("%w: units must be positive", models.ErrInvalidRequest)
	}

	ref := decimal.NewFromFloat(p.ReferenceRate)
	step := decimal.NewFromInt(1).Add(decimal.NewFromFloat(p.DailyDrift))
	factor := decimal.NewFromInt(1)
	for i := 0; i < units; i++ {
		factor = factor.Mul(step)
	}

	predicted := ref.Mul(factor).Round(4)
	change := predicted.Sub(ref).Round(4)
	changePct := change.Div(ref).Mul(decimal.NewFromInt(100)).Round(4)

	return models.RawPrediction{
		Pair:          p.Symbol,
		CurrentRate:   ref.Round(4).InexactFloat64(),
		PredictedRate: predicted.InexactFloat64(),
		Change:        change.InexactFloat64(),
		ChangePercent: changePct.InexactFloat64(),
		Confidence:    rawConfidence(units),
		Source:        driftSource,
		GeneratedAt:   m.now().UTC(),
	}, nil
}

// rawConfidence decays with horizon length: 0.90 - 0.02 per unit, clamped to [0.70, 0.95].
func rawConfidence(units int) float64 {
	c := decimal.NewFromFloat(0.90).Sub(decimal.NewFromFloat(0.02).Mul(decimal.NewFromInt(int64(units))))
	lo, hi := decimal.NewFromFloat(0.70), decimal.NewFromFloat(0.95)
	if c.LessThan(lo) {
		c = lo
	}
	if c.GreaterThan(hi) {
		c = hi
	}
	return c.Round(2).InexactFloat64()
}
