package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FXCast/internal/domain/models"
	"FXCast/internal/domain/service"
	"FXCast/internal/service/cache"
	"FXCast/pkg/logger"
)

// CachedPredictor memoizes raw predictions per (pair, units) for a TTL.
// Cache failures are logged and bypassed.
type CachedPredictor struct {
	inner service.RawPredictor
	cache cache.BytesCache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedPredictor(inner service.RawPredictor, c cache.BytesCache, ttl time.Duration, log *logger.Logger) *CachedPredictor {
	return &CachedPredictor{inner: inner, cache: c, ttl: ttl, log: log}
}

func (p *CachedPredictor) Predict(ctx context.Context, pair string, units int) (models.RawPrediction, error) {
	pair = models.NormalizePair(pair)
	key := fmt.Sprintf("raw:%s:%d", pair, units)

	if b, ok, err := p.cache.GetBytes(ctx, key); err != nil {
		p.log.Warn("raw prediction cache read failed", logger.String("key", key), logger.Error(err))
	} else if ok {
		var raw models.RawPrediction
		if err := json.Unmarshal(b, &raw); err == nil {
			return raw, nil
		}
	}

	raw, err := p.inner.Predict(ctx, pair, units)
	if err != nil {
		return models.RawPrediction{}, err
	}

	if b, err := json.Marshal(raw); err == nil {
		if err := p.cache.SetBytes(ctx, key, b, p.ttl); err != nil {
			p.log.Warn("raw prediction cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return raw, nil
}
