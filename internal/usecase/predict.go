package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FXCast/internal/domain/models"
	domrepo "FXCast/internal/domain/repository"
	domsvc "FXCast/internal/domain/service"
	"FXCast/pkg/logger"

	"github.com/google/uuid"
)

// PredictionConfig lists what the service accepts.
type PredictionConfig struct {
	DefaultTimezone string
	// Pairs maps a supported pair symbol to its primary market; an empty market is derived from the symbol.
	Pairs   map[string]string
	Markets []string
}

// PredictParams is one forecast request.
type PredictParams struct {
	Pair            string
	Days            int
	UseBusinessDays bool
	Timezone        string
	Market          string
	At              *time.Time
}

// PredictionService runs a request through tier selection, horizon resolution, market status,
// the raw model and the adjuster.
type PredictionService struct {
	tiers     *TierSelector
	horizon   *HorizonResolver
	status    *MarketStatusReporter
	predictor domsvc.RawPredictor
	events    domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger

	defaultTZ string
	pairs     map[string]string
	markets   map[string]string
	now       func() time.Time
}

type PredictionOption func(*PredictionService)

// WithNow overrides the clock used to anchor requests without an explicit instant.
func WithNow(now func() time.Time) PredictionOption {
	return func(s *PredictionService) { s.now = now }
}

func NewPredictionService(cfg PredictionConfig, tiers *TierSelector, horizon *HorizonResolver, status *MarketStatusReporter,
	predictor domsvc.RawPredictor, events domrepo.EventPublisher, metrics domrepo.Metrics, log *logger.Logger,
	opts ...PredictionOption) *PredictionService {
	s := &PredictionService{
		tiers:     tiers,
		horizon:   horizon,
		status:    status,
		predictor: predictor,
		events:    events,
		metrics:   metrics,
		log:       log,
		defaultTZ: cfg.DefaultTimezone,
		pairs:     make(map[string]string, len(cfg.Pairs)),
		markets:   make(map[string]string, len(cfg.Markets)),
		now:       time.Now,
	}
	for pair, market := range cfg.Pairs {
		s.pairs[models.NormalizePair(pair)] = market
	}
	for _, m := range cfg.Markets {
		s.markets[strings.ToLower(m)] = m
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict serves a single forecast.
func (s *PredictionService) Predict(ctx context.Context, p PredictParams) (*models.PredictionResponse, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("predict", time.Since(start).Seconds()) }()

	req, anchor, err := s.prepare(p)
	if err != nil {
		s.metrics.RecordError(models.ErrorKind(err))
		return nil, err
	}
	resp, err := s.predictOne(ctx, req, anchor)
	if err != nil {
		s.metrics.RecordError(models.ErrorKind(err))
		return nil, err
	}
	return resp, nil
}

// PredictMulti serves forecasts for every horizon from 1 to p.Days against a single anchor.
func (s *PredictionService) PredictMulti(ctx context.Context, p PredictParams) ([]*models.PredictionResponse, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("predict_multi", time.Since(start).Seconds()) }()

	req, anchor, err := s.prepare(p)
	if err != nil {
		s.metrics.RecordError(models.ErrorKind(err))
		return nil, err
	}
	out := make([]*models.PredictionResponse, 0, req.Units)
	for day := 1; day <= p.Days; day++ {
		req.Units = day
		resp, err := s.predictOne(ctx, req, anchor)
		if err != nil {
			s.metrics.RecordError(models.ErrorKind(err))
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// TierStatus exposes the selector snapshot.
func (s *PredictionService) TierStatus() TierStatus { return s.tiers.Status() }

func (s *PredictionService) prepare(p PredictParams) (models.HorizonRequest, models.Anchor, error) {
	pair := models.NormalizePair(p.Pair)
	pairMarket, ok := s.pairs[pair]
	if !ok {
		return models.HorizonRequest{}, models.Anchor{}, fmt.Errorf("%w: unsupported pair %q", models.ErrInvalidRequest, p.Pair)
	}
	if p.Days < 1 {
		return models.HorizonRequest{}, models.Anchor{}, fmt.Errorf("%w: days must be at least 1", models.ErrInvalidRequest)
	}

	market := pairMarket
	if p.Market != "" {
		m, ok := s.markets[strings.ToLower(p.Market)]
		if !ok {
			return models.HorizonRequest{}, models.Anchor{}, fmt.Errorf("%w: unknown market %q", models.ErrInvalidRequest, p.Market)
		}
		market = m
	}
	if market == "" {
		market = MarketForPair(pair)
	}

	tz := p.Timezone
	if tz == "" {
		tz = s.defaultTZ
	}
	at := s.now()
	if p.At != nil {
		at = *p.At
	}

	req := models.HorizonRequest{
		Pair:            pair,
		Units:           p.Days,
		UseBusinessDays: p.UseBusinessDays,
		Timezone:        tz,
		Market:          market,
	}
	return req, models.NewAnchor(at, tz), nil
}

func (s *PredictionService) predictOne(ctx context.Context, req models.HorizonRequest, anchor models.Anchor) (*models.PredictionResponse, error) {
	tier := s.tiers.Current()

	horizon, err := s.horizon.Resolve(ctx, req, anchor, tier)
	if err != nil {
		return nil, err
	}

	// a failure during resolution may have demoted the process tier
	tier = models.MinTier(tier, s.tiers.Current())
	session, err := s.status.Status(ctx, req.Market, anchor.Instant(), tier)
	if err != nil {
		s.log.Warn("market status unavailable",
			logger.String("market", req.Market),
			logger.String("kind", models.ErrorKind(err)),
			logger.Error(err),
		)
		s.metrics.RecordDegradation("market_status")
	}

	raw, err := s.predictor.Predict(ctx, req.Pair, req.Units)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRequest) {
			return nil, err
		}
		return nil, fmt.Errorf("raw prediction %s: %w", req.Pair, err)
	}

	resp := Adjust(raw, horizon, session, horizon.TierUsed)
	resp.Pair = req.Pair
	resp.DaysAhead = req.Units
	resp.Anchor = anchor.Instant()
	resp.UseBusinessDays = req.UseBusinessDays
	resp.Timezone = anchor.Timezone()

	s.metrics.RecordPrediction(req.Pair, resp.Tier)
	s.publish(ctx, resp)
	return &resp, nil
}

func (s *PredictionService) publish(ctx context.Context, resp models.PredictionResponse) {
	if s.events == nil {
		return
	}
	ev := models.PredictionEvent{
		ID:         uuid.NewString(),
		Pair:       resp.Pair,
		DaysAhead:  resp.DaysAhead,
		Tier:       resp.Tier,
		Confidence: resp.Confidence,
		Target:     resp.TargetInstant,
		ServedAt:   s.now().UTC(),
	}
	if err := s.events.PublishPrediction(ctx, ev); err != nil {
		s.log.Warn("publish prediction event failed", logger.String("pair", resp.Pair), logger.Error(err))
	}
}
