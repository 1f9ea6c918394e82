package di

import (
	"context"
	"fmt"
	"time"

	"FXCast/internal/domain/models"
	"FXCast/internal/domain/repository"
	domsvc "FXCast/internal/domain/service"
	"FXCast/internal/handler/api"
	internalrepo "FXCast/internal/repository"
	"FXCast/internal/service/cache"
	"FXCast/internal/service/ratelimit"
	"FXCast/internal/services/calendar"
	"FXCast/internal/services/forecast"
	"FXCast/internal/services/timezone"
	"FXCast/internal/usecase"
	"FXCast/pkg/config"
	xhttp "FXCast/pkg/http"
	pkgkafka "FXCast/pkg/kafka"
	"FXCast/pkg/logger"
	"FXCast/pkg/metrics"
	"FXCast/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer; nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger creates the application logger and attaches error aggregation when Kafka is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Log.AggregateTopic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval: cfg.Log.AggregateInterval,
			Topic:        cfg.Log.AggregateTopic,
			Publisher:    producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCalendar builds the configured business-day calendar behind the timeout guard.
// Load failures yield an unavailable calendar so the service starts at a lower tier.
func ProvideCalendar(cfg *config.Config, l *logger.Logger) repository.CalendarProvider {
	var inner repository.CalendarProvider
	switch cfg.Calendar.Source {
	case "none":
		inner = calendar.Unavailable{Reason: "calendar disabled"}
	case "exchange":
		markets := make([]calendar.ExchangeMarket, 0, len(cfg.Markets))
		for _, m := range cfg.Markets {
			markets = append(markets, calendar.ExchangeMarket{ID: m.ID, Exchange: m.Exchange, Zone: m.Zone})
		}
		ex, err := calendar.NewExchange(markets)
		if err != nil {
			l.Error("exchange calendar unavailable", logger.Error(err))
			inner = calendar.Unavailable{Reason: err.Error()}
		} else {
			inner = ex
		}
	default:
		inner = staticCalendar(cfg, l)
	}
	l.Info("calendar ready",
		logger.String("source", cfg.Calendar.Source),
		logger.Bool("available", inner.Available()),
	)
	return calendar.NewGuarded(inner, cfg.Calendar.Timeout)
}

func staticCalendar(cfg *config.Config, l *logger.Logger) repository.CalendarProvider {
	sets := make(map[string]string, len(cfg.Markets))
	for _, m := range cfg.Markets {
		sets[m.ID] = m.HolidaySet
	}
	st := calendar.NewStatic(sets)

	if cfg.Calendar.HolidaysFile != "" {
		hs, err := calendar.LoadHolidaysFile(cfg.Calendar.HolidaysFile)
		if err == nil {
			err = st.AddHolidays(hs)
		}
		if err != nil {
			l.Error("holidays file rejected", logger.String("path", cfg.Calendar.HolidaysFile), logger.Error(err))
			return calendar.Unavailable{Reason: err.Error()}
		}
		l.Info("holidays loaded", logger.String("path", cfg.Calendar.HolidaysFile), logger.Int("count", len(hs)))
	}

	if cfg.Calendar.HolidaysURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Calendar.ProbeTimeout)
		defer cancel()
		client := xhttp.NewClient(xhttp.WithTimeout(cfg.Calendar.ProbeTimeout))
		hs, err := calendar.FetchHolidays(ctx, client, cfg.Calendar.HolidaysURL, cfg.Calendar.ProbeTimeout)
		if err == nil {
			err = st.AddHolidays(hs)
		}
		if err != nil {
			l.Error("holidays fetch failed", logger.String("url", cfg.Calendar.HolidaysURL), logger.Error(err))
			return calendar.Unavailable{Reason: err.Error()}
		}
		l.Info("holidays fetched", logger.String("url", cfg.Calendar.HolidaysURL), logger.Int("count", len(hs)))
	}
	return st
}

// ProvideTimezones loads market zones. A load failure leaves the resolver unavailable.
func ProvideTimezones(cfg *config.Config, l *logger.Logger) (repository.TimezoneResolver, error) {
	markets := make([]timezone.Market, 0, len(cfg.Markets))
	for _, m := range cfg.Markets {
		open, err := models.ParseClock(m.Open)
		if err != nil {
			return nil, fmt.Errorf("market %s open: %w", m.ID, err)
		}
		shut, err := models.ParseClock(m.Close)
		if err != nil {
			return nil, fmt.Errorf("market %s close: %w", m.ID, err)
		}
		markets = append(markets, timezone.Market{ID: m.ID, Zone: m.Zone, Open: open, Close: shut})
	}
	r, err := timezone.New(markets, cfg.Timezone.Enabled)
	if err != nil {
		l.Error("timezone data incomplete", logger.Error(err))
	}
	return r, nil
}

// ProvideEventPublisher publishes to Kafka when configured, otherwise drops events.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NewNoopEventPublisher()
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic, cfg.Kafka.TierTopic)
}

// ProvideTierSelector creates the process-wide tier register with its demotion listeners.
func ProvideTierSelector(
	cfg *config.Config,
	cal repository.CalendarProvider,
	tz repository.TimezoneResolver,
	m repository.Metrics,
	events repository.EventPublisher,
	l *logger.Logger,
) *usecase.TierSelector {
	tiers := usecase.NewTierSelector(cal, tz, cfg.Tier.FailureThreshold,
		usecase.LogTierChanges(l),
		usecase.RecordTierChanges(m),
		usecase.PublishTierChanges(events, l),
	)
	m.RecordTier(tiers.Current())
	l.Info("tier selected", logger.String("tier", tiers.Current().String()))
	return tiers
}

func ProvideHorizonResolver(
	cfg *config.Config,
	cal repository.CalendarProvider,
	tz repository.TimezoneResolver,
	tiers *usecase.TierSelector,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.HorizonResolver {
	return usecase.NewHorizonResolver(cal, tz, tiers, m, l, cfg.Forecast.DefaultTimezone)
}

func ProvideMarketStatus(
	cfg *config.Config,
	cal repository.CalendarProvider,
	tz repository.TimezoneResolver,
	tiers *usecase.TierSelector,
	l *logger.Logger,
) *usecase.MarketStatusReporter {
	return usecase.NewMarketStatusReporter(cal, calendar.NewWeekend(), tz, tiers, l, cfg.Tier.LookaheadDays)
}

// ProvideCache uses Redis when enabled and reachable, otherwise an in-process TTL cache.
func ProvideCache(cfg *config.Config, l *logger.Logger) (cache.BytesCache, func()) {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache(), func() {}
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "fxcast:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-memory cache", logger.String("addr", cfg.Redis.Addr), logger.Error(err))
		_ = rc.Close()
		return cache.NewTTLCache(), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

// ProvidePredictor creates the drift model behind the result cache.
func ProvidePredictor(cfg *config.Config, c cache.BytesCache, l *logger.Logger) domsvc.RawPredictor {
	pairs := make([]forecast.PairModel, 0, len(cfg.Forecast.Pairs))
	for _, p := range cfg.Forecast.Pairs {
		pairs = append(pairs, forecast.PairModel{
			Symbol:        p.Symbol,
			ReferenceRate: p.ReferenceRate,
			DailyDrift:    p.DailyDrift,
		})
	}
	model := forecast.NewDriftModel(pairs, nil)
	if cfg.Forecast.CacheTTL <= 0 {
		return model
	}
	return forecast.NewCachedPredictor(model, c, cfg.Forecast.CacheTTL, l)
}

func ProvidePredictionService(
	cfg *config.Config,
	tiers *usecase.TierSelector,
	horizon *usecase.HorizonResolver,
	status *usecase.MarketStatusReporter,
	predictor domsvc.RawPredictor,
	events repository.EventPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.PredictionService {
	pairs := make(map[string]string, len(cfg.Forecast.Pairs))
	for _, p := range cfg.Forecast.Pairs {
		pairs[p.Symbol] = p.Market
	}
	markets := make([]string, 0, len(cfg.Markets))
	for _, mk := range cfg.Markets {
		markets = append(markets, mk.ID)
	}
	return usecase.NewPredictionService(usecase.PredictionConfig{
		DefaultTimezone: cfg.Forecast.DefaultTimezone,
		Pairs:           pairs,
		Markets:         markets,
	}, tiers, horizon, status, predictor, events, m, l)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func ProvideHTTPHandler(l *logger.Logger, svc *usecase.PredictionService, rl *ratelimit.Limiter) xhttp.Handler {
	return api.NewPredictEchoHandler(l, svc, rl)
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithSlowThreshold(cfg.Server.SlowRequestThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	srv *xhttp.Server,
	tiers *usecase.TierSelector,
	l *logger.Logger,
) *server.App {
	return server.New(cfg, srv, tiers, l)
}
