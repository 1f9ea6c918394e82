package metrics

import (
	"sync"

	"FXCast/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions  *prometheus.CounterVec
	degradations *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	tier         prometheus.Gauge
	latency      *prometheus.HistogramVec
}

var (
	recorderOnce sync.Once
	recorder     *Recorder
)

// New returns the process-wide Prometheus metrics recorder.
func New() *Recorder {
	recorderOnce.Do(func() {
		recorder = newRecorder(prometheus.DefaultRegisterer)
	})
	return recorder
}

// NewWithRegisterer creates a recorder on a dedicated registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	return newRecorder(reg)
}

func newRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxcast_predictions_total",
				Help: "Total number of predictions served",
			},
			[]string{"pair", "tier"},
		),
		degradations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxcast_degradations_total",
				Help: "Responses served below the requested precision",
			},
			[]string{"kind"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		tier: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fxcast_capability_tier",
				Help: "Active capability tier (2=FULL, 1=TIMEZONE_ONLY, 0=BASIC)",
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a served prediction.
func (r *Recorder) RecordPrediction(pair string, tier models.Tier) {
	r.predictions.WithLabelValues(pair, tier.String()).Inc()
}

// RecordDegradation counts a per-response fallback.
func (r *Recorder) RecordDegradation(kind string) {
	r.degradations.WithLabelValues(kind).Inc()
}

// RecordTier sets the tier gauge.
func (r *Recorder) RecordTier(tier models.Tier) {
	r.tier.Set(float64(tier))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
