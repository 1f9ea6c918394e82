package repository

import (
	"context"

	"FXCast/internal/domain/models"
	"FXCast/internal/domain/repository"
	pkgkafka "FXCast/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka.
// Prediction events are keyed by pair so one pair stays on one partition.
type KafkaEventPublisher struct {
	producer        *pkgkafka.Producer
	predictionTopic string
	tierTopic       string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, predictionTopic, tierTopic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, predictionTopic: predictionTopic, tierTopic: tierTopic}
}

func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, ev models.PredictionEvent) error {
	return p.producer.Publish(ctx, p.predictionTopic, []byte(ev.Pair), ev)
}

func (p *KafkaEventPublisher) PublishTierChange(ctx context.Context, ev models.TierEvent) error {
	return p.producer.Publish(ctx, p.tierTopic, []byte(ev.To.String()), ev)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopEventPublisher drops every event. Used when no brokers are configured.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() repository.EventPublisher { return NoopEventPublisher{} }

func (NoopEventPublisher) PublishPrediction(context.Context, models.PredictionEvent) error { return nil }
func (NoopEventPublisher) PublishTierChange(context.Context, models.TierEvent) error       { return nil }
func (NoopEventPublisher) Close() error                                                   { return nil }
