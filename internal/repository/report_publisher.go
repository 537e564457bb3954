package repository

import (
	"context"

	"github.com/segmentio/kafka-go"

	"ExoVista/internal/domain/models"
	"ExoVista/internal/domain/repository"
	pkgkafka "ExoVista/pkg/kafka"
)

// KafkaReportPublisher writes report envelopes to the report topic keyed by envelope id.
type KafkaReportPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaReportPublisher(producer *pkgkafka.Producer, topic string) repository.ReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) Publish(ctx context.Context, env *models.ReportEnvelope) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{toMessage(env)})
}

func (p *KafkaReportPublisher) PublishBatch(ctx context.Context, envs []*models.ReportEnvelope) error {
	if len(envs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(envs))
	for _, env := range envs {
		if env != nil {
			msgs = append(msgs, toMessage(env))
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close is a no-op; the producer is shared with the log collector and closed by its owner.
func (p *KafkaReportPublisher) Close() error { return nil }

func toMessage(env *models.ReportEnvelope) pkgkafka.Message {
	return pkgkafka.Message{
		Key:   []byte(env.ID),
		Value: env,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(env.Source)},
			{Key: "disposition", Value: []byte(env.Report.Disposition)},
		},
	}
}
