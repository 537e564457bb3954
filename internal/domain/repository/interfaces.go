package repository

import (
	"context"

	"ExoVista/internal/domain/models"
)

// ReportPublisher hands produced reports to downstream consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, env *models.ReportEnvelope) error
	PublishBatch(ctx context.Context, envs []*models.ReportEnvelope) error
	Close() error
}

type Metrics interface {
	RecordClassification(band int, disposition string, maxScore float64)
	RecordReportPublished(source string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
