package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ExoVista/internal/domain/models"
	domrepo "ExoVista/internal/domain/repository"
	domsvc "ExoVista/internal/domain/service"
	"ExoVista/internal/services/disposition"
	"ExoVista/internal/services/ingest"
	applogger "ExoVista/pkg/logger"
)

// Origins recorded on report envelopes.
const (
	SourceHTTP   = "http"
	SourceBatch  = "batch"
	SourceStream = "stream"
	SourceKafka  = "kafka"
	SourceCLI    = "cli"
)

// DispositionUseCase validates observations, runs the classifier and hands
// every produced report to the publisher.
type DispositionUseCase struct {
	classifier     domsvc.DispositionClassifier
	parser         *ingest.Parser
	publisher      domrepo.ReportPublisher
	metrics        domrepo.Metrics
	log            *applogger.Logger
	workers        int
	publishTimeout time.Duration
	now            func() time.Time
}

type Option func(*DispositionUseCase)

// WithPublisher enables report publishing. Nil disables it.
func WithPublisher(p domrepo.ReportPublisher) Option {
	return func(uc *DispositionUseCase) { uc.publisher = p }
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(uc *DispositionUseCase) { uc.metrics = m }
}

func WithLogger(l *applogger.Logger) Option {
	return func(uc *DispositionUseCase) {
		if l != nil {
			uc.log = l
		}
	}
}

func WithParser(p *ingest.Parser) Option {
	return func(uc *DispositionUseCase) {
		if p != nil {
			uc.parser = p
		}
	}
}

// WithBatchWorkers bounds concurrent row classification in batches.
func WithBatchWorkers(n int) Option {
	return func(uc *DispositionUseCase) {
		if n > 0 {
			uc.workers = n
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(uc *DispositionUseCase) {
		if d > 0 {
			uc.publishTimeout = d
		}
	}
}

func NewDispositionUseCase(classifier domsvc.DispositionClassifier, opts ...Option) *DispositionUseCase {
	uc := &DispositionUseCase{
		classifier:     classifier,
		parser:         ingest.NewParser(),
		log:            applogger.Nop(),
		workers:        4,
		publishTimeout: 5 * time.Second,
		now:            time.Now,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Process validates and classifies obs without publishing.
// A nil seed draws a fresh one.
func (uc *DispositionUseCase) Process(obs models.Observation, mode models.InputMode, seed *uint64, source string) (*models.ReportEnvelope, error) {
	start := time.Now()
	if err := obs.Validate(mode); err != nil {
		uc.recordError("validation")
		return nil, err
	}
	var report models.DispositionReport
	if seed != nil {
		report = uc.classifier.ClassifyWithSeed(obs, *seed)
	} else {
		report = uc.classifier.Classify(obs)
	}
	uc.record(report, "classify", start)
	return uc.envelope(obs, report, source), nil
}

// Analyze classifies one observation and publishes the report best-effort.
func (uc *DispositionUseCase) Analyze(ctx context.Context, obs models.Observation, mode models.InputMode, seed *uint64, source string) (*models.DispositionReport, error) {
	env, err := uc.Process(obs, mode, seed, source)
	if err != nil {
		return nil, err
	}
	uc.publishBestEffort(ctx, env)
	return &env.Report, nil
}

// Explain turns an external model's output into a report for obs.
func (uc *DispositionUseCase) Explain(ctx context.Context, obs models.Observation, mode models.InputMode, modelOutput []float64, source string) (*models.DispositionReport, error) {
	start := time.Now()
	if err := obs.Validate(mode); err != nil {
		uc.recordError("validation")
		return nil, err
	}
	scores, err := disposition.ScoresFromModelOutput(modelOutput)
	if err != nil {
		uc.recordError("model_output")
		return nil, err
	}
	report := uc.classifier.Explain(obs, scores)
	uc.record(report, "explain", start)

	env := uc.envelope(obs, report, source)
	uc.publishBestEffort(ctx, env)
	return &env.Report, nil
}

// AnalyzeFile parses an uploaded CSV or JSON file and classifies every row.
// File-level problems (format, schema) are returned as errors; row problems
// are reported inside the result.
func (uc *DispositionUseCase) AnalyzeFile(ctx context.Context, name string, r io.Reader, source string) (*models.BatchResult, error) {
	rows, err := uc.parser.ParseFile(name, r)
	if err != nil {
		uc.recordError("parse")
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return uc.AnalyzeRows(ctx, rows, source)
}

// AnalyzeRows classifies parsed rows concurrently. Output order follows input order.
func (uc *DispositionUseCase) AnalyzeRows(ctx context.Context, rows []ingest.Row, source string) (*models.BatchResult, error) {
	start := time.Now()
	out := make([]models.BatchRow, len(rows))
	envs := make([]*models.ReportEnvelope, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = models.BatchRow{Line: row.Line, Observation: row.Observation}
			if row.Err != nil {
				uc.recordError("parse_row")
				out[i].Error = row.Err.Error()
				return nil
			}
			env, err := uc.Process(row.Observation, models.ModeFile, nil, source)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Report = &env.Report
			envs[i] = env
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &models.BatchResult{Rows: out, Total: len(out)}
	published := make([]*models.ReportEnvelope, 0, len(envs))
	for i := range out {
		if out[i].Error != "" {
			res.Failed++
		}
		if envs[i] != nil {
			published = append(published, envs[i])
		}
	}
	uc.publishBatchBestEffort(ctx, published)
	uc.observe("batch", start)
	uc.log.Info("batch classified",
		applogger.String("source", source),
		applogger.Int("total", res.Total),
		applogger.Int("failed", res.Failed))
	return res, nil
}

// Publish sends env and returns the publisher's error. No-op without a publisher.
func (uc *DispositionUseCase) Publish(ctx context.Context, env *models.ReportEnvelope) error {
	if uc.publisher == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, uc.publishTimeout)
	defer cancel()
	if err := uc.publisher.Publish(ctx, env); err != nil {
		uc.recordError("publish")
		return fmt.Errorf("publish report %s: %w", env.ID, err)
	}
	if uc.metrics != nil {
		uc.metrics.RecordReportPublished(env.Source)
	}
	return nil
}

func (uc *DispositionUseCase) publishBestEffort(ctx context.Context, env *models.ReportEnvelope) {
	// a client that went away must not cancel the publish
	if err := uc.Publish(context.WithoutCancel(ctx), env); err != nil {
		uc.log.Error("report publish failed", applogger.String("id", env.ID), applogger.Error(err))
	}
}

func (uc *DispositionUseCase) publishBatchBestEffort(ctx context.Context, envs []*models.ReportEnvelope) {
	if uc.publisher == nil || len(envs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishBatch(ctx, envs); err != nil {
		uc.recordError("publish")
		uc.log.Error("batch publish failed", applogger.Int("reports", len(envs)), applogger.Error(err))
		return
	}
	if uc.metrics != nil {
		for _, env := range envs {
			uc.metrics.RecordReportPublished(env.Source)
		}
	}
}

func (uc *DispositionUseCase) envelope(obs models.Observation, report models.DispositionReport, source string) *models.ReportEnvelope {
	return &models.ReportEnvelope{
		ID:          uuid.NewString(),
		Source:      source,
		Observation: obs,
		Report:      report,
		CreatedAt:   uc.now().UTC(),
	}
}

func (uc *DispositionUseCase) record(r models.DispositionReport, op string, start time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.RecordClassification(r.Band, string(r.Disposition), r.ConfidenceScores.Max())
	uc.metrics.RecordLatency(op, time.Since(start).Seconds())
}

func (uc *DispositionUseCase) observe(op string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

func (uc *DispositionUseCase) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}

// IsClientError reports whether err was caused by bad input rather than a failure of the service.
func IsClientError(err error) bool {
	return errors.Is(err, models.ErrInvalidObservation) ||
		errors.Is(err, disposition.ErrModelOutput) ||
		errors.Is(err, ingest.ErrUnsupportedFormat) ||
		errors.Is(err, ingest.ErrThermalSchema) ||
		errors.Is(err, ingest.ErrMissingColumns) ||
		errors.Is(err, ingest.ErrEmptyFile) ||
		errors.Is(err, ingest.ErrTooManyRows)
}
