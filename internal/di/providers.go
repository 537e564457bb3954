package di

import (
	"context"
	"fmt"
	"time"

	"ExoVista/internal/domain/repository"
	domsvc "ExoVista/internal/domain/service"
	"ExoVista/internal/handler/api"
	internalrepo "ExoVista/internal/repository"
	"ExoVista/internal/service/cache"
	"ExoVista/internal/service/ratelimit"
	"ExoVista/internal/services/disposition"
	"ExoVista/internal/services/ingest"
	"ExoVista/internal/usecase"
	"ExoVista/pkg/config"
	pkgkafka "ExoVista/pkg/kafka"
	applogger "ExoVista/pkg/logger"
	"ExoVista/pkg/metrics"
	"ExoVista/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the service logger. With a producer, error lines are
// aggregated and shipped to the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
		Service:    "exovista",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logger.CollectInterval,
			CountThreshold: cfg.Logger.CollectThreshold,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideReportPublisher returns nil when there is no producer; the use case then skips publishing.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ReportPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportTopic)
}

func ProvideClassifier(cfg *config.Config) domsvc.DispositionClassifier {
	if cfg.Classifier.FixedSeed != nil {
		return disposition.NewClassifier(disposition.WithFixedSeed(*cfg.Classifier.FixedSeed))
	}
	return disposition.NewClassifier()
}

func ProvideDispositionUseCase(
	cfg *config.Config,
	classifier domsvc.DispositionClassifier,
	pub repository.ReportPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DispositionUseCase {
	return usecase.NewDispositionUseCase(classifier,
		usecase.WithPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
		usecase.WithBatchWorkers(cfg.Classifier.BatchWorkers),
		usecase.WithParser(ingest.NewParser(ingest.WithMaxRows(cfg.Classifier.MaxBatchRows))),
		usecase.WithPublishTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
}

// ProvideBytesCache selects the idempotency cache backend. "none" yields nil.
func ProvideBytesCache(cfg *config.Config) (cache.BytesCache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, err
		}
		return rc, nil
	case "memory":
		return cache.NewTTLCache(), nil
	default:
		return nil, nil
	}
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideDispositionHandler(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.DispositionUseCase,
	c cache.BytesCache,
	limiter *ratelimit.Limiter,
) *api.DispositionHandler {
	opts := []api.HandlerOption{
		api.WithMaxUploadBytes(cfg.Classifier.MaxUploadBytes),
		api.WithPingInterval(cfg.Server.StreamPing),
	}
	if c != nil {
		opts = append(opts, api.WithIdempotencyCache(c, cfg.Cache.TTL))
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	return api.NewDispositionHandler(l, uc, opts...)
}

// ProvideKafkaConsumer creates the observation consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerStartOffset(cfg.Kafka.Consumer.StartOffset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideObservationHandler(cfg *config.Config, uc *usecase.DispositionUseCase, l *applogger.Logger) *usecase.ObservationHandler {
	return usecase.NewObservationHandler(cfg.Kafka.ObservationTopic, uc, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.DispositionHandler,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	oh *usecase.ObservationHandler,
	c cache.BytesCache,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, server.Components{
		HTTPHandler: h,
		Consumer:    consumer,
		Handler:     oh,
		Producer:    producer,
		Cache:       c,
		Limiter:     limiter,
	})
}
