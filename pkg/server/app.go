package server

import (
	"context"
	"errors"
	"time"

	"ExoVista/internal/service/cache"
	"ExoVista/internal/service/ratelimit"
	"ExoVista/pkg/config"
	xhttp "ExoVista/pkg/http"
	pkgkafka "ExoVista/pkg/kafka"
	applogger "ExoVista/pkg/logger"
)

const janitorInterval = time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	handler    pkgkafka.MessageHandler
	producer   *pkgkafka.Producer
	cache      cache.BytesCache
	limiter    *ratelimit.Limiter
}

// Components bundles what App runs and closes. Nil members are skipped.
type Components struct {
	HTTPHandler xhttp.Handler
	Consumer    *pkgkafka.Consumer
	Handler     pkgkafka.MessageHandler
	Producer    *pkgkafka.Producer
	Cache       cache.BytesCache
	Limiter     *ratelimit.Limiter
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, c Components) *App {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	srv := xhttp.NewServer(c.HTTPHandler,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(log),
	)
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: srv,
		consumer:   c.Consumer,
		handler:    c.Handler,
		producer:   c.Producer,
		cache:      c.Cache,
		limiter:    c.Limiter,
	}
}

// HTTPServer exposes the server for tests.
func (a *App) HTTPServer() *xhttp.Server { return a.httpServer }

// Run starts every component and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil && a.handler != nil {
		a.consumer.RegisterHandler(a.handler)
		a.consumer.WithConsumerHook(pkgkafka.TraceHook())
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("observation consumer started", applogger.String("topic", a.handler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	go a.janitor(ctx)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// janitor drops idle rate-limit buckets and expired cache entries.
func (a *App) janitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.limiter != nil {
				a.limiter.Prune(10 * time.Minute)
			}
			if ttl, ok := a.cache.(*cache.TTLCache); ok {
				ttl.Sweep()
			}
		}
	}
}

// shutdown stops intake first, then flushes and closes outputs.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	// flush aggregated error logs while the producer is still open
	a.log.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
