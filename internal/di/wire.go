//go:build wireinject
// +build wireinject

package di

import (
	"ExoVista/pkg/config"
	"ExoVista/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideBytesCache,
		ProvideRateLimiter,

		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Repositories
		ProvideReportPublisher,

		// Domain and use cases
		ProvideClassifier,
		ProvideDispositionUseCase,
		ProvideObservationHandler,

		// HTTP
		ProvideDispositionHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
