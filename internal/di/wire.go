//go:build wireinject
// +build wireinject

package di

import (
	"FXCast/pkg/config"
	"FXCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Providers behind the tier selector
		ProvideCalendar,
		ProvideTimezones,
		ProvideEventPublisher,

		// Use cases
		ProvideTierSelector,
		ProvideHorizonResolver,
		ProvideMarketStatus,
		ProvidePredictor,
		ProvidePredictionService,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
