//go:build wireinject
// +build wireinject

package di

import (
	"PortWatch/pkg/config"
	"PortWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvidePriceStore,
		ProvideHoldingStore,
		ProvideEarningsStore,
		ProvideAlertPublisher,

		// Rule table and evaluation engine
		ProvideRuleSet,
		ProvideEngine,

		// Use cases
		ProvideAdvisorConfig,
		ProvideAdvisorUseCase,
		ProvideBarsIngestHandler,

		// Delivery
		ProvideScheduler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
