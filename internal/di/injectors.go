//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"habitd/internal"
	"habitd/internal/controllers"
	"habitd/internal/providers"
	"habitd/internal/structures"
	"habitd/internal/sync"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewStoreProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		sync.NewZstdCompressor,
		sync.NewTransport,
		sync.NewCodec,
		sync.NewEngine,
		sync.NewTrigger,
		sync.NewScheduler,

		controllers.NewApiController,
		controllers.NewSyncController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
