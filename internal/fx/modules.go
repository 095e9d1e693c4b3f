package fx

import (
	"os"
	"wz-analyzer/internal/aggregate"
	"wz-analyzer/internal/api"
	"wz-analyzer/internal/cache"
	"wz-analyzer/internal/config"
	"wz-analyzer/internal/logger"
	"wz-analyzer/internal/pipeline"
	"wz-analyzer/internal/report"
	"wz-analyzer/internal/resolver"
	"wz-analyzer/internal/scheduler"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideResolver(client *api.CODClient, playerCache *cache.Cache, logger zerolog.Logger) *resolver.Resolver {
	return resolver.New(client, playerCache, logger)
}

func ProvidePipeline(
	cfg *config.Config,
	client *api.CODClient,
	res *resolver.Resolver,
	playerCache *cache.Cache,
	sched *scheduler.Scheduler,
	agg *aggregate.Aggregator,
	reports *report.Writer,
	logger zerolog.Logger,
) *pipeline.Pipeline {
	return pipeline.New(cfg, client, res, playerCache, sched, agg, reports, os.Stdout, logger)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// directory
	fx.Provide(api.NewCODClient),
	// core
	fx.Provide(cache.New),
	fx.Provide(ProvideResolver),
	fx.Provide(scheduler.New),
	fx.Provide(aggregate.New),
	// output
	fx.Provide(report.New),
	fx.Provide(ProvidePipeline),
)
