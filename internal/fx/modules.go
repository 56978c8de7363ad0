package fx

import (
	"hero-tracker/internal/cache"
	"hero-tracker/internal/config"
	"hero-tracker/internal/domain"
	"hero-tracker/internal/httpapi"
	"hero-tracker/internal/logger"
	"hero-tracker/internal/middleware"
	"hero-tracker/internal/provider"
	"hero-tracker/internal/scheduler"
	"hero-tracker/internal/service"
	"hero-tracker/internal/store"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideDetailCache(cfg *config.Config) *cache.Cache[domain.Hero] {
	return cache.New[domain.Hero](cfg.CacheTTL)
}

func ProvideAnalysisCache(cfg *config.Config) *cache.Cache[domain.AnalysisResult] {
	return cache.New[domain.AnalysisResult](cfg.CacheTTL)
}

func ProvideScheduler(
	client *provider.Client,
	st *store.Store,
	detailCache *cache.Cache[domain.Hero],
	analysisCache *cache.Cache[domain.AnalysisResult],
	log zerolog.Logger,
) *scheduler.Scheduler {
	flushers := []cache.Flusher{detailCache, analysisCache}
	return scheduler.New(client, st, flushers, log)
}

func ProvideHeroService(
	st *store.Store,
	client *provider.Client,
	detailCache *cache.Cache[domain.Hero],
	log zerolog.Logger,
) *service.HeroService {
	return service.NewHeroService(st, client, detailCache, log)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(store.New),
	// provider
	fx.Provide(provider.NewClient),
	// caches
	fx.Provide(ProvideDetailCache),
	fx.Provide(ProvideAnalysisCache),
	// scheduler
	fx.Provide(ProvideScheduler),
	// svc
	fx.Provide(service.NewGenerator),
	fx.Provide(service.NewAnalysisService),
	fx.Provide(ProvideHeroService),
	// http
	fx.Provide(middleware.NewRateLimiter),
	fx.Provide(httpapi.NewServer),
)
