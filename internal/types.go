package internal

import (
	"context"
	"fmt"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/internal/crawler"
	"sjsage522/pricescout/internal/search"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/services/cache"
	"sjsage522/pricescout/services/publisher"
	"sjsage522/pricescout/services/store"
	"sjsage522/pricescout/services/worker"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Config    *config.Config
	Gateway   *crawler.Gateway
	Cache     cache.CacheService
	Journal   *store.Journal
	Publisher publisher.Publisher
	Metrics   *search.Metrics
	Searcher  *search.Searcher
	Worker    *worker.Worker
}

// NewDependencies builds every service from cfg. Optional backends that are
// not configured are left nil.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log := logger.ForComponent("bootstrap")

	deps := &Dependencies{
		Config:  cfg,
		Gateway: crawler.NewGatewayFromConfig(cfg, nil),
		Cache:   NewCache(cfg),
		Metrics: search.NewMetrics(),
	}
	if !deps.Gateway.Configured() {
		log.Warn().Strs("checked", config.CredentialEnvKeys).Msg("Scraping provider API key is not configured")
	} else {
		log.Info().Str("source", cfg.APIKeySource).Msg("Scraping provider credential resolved")
	}

	sink, err := store.NewSinkFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	deps.Journal = store.NewJournal(sink)
	log.Info().Str("driver", cfg.StoreDriver).Bool("enabled", deps.Journal.Enabled()).Msg("Store ready")

	if redisPublisher := publisher.NewRedisPublisherFromConfig(cfg); redisPublisher != nil {
		if err := redisPublisher.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable, refresh announcements will fail")
		}
		deps.Publisher = redisPublisher
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Str("stream", cfg.RedisStream).Msg("Redis publisher ready")
	}

	resultCache := search.NewResultCache(deps.Cache, cfg.CacheTTL, nil)
	deps.Searcher = search.NewSearcherFromConfig(cfg, deps.Gateway, resultCache, deps.Journal, deps.Metrics)

	plan, err := cfg.Plan()
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("load sweep plan: %w", err)
	}
	deps.Worker = worker.NewWorker(deps.Searcher, deps.Journal, deps.Publisher, worker.Options{
		Categories: plan.Categories,
		Stores:     plan.Stores,
		Pacing:     cfg.SweepPacing,
		Schedule:   cfg.SweepSchedule,
		Metrics:    deps.Metrics,
	})

	return deps, nil
}

// NewCache returns the cache backend selected by CACHE_BACKEND, or nil for "none".
func NewCache(cfg *config.Config) cache.CacheService {
	switch cfg.CacheBackend {
	case "memcache":
		logger.ForCache().Info().Str("addr", cfg.MemcacheAddr).Msg("Using memcache")
		return cache.NewMemcacheService(cfg.MemcacheAddr)
	case "none":
		return nil
	default:
		return cache.NewMemoryService(cfg.CacheSize, nil)
	}
}

// Close releases the store and publisher connections
func (d *Dependencies) Close() {
	if d.Journal != nil {
		if err := d.Journal.Close(); err != nil {
			logger.ForStore().Warn().Err(err).Msg("Failed to close store")
		}
	}
	if d.Publisher != nil {
		d.Publisher.Close()
	}
}
