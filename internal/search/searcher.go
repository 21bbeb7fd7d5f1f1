// Package search runs the fallback search sequence against a provider and
// turns the results into normalized products.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sjsage522/pricescout/config"
	"sjsage522/pricescout/internal/crawler"
	"sjsage522/pricescout/internal/product"
	"sjsage522/pricescout/logger"
	pkgerrors "sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/store"
)

// DefaultRetryDelay is the pause before the single retry of the sequence.
const DefaultRetryDelay = time.Second

// Strategy names, also used in scrape log source names.
const (
	StrategyCategory = "category"
	StrategyGeneric  = "generic"
)

// Fetcher retrieves a target page through the scraping provider.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]byte, error)
	Configured() bool
}

// Options configures a Searcher. Zero values fall back to defaults.
type Options struct {
	Registry       crawler.Registry
	Normalizer     product.Normalizer
	Cache          *ResultCache
	Journal        *store.Journal
	Metrics        *Metrics
	DefaultStore   string
	RetryDelay     time.Duration
	SampleFallback bool
	// Sleep waits between passes. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Searcher runs the category-biased, then generic, then retried search
// sequence. Calls are sequential; a Searcher is safe for concurrent use.
type Searcher struct {
	fetcher        Fetcher
	registry       crawler.Registry
	normalizer     product.Normalizer
	cache          *ResultCache
	journal        *store.Journal
	metrics        *Metrics
	defaultStore   string
	retryDelay     time.Duration
	sampleFallback bool
	sleep          func(ctx context.Context, d time.Duration) error
	log            *logger.Logger
}

// Attempt is one fetch-extract-normalize step of the sequence.
type Attempt struct {
	Strategy string
	URL      string
}

// NewSearcher creates a searcher over fetcher
func NewSearcher(fetcher Fetcher, opts Options) *Searcher {
	if opts.Registry == nil {
		opts.Registry = crawler.NewRegistry()
	}
	if opts.DefaultStore == "" {
		opts.DefaultStore = "amazon"
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Searcher{
		fetcher:        fetcher,
		registry:       opts.Registry,
		normalizer:     opts.Normalizer,
		cache:          opts.Cache,
		journal:        opts.Journal,
		metrics:        opts.Metrics,
		defaultStore:   opts.DefaultStore,
		retryDelay:     opts.RetryDelay,
		sampleFallback: opts.SampleFallback,
		sleep:          opts.Sleep,
		log:            logger.ForSearch(),
	}
}

// NewSearcherFromConfig wires a searcher from the resolved configuration
func NewSearcherFromConfig(cfg *config.Config, fetcher Fetcher, resultCache *ResultCache, journal *store.Journal, metrics *Metrics) *Searcher {
	return NewSearcher(fetcher, Options{
		Normalizer: product.Normalizer{
			DefaultCategory: cfg.DefaultCategory,
			MaxResults:      cfg.MaxResults,
			AffiliateTag:    cfg.AffiliateTag,
		},
		Cache:          resultCache,
		Journal:        journal,
		Metrics:        metrics,
		DefaultStore:   cfg.DefaultStore,
		RetryDelay:     cfg.RetryDelay,
		SampleFallback: cfg.SampleFallback,
	})
}

// Configured reports whether the provider credential is present
func (s *Searcher) Configured() bool {
	return s.fetcher != nil && s.fetcher.Configured()
}

// Search returns normalized products for req. An exhausted sequence with no
// results is an empty list, not an error.
func (s *Searcher) Search(ctx context.Context, req product.Request) ([]product.Product, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Query == "" {
		s.metrics.IncSearch("invalid")
		return nil, pkgerrors.NewInvalidRequest("Missing query")
	}

	storeName := req.Store
	if strings.TrimSpace(storeName) == "" {
		storeName = s.defaultStore
	}
	provider, ok := s.registry.Lookup(storeName)
	if !ok {
		s.metrics.IncSearch("invalid")
		return nil, pkgerrors.NewInvalidRequest(fmt.Sprintf("Unsupported store %q", storeName))
	}
	req.Store = provider.Name

	if !s.Configured() {
		err := pkgerrors.NewMisconfigured("missing scraping provider API key", config.CredentialEnvKeys)
		s.metrics.IncError(string(err.Type))
		s.metrics.IncSearch("error")
		s.log.Error().Strs("checked", config.CredentialEnvKeys).Msg("Scraping provider credential is not configured")
		return nil, err
	}

	log := s.log.WithFields(logger.Fields{
		"query":    req.Query,
		"category": req.Category,
		"store":    req.Store,
	})

	if !req.SkipCache {
		if cached, hit := s.cache.Get(req.Query, req.Category); hit {
			s.metrics.IncCache(true)
			s.metrics.IncSearch("cache")
			s.metrics.AddItems(len(cached))
			log.Debug().Int("count", len(cached)).Msg("Serving cached results")
			return cached, nil
		}
		s.metrics.IncCache(false)
	}

	products, err := s.runSequence(ctx, provider, req, log)
	if err != nil || len(products) == 0 {
		if s.sampleFallback && ctx.Err() == nil {
			samples := SampleProducts(req.Query, s.categoryOf(req))
			log.Warn().AnErr("cause", err).Int("count", len(samples)).Msg("Live search produced nothing, serving sample products")
			s.metrics.IncSearch("sample")
			return samples, nil
		}
		if err != nil {
			s.metrics.IncSearch("error")
			return nil, err
		}
		s.metrics.IncSearch("empty")
		log.Info().Msg("No products found")
		return []product.Product{}, nil
	}

	if !req.SkipCache {
		s.cache.Set(req.Query, req.Category, products)
	}
	if s.journal.Enabled() && !s.journal.Persist(ctx, s.categoryOf(req), products) {
		s.metrics.IncPersistFailure()
	}

	s.metrics.IncSearch("live")
	s.metrics.AddItems(len(products))
	log.Info().Int("count", len(products)).Msg("Search completed")
	return products, nil
}

// Attempts returns the per-pass attempt list for req: the category-biased
// URL, then the generic URL when it differs.
func (s *Searcher) Attempts(provider *crawler.Provider, req product.Request) []Attempt {
	biased := provider.SearchURL(req.Query, req.Category)
	generic := provider.GenericURL(req.Query)

	attempts := []Attempt{{Strategy: StrategyCategory, URL: biased}}
	if generic != biased {
		attempts = append(attempts, Attempt{Strategy: StrategyGeneric, URL: generic})
	}
	return attempts
}

// runSequence runs one pass, plus one delayed pass when req.RetryOnEmpty.
// Fetch errors fall through to the next attempt; only an error on the very
// last attempt is returned.
func (s *Searcher) runSequence(ctx context.Context, provider *crawler.Provider, req product.Request, log *logger.Logger) ([]product.Product, error) {
	attempts := s.Attempts(provider, req)
	passes := 1
	if req.RetryOnEmpty {
		passes = 2
	}

	var lastErr error
	for pass := 0; pass < passes; pass++ {
		if pass > 0 {
			s.metrics.IncRetries()
			log.Info().Dur("delay", s.retryDelay).Msg("No results, retrying search sequence")
			if err := s.sleep(ctx, s.retryDelay); err != nil {
				return nil, pkgerrors.NewNetwork(provider.Name, "search cancelled", err)
			}
		}

		for i, attempt := range attempts {
			final := pass == passes-1 && i == len(attempts)-1

			products, err := s.attempt(ctx, provider, req, attempt)
			if err != nil {
				if ctx.Err() != nil || pkgerrors.IsType(err, pkgerrors.ErrorTypeMisconfigured) {
					return nil, err
				}
				if final {
					lastErr = err
					break
				}
				log.Warn().Err(err).Str("strategy", attempt.Strategy).Msg("Attempt failed, falling through")
				continue
			}
			if len(products) > 0 {
				return products, nil
			}
		}
	}
	return nil, lastErr
}

func (s *Searcher) attempt(ctx context.Context, provider *crawler.Provider, req product.Request, attempt Attempt) ([]product.Product, error) {
	source := provider.Name + ":" + attempt.Strategy

	if req.Pacer != nil {
		if err := req.Pacer.Wait(ctx); err != nil {
			return nil, pkgerrors.NewNetwork(provider.Name, "search cancelled", err)
		}
	}

	start := time.Now()
	body, err := s.fetcher.Fetch(ctx, attempt.URL)
	s.metrics.ObserveFetch(time.Since(start))
	if req.Pacer != nil {
		req.Pacer.Done()
	}
	if err != nil {
		s.metrics.IncAttempt(attempt.Strategy, "error")
		s.metrics.IncError(string(pkgerrors.TypeOf(err)))
		s.journal.Failure(ctx, source, err)
		return nil, err
	}

	candidates := provider.ExtractBytes(body)
	products := s.normalizer.Normalize(candidates, req)

	result := "ok"
	message := fmt.Sprintf("%d products from %d candidates", len(products), len(candidates))
	if len(products) == 0 {
		result = "empty"
		if len(candidates) == 0 && len(body) > 0 {
			// page came back but nothing matched the result selectors
			message = fmt.Sprintf("no result elements in %d-byte page", len(body))
			s.metrics.IncError(string(pkgerrors.ErrorTypeParsing))
		}
	}
	s.metrics.IncAttempt(attempt.Strategy, result)
	s.journal.Success(ctx, source, len(products), message)

	s.log.Debug().
		Str("source", source).
		Int("candidates", len(candidates)).
		Int("products", len(products)).
		Msg("Attempt finished")
	return products, nil
}

func (s *Searcher) categoryOf(req product.Request) string {
	if req.Category != "" {
		return req.Category
	}
	if s.normalizer.DefaultCategory != "" {
		return s.normalizer.DefaultCategory
	}
	return "general"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
