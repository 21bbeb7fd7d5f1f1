package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sjsage522/pricescout/internal/product"
	"sjsage522/pricescout/internal/search"
	"sjsage522/pricescout/logger"
	"sjsage522/pricescout/services/publisher"
	"sjsage522/pricescout/services/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// DefaultPacing is the minimum idle gap between consecutive provider calls.
const DefaultPacing = 2 * time.Second

// DefaultSchedule runs the sweep once a day at 03:00.
const DefaultSchedule = "0 3 * * *"

// ErrSweepRunning is returned when a sweep is requested while one is active.
var ErrSweepRunning = errors.New("a sweep is already running")

// Searcher runs one search. *search.Searcher satisfies it.
type Searcher interface {
	Search(ctx context.Context, req product.Request) ([]product.Product, error)
}

// Options configures a Worker
type Options struct {
	Categories []string
	Stores     []string
	Pacing     time.Duration
	Schedule   string
	Metrics    *search.Metrics
}

// Target is one (category, store) pair of a sweep.
type Target struct {
	Category string `json:"category"`
	Store    string `json:"store"`
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

// SweepReport summarizes a sweep.
type SweepReport struct {
	RunID     string         `json:"run_id"`
	Started   time.Time      `json:"started"`
	Finished  time.Time      `json:"finished"`
	Results   []TargetResult `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Products  int            `json:"products"`
}

// Worker sweeps tracked categories across stores, one provider call at a
// time, and announces refreshed categories.
type Worker struct {
	searcher   Searcher
	journal    *store.Journal
	publisher  publisher.Publisher
	metrics    *search.Metrics
	pacer      *Pacer
	categories []string
	stores     []string
	schedule   string
	running    sync.Mutex
	log        *logger.Logger
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(searcher Searcher, journal *store.Journal, pub publisher.Publisher, opts Options) *Worker {
	if opts.Pacing <= 0 {
		opts.Pacing = DefaultPacing
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	return &Worker{
		searcher:   searcher,
		journal:    journal,
		publisher:  pub,
		metrics:    opts.Metrics,
		pacer:      NewPacer(opts.Pacing),
		categories: opts.Categories,
		stores:     opts.Stores,
		schedule:   opts.Schedule,
		log:        logger.ForWorker(),
	}
}

// Targets expands categories × stores in order, categories outermost.
func Targets(categories, stores []string) []Target {
	targets := make([]Target, 0, len(categories)*len(stores))
	for _, category := range categories {
		for _, s := range stores {
			targets = append(targets, Target{Category: category, Store: s})
		}
	}
	return targets
}

// Sweep runs a sweep over the configured plan
func (w *Worker) Sweep(ctx context.Context) (SweepReport, error) {
	return w.RunSweep(ctx, w.categories, w.stores)
}

// RunSweep searches every (category, store) pair and persists the results.
// A failing target is recorded and the sweep moves on.
func (w *Worker) RunSweep(ctx context.Context, categories, stores []string) (SweepReport, error) {
	if !w.running.TryLock() {
		return SweepReport{}, ErrSweepRunning
	}
	defer w.running.Unlock()

	report := SweepReport{
		RunID:   uuid.New().String(),
		Started: time.Now(),
	}
	log := w.log.WithField("run_id", report.RunID)
	log.Info().Strs("categories", categories).Strs("stores", stores).Msg("Sweep started")

	for _, target := range Targets(categories, stores) {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("Sweep interrupted")
			break
		}

		result := w.sweepTarget(ctx, report.RunID, target)
		report.Results = append(report.Results, result)
		if result.Error != "" {
			report.Failed++
			continue
		}
		report.Succeeded++
		report.Products += result.Count
	}

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to trim streams")
		}
	}

	report.Finished = time.Now()
	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("products", report.Products).
		Dur("elapsed", report.Finished.Sub(report.Started)).
		Msg("Sweep finished")
	return report, ctx.Err()
}

func (w *Worker) sweepTarget(ctx context.Context, runID string, target Target) TargetResult {
	source := fmt.Sprintf("sweep:%s:%s", target.Store, target.Category)
	result := TargetResult{Target: target}

	products, err := w.searcher.Search(ctx, product.Request{
		Query:     target.Category,
		Category:  target.Category,
		Store:     target.Store,
		SkipCache: true,
		Pacer:     w.pacer,
	})
	if err != nil {
		result.Error = err.Error()
		w.metrics.IncSweepTarget("error")
		w.journal.Failure(ctx, source, err)
		w.log.Error().Err(err).Str("run_id", runID).Str("store", target.Store).Str("category", target.Category).Msg("Sweep target failed")
		return result
	}

	result.Count = len(products)
	w.metrics.IncSweepTarget("ok")
	w.journal.Success(ctx, source, len(products), fmt.Sprintf("run %s", runID))

	if len(products) > 0 {
		w.announce(ctx, runID, target.Category, target.Category, target.Store, products)
	}
	return result
}

// SearchOne runs and persists a single on-demand search.
func (w *Worker) SearchOne(ctx context.Context, query, category string) ([]product.Product, error) {
	query = strings.TrimSpace(query)
	category = strings.ToLower(strings.TrimSpace(category))
	products, err := w.searcher.Search(ctx, product.Request{
		Query:     query,
		Category:  category,
		SkipCache: true,
		Pacer:     w.pacer,
	})
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		w.announce(ctx, "", category, query, products[0].Store, products)
	}
	return products, nil
}

func (w *Worker) announce(ctx context.Context, runID, category, query, storeName string, products []product.Product) {
	if w.publisher == nil {
		return
	}
	err := publisher.PublishRefresh(ctx, w.publisher, publisher.Refresh{
		RunID:     runID,
		Store:     storeName,
		Category:  category,
		Query:     query,
		Count:     len(products),
		Products:  products,
		Timestamp: time.Now(),
	})
	if err != nil {
		w.log.Warn().Err(err).Str("category", category).Msg("Failed to publish refresh")
	}
}

// Start schedules the sweep and blocks until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(normalizeCron(w.schedule), func() {
		if _, err := w.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.log.Warn().Err(err).Msg("Scheduled sweep did not complete")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", w.schedule, err)
	}

	c.Start()
	w.log.Info().Str("schedule", w.schedule).Msg("Sweep scheduler started")

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	w.log.Info().Msg("Sweep scheduler stopped")
	return nil
}

// normalizeCron prepends "0 " to standard 5-field cron expressions
// so they work with the 6-field (with seconds) parser.
func normalizeCron(schedule string) string {
	if len(strings.Fields(schedule)) == 5 {
		return "0 " + schedule
	}
	return schedule
}
