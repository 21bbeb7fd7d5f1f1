package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the search pipeline.
type Metrics struct {
	Registry        *prometheus.Registry
	SearchesTotal   *prometheus.CounterVec
	AttemptsTotal   *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	ItemsReturned   prometheus.Counter
	CacheLookups    *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	SweepTargets    *prometheus.CounterVec
	PersistFailures prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_searches_total",
			Help: "Search requests by outcome (cache, live, empty, sample, error).",
		},
		[]string{"outcome"},
	)
	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_search_attempts_total",
			Help: "Provider fetch attempts by strategy and result.",
		},
		[]string{"strategy", "result"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricescout_fetch_duration_seconds",
			Help:    "Latency of proxied provider fetches.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricescout_items_returned_total",
			Help: "Normalized products returned to callers.",
		},
	)
	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_cache_lookups_total",
			Help: "Result cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricescout_retries_total",
			Help: "Delayed retries of the whole search sequence.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_errors_total",
			Help: "Pipeline errors by type.",
		},
		[]string{"error_type"},
	)
	sweepTargets := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricescout_sweep_targets_total",
			Help: "Sweep (category, store) targets by result.",
		},
		[]string{"result"},
	)
	persistFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricescout_persist_failures_total",
			Help: "Write-through persistence failures.",
		},
	)

	registry.MustRegister(searches, attempts, fetchDuration, items, cacheLookups,
		retries, errorsTotal, sweepTargets, persistFailures)

	return &Metrics{
		Registry:        registry,
		SearchesTotal:   searches,
		AttemptsTotal:   attempts,
		FetchDuration:   fetchDuration,
		ItemsReturned:   items,
		CacheLookups:    cacheLookups,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
		SweepTargets:    sweepTargets,
		PersistFailures: persistFailures,
	}
}

// IncSearch increments the searches counter for an outcome.
func (m *Metrics) IncSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
}

// IncAttempt increments the attempts counter.
func (m *Metrics) IncAttempt(strategy, result string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(strategy, result).Inc()
}

// ObserveFetch records a provider fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddItems adds to the items returned counter.
func (m *Metrics) AddItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsReturned.Add(float64(n))
}

// IncCache increments the cache lookup counter.
func (m *Metrics) IncCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncSweepTarget increments the sweep target counter.
func (m *Metrics) IncSweepTarget(result string) {
	if m == nil {
		return
	}
	m.SweepTargets.WithLabelValues(result).Inc()
}

// IncPersistFailure increments the persistence failure counter.
func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}
