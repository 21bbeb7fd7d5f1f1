package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"sjsage522/pricescout/internal/product"
	pkgerrors "sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/publisher"
	"sjsage522/pricescout/services/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSearcher implements Searcher for testing. Each Search behaves like one
// provider call of the given delay, bracketed by the request's pacer.
type MockSearcher struct {
	mu         sync.Mutex
	requests   []product.Request
	calledAt   []time.Time
	finishedAt []time.Time
	delay      time.Duration
	results    map[string][]product.Product
	errs       map[string]error
	block      chan struct{}
}

var _ Searcher = (*MockSearcher)(nil)

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{
		results: make(map[string][]product.Product),
		errs:    make(map[string]error),
	}
}

func (m *MockSearcher) Search(ctx context.Context, req product.Request) ([]product.Product, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	block := m.block
	m.mu.Unlock()

	if req.Pacer != nil {
		if err := req.Pacer.Wait(ctx); err != nil {
			return nil, err
		}
		defer req.Pacer.Done()
	}

	m.mu.Lock()
	m.calledAt = append(m.calledAt, time.Now())
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	time.Sleep(m.delay)

	m.mu.Lock()
	m.finishedAt = append(m.finishedAt, time.Now())
	m.mu.Unlock()

	key := req.Store + "/" + req.Category
	if err := m.errs[key]; err != nil {
		return nil, err
	}
	return m.results[key], nil
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trimmed  int
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[key] = append(m.messages[key], append([]byte(nil), message...))
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockSink implements store.Sink for testing
type MockSink struct {
	mu   sync.Mutex
	logs []product.LogEntry
}

func (m *MockSink) ReplaceCategory(ctx context.Context, category string, products []product.Product) error {
	return nil
}

func (m *MockSink) AppendLog(ctx context.Context, entry product.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MockSink) Close() error { return nil }

func items(n int, category string) []product.Product {
	var out []product.Product
	for i := 0; i < n; i++ {
		out = append(out, product.Product{ID: category + string(rune('a'+i)), Name: "Item", Category: category, Store: "amazon"})
	}
	return out
}

func TestTargetsCrossProduct(t *testing.T) {
	targets := Targets([]string{"tools", "home"}, []string{"amazon", "other"})

	assert.Equal(t, []Target{
		{Category: "tools", Store: "amazon"},
		{Category: "tools", Store: "other"},
		{Category: "home", Store: "amazon"},
		{Category: "home", Store: "other"},
	}, targets)
	assert.Empty(t, Targets(nil, []string{"amazon"}))
}

func TestRunSweepVisitsEveryTargetInOrder(t *testing.T) {
	searcher := NewMockSearcher()
	searcher.results["amazon/tools"] = items(3, "tools")
	searcher.results["amazon/home"] = items(2, "home")
	pub := NewMockPublisher()
	w := NewWorker(searcher, nil, pub, Options{Pacing: time.Millisecond})

	report, err := w.RunSweep(context.Background(), []string{"tools", "home", "toys"}, []string{"amazon"})

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, searcher.requests, 3)
	assert.Equal(t, "tools", searcher.requests[0].Category)
	assert.Equal(t, "tools", searcher.requests[0].Query)
	assert.True(t, searcher.requests[0].SkipCache)
	assert.False(t, searcher.requests[0].RetryOnEmpty)
	assert.NotNil(t, searcher.requests[0].Pacer)
	assert.Equal(t, "home", searcher.requests[1].Category)
	assert.Equal(t, "toys", searcher.requests[2].Category)

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 5, report.Products)

	// empty targets are not announced
	assert.Len(t, pub.messages, 2)
	assert.Equal(t, 1, pub.trimmed)
}

func TestRunSweepContinuesPastFailures(t *testing.T) {
	searcher := NewMockSearcher()
	searcher.errs["amazon/tools"] = pkgerrors.NewUpstream("www.amazon.com", 500, "boom")
	searcher.results["amazon/home"] = items(1, "home")
	sink := &MockSink{}
	w := NewWorker(searcher, store.NewJournal(sink), nil, Options{Pacing: time.Millisecond})

	report, err := w.RunSweep(context.Background(), []string{"tools", "home"}, []string{"amazon"})

	require.NoError(t, err)
	assert.Len(t, searcher.requests, 2)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Succeeded)
	assert.Contains(t, report.Results[0].Error, "boom")

	require.Len(t, sink.logs, 2)
	assert.Equal(t, "sweep:amazon:tools", sink.logs[0].SourceName)
	assert.Equal(t, product.StatusError, sink.logs[0].Status)
	assert.Equal(t, "sweep:amazon:home", sink.logs[1].SourceName)
	assert.Equal(t, product.StatusSuccess, sink.logs[1].Status)
	assert.Equal(t, 1, sink.logs[1].ItemCount)
}

func TestRunSweepPacesProviderCalls(t *testing.T) {
	searcher := NewMockSearcher()
	pacing := 40 * time.Millisecond
	w := NewWorker(searcher, nil, nil, Options{Pacing: pacing})

	_, err := w.RunSweep(context.Background(), []string{"a", "b", "c"}, []string{"amazon"})
	require.NoError(t, err)

	require.Len(t, searcher.calledAt, 3)
	for i := 1; i < len(searcher.calledAt); i++ {
		idle := searcher.calledAt[i].Sub(searcher.finishedAt[i-1])
		assert.GreaterOrEqual(t, idle, pacing-5*time.Millisecond, "call %d", i)
	}
}

func TestRunSweepPacesCallsSlowerThanPacing(t *testing.T) {
	searcher := NewMockSearcher()
	searcher.delay = 100 * time.Millisecond
	pacing := 50 * time.Millisecond
	w := NewWorker(searcher, nil, nil, Options{Pacing: pacing})

	_, err := w.RunSweep(context.Background(), []string{"a", "b", "c"}, []string{"amazon"})
	require.NoError(t, err)

	require.Len(t, searcher.calledAt, 3)
	require.Len(t, searcher.finishedAt, 3)
	for i := 1; i < len(searcher.calledAt); i++ {
		idle := searcher.calledAt[i].Sub(searcher.finishedAt[i-1])
		assert.GreaterOrEqual(t, idle, pacing-5*time.Millisecond, "idle gap before call %d", i)
	}
}

func TestPacerWaitsFullGapAfterDone(t *testing.T) {
	gap := 60 * time.Millisecond
	p := NewPacer(gap)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), gap/2, "first call starts immediately")

	time.Sleep(2 * gap) // a call longer than the gap
	p.Done()
	finished := time.Now()

	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(finished), gap-5*time.Millisecond)
}

func TestPacerWaitHonorsCancel(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))
	p.Done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))

	var nilPacer *Pacer
	assert.NoError(t, nilPacer.Wait(ctx))
	assert.NotPanics(t, nilPacer.Done)
}

func TestRunSweepStopsOnCancel(t *testing.T) {
	searcher := NewMockSearcher()
	w := NewWorker(searcher, nil, nil, Options{Pacing: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	report, err := w.RunSweep(ctx, []string{"a", "b", "c"}, []string{"amazon"})

	assert.ErrorIs(t, err, context.Canceled)
	// the second target was waiting on the pacer when the sweep was cancelled
	assert.Len(t, searcher.calledAt, 1)
	require.Len(t, report.Results, 2)
	assert.Empty(t, report.Results[0].Error)
	assert.NotEmpty(t, report.Results[1].Error)
}

func TestRunSweepRejectsOverlap(t *testing.T) {
	searcher := NewMockSearcher()
	searcher.block = make(chan struct{})
	w := NewWorker(searcher, nil, nil, Options{Pacing: time.Millisecond})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.RunSweep(context.Background(), []string{"tools"}, []string{"amazon"})
	}()

	require.Eventually(t, func() bool {
		searcher.mu.Lock()
		defer searcher.mu.Unlock()
		return len(searcher.requests) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := w.RunSweep(context.Background(), []string{"tools"}, []string{"amazon"})
	assert.ErrorIs(t, err, ErrSweepRunning)

	close(searcher.block)
	<-done
}

func TestSweepUsesConfiguredPlan(t *testing.T) {
	searcher := NewMockSearcher()
	w := NewWorker(searcher, nil, nil, Options{
		Categories: []string{"electronics"},
		Stores:     []string{"amazon"},
		Pacing:     time.Millisecond,
	})

	_, err := w.Sweep(context.Background())

	require.NoError(t, err)
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, "electronics", searcher.requests[0].Category)
}

func TestSearchOnePublishesRefresh(t *testing.T) {
	searcher := NewMockSearcher()
	searcher.results["/tools"] = items(2, "tools")
	pub := NewMockPublisher()
	w := NewWorker(searcher, nil, pub, Options{})

	products, err := w.SearchOne(context.Background(), " power drill ", " Tools")

	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, "power drill", searcher.requests[0].Query)
	assert.Equal(t, "tools", searcher.requests[0].Category)
	assert.NotNil(t, searcher.requests[0].Pacer)

	msgs := pub.messages[publisher.RefreshKey+":tools"]
	require.Len(t, msgs, 1)
	var refresh publisher.Refresh
	require.NoError(t, json.Unmarshal(msgs[0], &refresh))
	assert.Equal(t, "power drill", refresh.Query)
	assert.Equal(t, 2, refresh.Count)
	assert.Equal(t, "amazon", refresh.Store)
}

func TestSearchOnePropagatesErrors(t *testing.T) {
	searcher := NewMockSearcher()
	searcher.errs["/tools"] = errors.New("boom")
	w := NewWorker(searcher, nil, nil, Options{})

	_, err := w.SearchOne(context.Background(), "drill", "tools")
	assert.EqualError(t, err, "boom")
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	w := NewWorker(NewMockSearcher(), nil, nil, Options{Schedule: "every tuesday"})

	err := w.Start(context.Background())
	assert.Error(t, err)
}

func TestStartStopsWithContext(t *testing.T) {
	w := NewWorker(NewMockSearcher(), nil, nil, Options{Schedule: "@every 1h"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNormalizeCron(t *testing.T) {
	assert.Equal(t, "0 0 3 * * *", normalizeCron("0 3 * * *"))
	assert.Equal(t, "30 0 3 * * *", normalizeCron("30 0 3 * * *"))
	assert.Equal(t, "@daily", normalizeCron("@daily"))
}
