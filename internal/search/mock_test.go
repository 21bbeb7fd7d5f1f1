package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sjsage522/pricescout/internal/product"
)

type fetchResult struct {
	body string
	err  error
}

// MockFetcher replays scripted responses per URL. The last scripted
// response for a URL repeats once the script is exhausted.
type MockFetcher struct {
	mu         sync.Mutex
	configured bool
	scripts    map[string][]fetchResult
	calls      []string
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{configured: true, scripts: make(map[string][]fetchResult)}
}

func (m *MockFetcher) On(url, body string, err error) *MockFetcher {
	m.scripts[url] = append(m.scripts[url], fetchResult{body: body, err: err})
	return m
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)

	script := m.scripts[url]
	if len(script) == 0 {
		return []byte(page()), nil
	}
	r := script[0]
	if len(script) > 1 {
		m.scripts[url] = script[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

func (m *MockFetcher) Configured() bool { return m.configured }

func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type MockSink struct {
	mu       sync.Mutex
	replaced map[string][]product.Product
	logs     []product.LogEntry
	failWith error
}

func NewMockSink() *MockSink {
	return &MockSink{replaced: make(map[string][]product.Product)}
}

func (m *MockSink) ReplaceCategory(ctx context.Context, category string, products []product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.replaced[category] = products
	return nil
}

func (m *MockSink) AppendLog(ctx context.Context, entry product.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.logs = append(m.logs, entry)
	return nil
}

func (m *MockSink) Close() error { return nil }

func (m *MockSink) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sources []string
	for _, e := range m.logs {
		sources = append(sources, e.SourceName)
	}
	return sources
}

type recordingSleep struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, d)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// result renders one search-result element
func result(asin, title string, sponsored bool) string {
	marker := ""
	if sponsored {
		marker = `<span class="puis-sponsored-label-text">Sponsored</span>`
	}
	return fmt.Sprintf(`<div data-component-type="s-search-result" data-asin="%[1]s">%[3]s
		<img class="s-image" src="https://m.media-amazon.com/images/I/%[1]s.jpg"/>
		<h2><a class="a-link-normal" href="/item/dp/%[1]s"><span>%[2]s</span></a></h2>
		<span class="a-icon-alt">4.5 out of 5 stars</span>
		<span aria-label="1,024 ratings">1,024</span>
		<span class="a-price"><span class="a-offscreen">$99.99</span></span>
	</div>`, asin, title, marker)
}

func page(results ...string) string {
	return "<html><body>" + strings.Join(results, "") + "</body></html>"
}

func organicPage(n int) string {
	var results []string
	for i := 1; i <= n; i++ {
		results = append(results, result(fmt.Sprintf("B00000000%d", i), fmt.Sprintf("Drill %d", i), false))
	}
	return page(results...)
}

// recordingPacer logs the order of pacer calls relative to fetches
type recordingPacer struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "wait")
	return nil
}

func (p *recordingPacer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "done")
}
