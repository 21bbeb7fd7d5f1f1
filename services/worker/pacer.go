package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer keeps an idle gap of at least gap between the end of one provider
// call and the start of the next. It satisfies product.Pacer.
type Pacer struct {
	gap     time.Duration
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewPacer creates a pacer whose first call starts immediately
func NewPacer(gap time.Duration) *Pacer {
	return &Pacer{gap: gap, limiter: rate.NewLimiter(rate.Every(gap), 1)}
}

// Wait blocks until the gap since the last Done has elapsed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	limiter := p.limiter
	p.mu.Unlock()
	return limiter.Wait(ctx)
}

// Done restarts the gap from now. The fresh limiter has its single token
// spent, so the next one becomes available exactly gap later.
func (p *Pacer) Done() {
	if p == nil {
		return
	}
	limiter := rate.NewLimiter(rate.Every(p.gap), 1)
	limiter.AllowN(time.Now(), 1)

	p.mu.Lock()
	p.limiter = limiter
	p.mu.Unlock()
}
