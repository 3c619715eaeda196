package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed minimum interval between calls to one external
// dependency. Strict spacing, no burst allowance: each Wait advances the
// internal clock whether or not the guarded call succeeds. Each dependency
// (search, details, classification) gets its own instance.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer with the given minimum spacing between calls.
func NewPacer(minInterval time.Duration) *Pacer {
	if minInterval <= 0 {
		minInterval = 250 * time.Millisecond
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until at least the minimum interval has elapsed since the
// last call it serviced, or the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
