package service

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces successive upstream calls so the app stays under provider
// rate limits. The token bucket allows a burst of one, so the first call in
// a run never waits and every later call waits out the configured interval.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer returns a Pacer that releases one call per interval. A
// non-positive interval disables pacing (used by tests).
func NewPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return nopPacer{}
	}
	return &tokenPacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

type tokenPacer struct {
	limiter *rate.Limiter
}

func (p *tokenPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type nopPacer struct{}

func (nopPacer) Wait(ctx context.Context) error { return ctx.Err() }
