package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// IntervalLimiter serializes calls to a provider and spaces their starts at
// least interval apart. Nominatim's usage policy requires this.
type IntervalLimiter struct {
	slot    chan struct{}
	limiter *rate.Limiter
}

// NewIntervalLimiter returns a limiter allowing one call per interval.
// A non-positive interval only serializes.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalLimiter{
		slot:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Do waits for the previous call to finish and for the interval to elapse,
// then runs fn. It returns ctx.Err() if ctx ends while waiting.
func (l *IntervalLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slot }()

	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
