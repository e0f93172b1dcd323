package batch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer decides how long to hold record index before it is enriched.
type Pacer interface {
	Wait(ctx context.Context, index int) error
}

// FixedDelay sleeps for Delay between consecutive records. The first record
// starts immediately, so no delay ever follows the last record.
type FixedDelay struct {
	Delay time.Duration
}

// Wait implements Pacer.
func (p FixedDelay) Wait(ctx context.Context, index int) error {
	if index == 0 || p.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RatePacer caps throughput at a records-per-minute ceiling with a token
// bucket of size one.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a RatePacer allowing perMinute records per minute.
func NewRatePacer(perMinute float64) *RatePacer {
	return &RatePacer{limiter: rate.NewLimiter(rate.Limit(perMinute/60), 1)}
}

// Wait implements Pacer.
func (p *RatePacer) Wait(ctx context.Context, _ int) error {
	return p.limiter.Wait(ctx)
}

// NewPacer picks the rate ceiling when perMinute is positive and the fixed
// delay otherwise.
func NewPacer(delay time.Duration, perMinute float64) Pacer {
	if perMinute > 0 {
		return NewRatePacer(perMinute)
	}
	return FixedDelay{Delay: delay}
}
