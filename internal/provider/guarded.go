package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/trial-research/internal/metrics"
	"github.com/sells-group/trial-research/internal/resilience"
)

// Names labels the provider behind each lookup for breakers, metrics and logs.
type Names struct {
	Listing string
	Jobs    string
	Page    string
}

// GuardConfig configures a Guarded client. Zero values disable the
// corresponding guard.
type GuardConfig struct {
	Timeout  time.Duration
	Breakers *resilience.Breakers
	Metrics  *metrics.Collector
}

// Guarded bounds every call with a timeout, fails fast through a
// per-(provider, op) circuit breaker and records call metrics. Failures are
// always returned as *Error. Nothing is retried.
type Guarded struct {
	next  Client
	names Names
	cfg   GuardConfig
}

// NewGuarded wraps next.
func NewGuarded(next Client, names Names, cfg GuardConfig) *Guarded {
	return &Guarded{next: next, names: names, cfg: cfg}
}

// LookupListing implements Client.
func (g *Guarded) LookupListing(ctx context.Context, query string, maxResults int) ([]ListingCandidate, error) {
	return guard(ctx, g, g.names.Listing, OpListing, func(ctx context.Context) ([]ListingCandidate, error) {
		return g.next.LookupListing(ctx, query, maxResults)
	})
}

// LookupByExternalID implements Client.
func (g *Guarded) LookupByExternalID(ctx context.Context, ids []string, maxResults int) ([]ListingCandidate, error) {
	return guard(ctx, g, g.names.Listing, OpByID, func(ctx context.Context) ([]ListingCandidate, error) {
		return g.next.LookupByExternalID(ctx, ids, maxResults)
	})
}

// LookupJobPostings implements Client.
func (g *Guarded) LookupJobPostings(ctx context.Context, query string, maxResults int) ([]JobPosting, error) {
	return guard(ctx, g, g.names.Jobs, OpJobs, func(ctx context.Context) ([]JobPosting, error) {
		return g.next.LookupJobPostings(ctx, query, maxResults)
	})
}

// FetchPageSignals implements Client.
func (g *Guarded) FetchPageSignals(ctx context.Context, url string) (*PageSignals, error) {
	return guard(ctx, g, g.names.Page, OpPage, func(ctx context.Context) (*PageSignals, error) {
		return g.next.FetchPageSignals(ctx, url)
	})
}

func guard[T any](ctx context.Context, g *Guarded, provider, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	var breaker *resilience.Breaker
	if g.cfg.Breakers != nil {
		breaker = g.cfg.Breakers.Get(provider + "." + op)
		if err := breaker.Allow(); err != nil {
			g.cfg.Metrics.ObserveRejected(provider, op)
			return zero, NewError(provider, op, err)
		}
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := fn(ctx)
	elapsed := time.Since(start)

	g.cfg.Metrics.ObserveProviderCall(provider, op, elapsed, err)
	if breaker != nil {
		breaker.Record(err)
	}

	if err != nil {
		zap.L().Debug("provider: call failed",
			zap.String("provider", provider),
			zap.String("op", op),
			zap.Duration("elapsed", elapsed),
			zap.Bool("transient", resilience.IsTransient(err)),
			zap.Error(err),
		)
		return zero, AsError(provider, op, err)
	}
	return v, nil
}
