// Package batch runs the enricher over a list of trial records, one record at
// a time, pacing calls to stay under provider rate limits.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trial-research/internal/model"
)

// Enricher turns one input record into one output record. Implementations
// must not panic; a panic aborts the remaining batch.
type Enricher interface {
	Enrich(ctx context.Context, rec model.TrialRecord) model.EnrichedRecord
}

// ProgressFunc is called after each record is enriched. index is zero-based.
type ProgressFunc func(index, total int, rec model.EnrichedRecord)

// Controller is the sequential batch runner.
type Controller struct {
	enricher Enricher
	pacer    Pacer
	progress ProgressFunc
	runID    string
}

// Option configures a Controller.
type Option func(*Controller)

// WithPacer sets the pacing policy. The default is no delay.
func WithPacer(p Pacer) Option {
	return func(c *Controller) { c.pacer = p }
}

// WithProgress registers a per-record callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Controller) { c.progress = fn }
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(c *Controller) { c.runID = id }
}

// NewController creates a Controller.
func NewController(e Enricher, opts ...Option) *Controller {
	c := &Controller{
		enricher: e,
		pacer:    FixedDelay{},
		runID:    uuid.NewString(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RunID identifies this batch in logs and summaries.
func (c *Controller) RunID() string { return c.runID }

// Run enriches records in order and returns one output per input. The record
// in flight always finishes even if ctx is cancelled; cancellation only stops
// the next record from starting, and the records produced so far are
// returned with the error.
func (c *Controller) Run(ctx context.Context, records []model.TrialRecord) ([]model.EnrichedRecord, error) {
	log := zap.L().With(zap.String("run_id", c.runID))
	out := make([]model.EnrichedRecord, 0, len(records))
	start := time.Now()

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrapf(err, "batch: stopped before record %d/%d", i+1, len(records))
		}
		if err := c.pacer.Wait(ctx, i); err != nil {
			return out, eris.Wrapf(err, "batch: stopped before record %d/%d", i+1, len(records))
		}

		log.Info(fmt.Sprintf("record %d/%d", i+1, len(records)), zap.String("company", rec.CompanyName))

		enriched, err := c.enrichOne(context.WithoutCancel(ctx), rec)
		if err != nil {
			log.Error("batch: aborting", zap.Int("index", i), zap.Error(err))
			return out, eris.Wrapf(err, "batch: record %d/%d (%s)", i+1, len(records), rec.CompanyName)
		}

		out = append(out, enriched)
		log.Info("batch: record done",
			zap.String("company", rec.CompanyName),
			zap.String("status", enriched.ResearchStatus),
			zap.Int("confidence_score", enriched.ConfidenceScore),
			zap.String("new_tier", string(enriched.NewTier)),
		)
		if c.progress != nil {
			c.progress(i, len(records), enriched)
		}
	}

	log.Info("batch: complete",
		zap.Int("records", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// enrichOne turns an Enricher panic into an error.
func (c *Controller) enrichOne(ctx context.Context, rec model.TrialRecord) (out model.EnrichedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("enricher panicked: %v", r)
		}
	}()
	return c.enricher.Enrich(ctx, rec), nil
}
