// Package enrich turns one trial record into an enriched, scored output
// record. Enrich is total: provider failures and panics become an
// "Error: <message>" research status instead of escaping to the caller.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/trial-research/internal/model"
	"github.com/sells-group/trial-research/internal/provider"
)

// Mode selects how the primary listing lookup is keyed.
type Mode string

const (
	// ModeAuto uses pre-resolved place ids when a record has them and a
	// name search otherwise.
	ModeAuto Mode = "auto"
	// ModeName always searches by name.
	ModeName Mode = "name"
	// ModePlaceIDs only looks up records that carry place ids.
	ModePlaceIDs Mode = "place_ids"
)

// ParseMode validates a mode string. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeName, ModePlaceIDs:
		return m, nil
	default:
		return "", eris.Errorf("enrich: unknown mode %q (want auto, name or place_ids)", s)
	}
}

const (
	restaurantFlagYes = "yes"
	testAccountName   = "your restaurant"

	minCandidates = 3
	maxCandidates = 5
)

// Options tunes an Enricher.
type Options struct {
	Mode        Mode
	MaxResults  int
	QuerySuffix string

	JobsEnabled    bool
	JobsMaxResults int
	PageEnabled    bool
	RetierEnabled  bool

	// MultiLocationMinCandidates is the candidate count treated as evidence
	// of several locations. It approximates a branch count; similarly named
	// businesses also count.
	MultiLocationMinCandidates int
}

// DefaultOptions returns the settings the batch scripts ran with.
func DefaultOptions() Options {
	return Options{
		Mode:                       ModeAuto,
		MaxResults:                 maxCandidates,
		QuerySuffix:                "restaurant",
		JobsEnabled:                true,
		JobsMaxResults:             10,
		PageEnabled:                true,
		RetierEnabled:              true,
		MultiLocationMinCandidates: 3,
	}
}

// Enricher enriches records one at a time through a provider.Client.
type Enricher struct {
	client provider.Client
	opts   Options
	now    func() time.Time
}

// New creates an Enricher. MaxResults is clamped to the 3..5 range.
func New(client provider.Client, opts Options) *Enricher {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	opts.MaxResults = min(max(opts.MaxResults, minCandidates), maxCandidates)
	if opts.JobsMaxResults <= 0 {
		opts.JobsMaxResults = 10
	}
	return &Enricher{client: client, opts: opts, now: time.Now}
}

// Options returns the effective options.
func (e *Enricher) Options() Options { return e.opts }

// Enrich runs the eligibility gate, the lookups and scoring for one record.
// It always returns exactly one output record.
func (e *Enricher) Enrich(ctx context.Context, t model.TrialRecord) (rec model.EnrichedRecord) {
	log := zap.L().With(zap.String("company", t.CompanyName))

	defer func() {
		if r := recover(); r != nil {
			log.Error("enrich: recovered panic", zap.Any("panic", r))
			rec = e.finish(fold(model.NewEnrichedRecord(t), withStatus(model.ErrorStatus(fmt.Sprint(r)))))
		}
	}()

	base := model.NewEnrichedRecord(t)

	if status, skip := eligibility(t); skip {
		log.Info("enrich: skipped", zap.String("status", status))
		return e.finish(fold(base, withStatus(status)))
	}

	listing, status, err := e.primary(ctx, t)
	if err != nil {
		log.Warn("enrich: primary lookup failed", zap.Error(err))
		return e.finish(fold(base, withStatus(model.ErrorStatus(errorMessage(err)))))
	}
	if status != "" {
		log.Info("enrich: no primary data", zap.String("status", status))
		return e.finish(fold(base, listing, withStatus(status)))
	}

	rec = fold(base, listing)
	if rec.Website != "" {
		rec = fold(rec, e.jobs(ctx, t, log), e.page(ctx, rec.Website, log))
	}

	return e.finish(rec)
}

// eligibility reports the skip status for records that must not be looked up.
func eligibility(t model.TrialRecord) (string, bool) {
	if !strings.EqualFold(strings.TrimSpace(t.IsRestaurant), restaurantFlagYes) {
		return model.StatusSkippedNotFood, true
	}
	if IsTestAccount(t.CompanyName) {
		return model.StatusSkippedTest, true
	}
	return "", false
}

// IsTestAccount reports whether name is the signup placeholder.
func IsTestAccount(name string) bool {
	folder := cases.Fold()
	return folder.String(strings.TrimSpace(name)) == folder.String(testAccountName)
}

// Query builds the listing search string for a record.
func (e *Enricher) Query(t model.TrialRecord) string {
	parts := []string{strings.TrimSpace(t.CompanyName)}
	if s := strings.TrimSpace(e.opts.QuerySuffix); s != "" {
		parts = append(parts, s)
	}
	if l := strings.TrimSpace(t.Locality); l != "" {
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}

// primary runs the listing lookup selected by the mode. A non-empty status
// ends the record without secondary lookups.
func (e *Enricher) primary(ctx context.Context, t model.TrialRecord) (delta, string, error) {
	useIDs := false
	switch e.opts.Mode {
	case ModePlaceIDs:
		if !t.HasPlaceIDs() {
			return nil, model.StatusNoPlaceIDs, nil
		}
		useIDs = true
	case ModeAuto:
		useIDs = t.HasPlaceIDs()
	}

	if useIDs {
		candidates, err := e.client.LookupByExternalID(ctx, t.PlaceIDs, e.opts.MaxResults)
		if err != nil {
			return nil, "", err
		}
		d := listingDelta(candidates, t.PlaceIDs, e.opts.MultiLocationMinCandidates)
		if len(candidates) == 0 && e.opts.Mode == ModePlaceIDs {
			return d, model.StatusNoDataReturned, nil
		}
		return d, "", nil
	}

	candidates, err := e.client.LookupListing(ctx, e.Query(t), e.opts.MaxResults)
	if err != nil {
		return nil, "", err
	}
	if len(candidates) == 0 {
		zap.L().Debug("enrich: no listing found", zap.String("company", t.CompanyName))
	}
	return listingDelta(candidates, nil, e.opts.MultiLocationMinCandidates), "", nil
}

// JobsQuery builds the job search string for a record. The listing suffix is
// left out since postings are titled by role, not by business type.
func (e *Enricher) JobsQuery(t model.TrialRecord) string {
	parts := []string{strings.TrimSpace(t.CompanyName)}
	if l := strings.TrimSpace(t.Locality); l != "" {
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}

// jobs looks up postings for the company. Failures, panics included, are
// logged and leave the record unchanged.
func (e *Enricher) jobs(ctx context.Context, t model.TrialRecord, log *zap.Logger) (d delta) {
	if !e.opts.JobsEnabled {
		return nil
	}
	defer recoverSecondary(log, "jobs", &d)

	postings, err := e.client.LookupJobPostings(ctx, e.JobsQuery(t), e.opts.JobsMaxResults)
	if err != nil {
		log.Warn("enrich: job lookup failed", zap.Error(err))
		return nil
	}
	return jobsDelta(postings)
}

// page fetches website signals and extracts the parent company. Failures,
// panics included, are logged and leave the record unchanged.
func (e *Enricher) page(ctx context.Context, website string, log *zap.Logger) (d delta) {
	if !e.opts.PageEnabled {
		return nil
	}
	defer recoverSecondary(log, "page", &d)
	signals, err := e.client.FetchPageSignals(ctx, website)
	if err != nil {
		log.Warn("enrich: page lookup failed", zap.String("url", website), zap.Error(err))
		return nil
	}
	if signals == nil {
		return nil
	}

	parent, err := ParentCompany(signals.Footer)
	switch {
	case err != nil:
		log.Debug("enrich: footer not parseable", zap.String("url", website), zap.Error(err))
	case parent == "":
		log.Debug("enrich: no parent company in footer", zap.String("url", website))
	default:
		log.Info("enrich: parent company detected", zap.String("parent_company", parent))
	}
	return pageDelta(signals, parent)
}

// recoverSecondary drops the delta of a secondary lookup that panicked so the
// primary data survives.
func recoverSecondary(log *zap.Logger, lookup string, d *delta) {
	if r := recover(); r != nil {
		log.Error("enrich: secondary lookup panicked",
			zap.String("lookup", lookup),
			zap.Any("panic", r),
		)
		*d = nil
	}
}

func (e *Enricher) finish(rec model.EnrichedRecord) model.EnrichedRecord {
	rec = fold(rec, scoreDelta(e.opts.RetierEnabled))
	rec.ResearchDate = e.now()
	return rec
}

// errorMessage prefers the provider's human-readable message.
func errorMessage(err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
