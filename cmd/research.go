package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/trial-research/internal/batch"
	"github.com/sells-group/trial-research/internal/model"
	"github.com/sells-group/trial-research/internal/report"
	"github.com/sells-group/trial-research/internal/resilience"
	"github.com/sells-group/trial-research/internal/trialio"
)

// researchFlags holds per-run overrides. Negative pacing values mean "use
// the configured value".
type researchFlags struct {
	Input       string
	Output      string
	Format      string
	Limit       int
	Start       int
	DelayMS     int
	RPM         float64
	Offline     bool
	Fixtures    string
	SummaryJSON string
	MetricsFile string
}

var researchOpts researchFlags

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Enrich and re-tier trial accounts from a CSV or XLSX export",
	Long: `Reads a trial export, enriches each restaurant one at a time and writes
one output row per input row.

Examples:
  # Real providers, first 50 records
  trial-research research --input trials.csv --limit 50

  # Resume a large export from record 200, writing XLSX
  trial-research research --input trials.xlsx --start 200 --output out/batch2.xlsx

  # Offline run against fixtures (no credentials needed)
  trial-research research --input trials.csv --offline --fixtures testdata/fixtures.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runResearch(ctx, researchOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := researchCmd.Flags()
	f.StringVar(&researchOpts.Input, "input", "", "path to trial export (.csv or .xlsx, required)")
	f.StringVar(&researchOpts.Output, "output", "data/output/researched_trials.csv", "output path")
	f.StringVar(&researchOpts.Format, "format", "", "output format: csv or xlsx (default: from --output extension)")
	f.IntVar(&researchOpts.Limit, "limit", 0, "max records to process (0 = all)")
	f.IntVar(&researchOpts.Start, "start", 0, "zero-based index of the first record to process")
	f.IntVar(&researchOpts.DelayMS, "delay-ms", -1, "fixed delay between records in ms (default: batch.delay_ms)")
	f.Float64Var(&researchOpts.RPM, "rpm", -1, "records per minute ceiling, overrides --delay-ms (default: batch.records_per_minute)")
	f.BoolVar(&researchOpts.Offline, "offline", false, "serve lookups from --fixtures instead of live providers")
	f.StringVar(&researchOpts.Fixtures, "fixtures", "", "fixture YAML for --offline")
	f.StringVar(&researchOpts.SummaryJSON, "summary-json", "", "also write the run summary as JSON to this path")
	f.StringVar(&researchOpts.MetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this path after the run")
	_ = researchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(ctx context.Context, opts researchFlags, out io.Writer) error {
	format := trialio.FormatFromPath(opts.Output)
	if opts.Format != "" {
		var err error
		if format, err = trialio.ParseFormat(opts.Format); err != nil {
			return err
		}
	}

	records, err := trialio.ReadFile(opts.Input)
	if err != nil {
		return eris.Wrap(err, "research: read input")
	}
	total := len(records)
	records = trialio.Window(records, opts.Start, opts.Limit)
	zap.L().Info("research: input loaded",
		zap.String("path", opts.Input),
		zap.Int("records", total),
		zap.Int("selected", len(records)),
		zap.Int("start", opts.Start),
	)

	env, err := initResearch(cfg, opts.Offline, opts.Fixtures)
	if err != nil {
		return eris.Wrap(err, "research: init")
	}

	ctrl := batch.NewController(env.Enricher,
		batch.WithPacer(researchPacer(opts)),
		batch.WithProgress(func(_, _ int, rec model.EnrichedRecord) {
			env.Metrics.RecordResult(rec)
		}),
	)

	start := time.Now()
	results, runErr := ctrl.Run(ctx, records)
	env.Metrics.ObserveBatch(len(results), time.Since(start))
	if runErr != nil {
		zap.L().Error("research: batch stopped early",
			zap.Int("completed", len(results)),
			zap.Int("selected", len(records)),
			zap.Error(runErr),
		)
	}
	if tripped := trippedBreakers(env.Breakers.States()); len(tripped) > 0 {
		zap.L().Warn("research: providers left unhealthy", zap.Strings("breakers", tripped))
	}

	if err := writeResults(opts.Output, format, results); err != nil {
		return err
	}

	summary := report.Summarize(results)
	summary.RunID = ctrl.RunID()
	fmt.Fprint(out, report.FormatText(summary))

	if opts.SummaryJSON != "" {
		if err := writeSummaryJSON(opts.SummaryJSON, summary); err != nil {
			return err
		}
	}

	if opts.MetricsFile != "" {
		if err := env.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return err
		}
		zap.L().Info("research: metrics written", zap.String("path", opts.MetricsFile))
	}

	return runErr
}

// researchPacer resolves flag overrides against the batch config.
func researchPacer(opts researchFlags) batch.Pacer {
	delay := cfg.Batch.Delay()
	if opts.DelayMS >= 0 {
		delay = time.Duration(opts.DelayMS) * time.Millisecond
	}
	rpm := cfg.Batch.RecordsPerMinute
	if opts.RPM >= 0 {
		rpm = opts.RPM
	}
	return batch.NewPacer(delay, rpm)
}

// trippedBreakers lists breakers that are not closed as "name=state", sorted.
func trippedBreakers(states map[string]resilience.CircuitState) []string {
	var out []string
	for name, st := range states {
		if st != resilience.CircuitClosed {
			out = append(out, name+"="+st.String())
		}
	}
	sort.Strings(out)
	return out
}

func writeResults(path string, format trialio.Format, results []model.EnrichedRecord) error {
	if len(results) == 0 {
		zap.L().Warn("research: no results, output not written", zap.String("path", path))
		return nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "research: create output dir %s", dir)
		}
	}
	if _, err := trialio.WriteFile(path, format, results); err != nil {
		return eris.Wrap(err, "research: write output")
	}
	zap.L().Info("research: results written",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("records", len(results)),
	)
	return nil
}

func writeSummaryJSON(path string, s report.Summary) error {
	data, err := report.FormatJSON(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "research: write summary %s", path)
	}
	return nil
}
