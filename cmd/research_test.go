package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trial-research/internal/batch"
	"github.com/sells-group/trial-research/internal/config"
	"github.com/sells-group/trial-research/internal/enrich"
	"github.com/sells-group/trial-research/internal/model"
	"github.com/sells-group/trial-research/internal/resilience"
	"github.com/sells-group/trial-research/internal/trialio"
)

const testFixtures = `
listings:
  "Harbor Grill restaurant":
    candidates:
      - title: Harbor Grill
        website: https://harborgrill.com
        category: Seafood restaurant
        price_level: "$$$"
        rating: 4.6
        review_count: 812
        place_id: ChIJ1
      - title: Harbor Grill Annapolis
        place_id: ChIJ2
      - title: Harbor Grill Baltimore
        place_id: ChIJ3
  "Broken Diner restaurant":
    error: actor run timed out
jobs:
  Harbor Grill:
    postings:
      - title: Line Cook
      - title: Server
pages:
  https://harborgrill.com:
    title: Harbor Grill
    footer: © 2024 Tidewater Hospitality Group. All rights reserved.
`

const testTrials = "Company / Account,Email,Tier,Declared Number of Locations,Is Restaurant\n" +
	"Harbor Grill,owner@harborgrill.com,Tier 2,3,Yes\n" +
	"Nail Salon,nails@example.com,Tier 4,1,No\n" +
	"Broken Diner,diner@example.com,Tier 3,1,yes\n" +
	"Your Restaurant,test@example.com,Tier 5,1,Yes\n"

// testConfig mirrors the Load defaults.
func testConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{
			Listing:          config.ProviderApify,
			Page:             config.ProviderApify,
			TimeoutSecs:      45,
			BreakerFailures:  5,
			BreakerResetSecs: 60,
		},
		Pipeline: config.PipelineConfig{
			Mode:                       "auto",
			MaxResults:                 5,
			QuerySuffix:                "restaurant",
			JobsEnabled:                true,
			PageEnabled:                true,
			RetierEnabled:              true,
			JobsMaxResults:             10,
			MultiLocationMinCandidates: 3,
		},
		Batch: config.BatchConfig{DelayMS: 0},
		Log:   config.LogConfig{Level: "info", Format: "json"},
	}
}

func writeTestInputs(t *testing.T) (dir, input, fixtures string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "trials.csv")
	fixtures = filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(input, []byte(testTrials), 0o644))
	require.NoError(t, os.WriteFile(fixtures, []byte(testFixtures), 0o644))
	return dir, input, fixtures
}

func offlineFlags(input, fixtures, output string) researchFlags {
	return researchFlags{
		Input:    input,
		Output:   output,
		DelayMS:  0,
		RPM:      -1,
		Offline:  true,
		Fixtures: fixtures,
	}
}

func TestRunResearch_Offline(t *testing.T) {
	cfg = testConfig()
	dir, input, fixtures := writeTestInputs(t)

	opts := offlineFlags(input, fixtures, filepath.Join(dir, "out", "results.csv"))
	opts.SummaryJSON = filepath.Join(dir, "summary.json")
	opts.MetricsFile = filepath.Join(dir, "metrics.prom")

	var stdout bytes.Buffer
	require.NoError(t, runResearch(context.Background(), opts, &stdout))

	got, err := trialio.ReadEnrichedFile(opts.Output)
	require.NoError(t, err)
	require.Len(t, got, 4)

	harbor := got[0]
	assert.Equal(t, model.StatusComplete, harbor.ResearchStatus)
	assert.Equal(t, "https://harborgrill.com", harbor.Website)
	assert.Equal(t, 3, harbor.LocationsFound)
	assert.True(t, harbor.AppearsMultiLocation)
	assert.Equal(t, 2, harbor.JobPostingsFound)
	assert.Equal(t, "Tidewater Hospitality Group", harbor.ParentCompany)
	assert.Equal(t, 125, harbor.ConfidenceScore)
	assert.Equal(t, model.ConfidenceHigh, harbor.ConfidenceTier)

	assert.Equal(t, model.StatusSkippedNotFood, got[1].ResearchStatus)
	assert.Equal(t, "Error: fixture listing: actor run timed out", got[2].ResearchStatus)
	assert.Equal(t, model.StatusSkippedTest, got[3].ResearchStatus)
	for _, r := range got[1:] {
		assert.Equal(t, 50, r.ConfidenceScore)
		assert.Equal(t, model.Tier5, r.NewTier)
	}

	assert.Contains(t, stdout.String(), "- Total: 4\n")
	assert.Contains(t, stdout.String(), "- Errors: 1\n")

	data, err := os.ReadFile(opts.SummaryJSON)
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.EqualValues(t, 4, summary["total"])
	assert.NotEmpty(t, summary["run_id"])

	metricsText, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), `trial_research_records_total{confidence_tier="Low",outcome="skipped"} 2`)
	assert.Contains(t, string(metricsText), "trial_research_batch_records 4")
}

func TestRunResearch_WindowAndXLSX(t *testing.T) {
	cfg = testConfig()
	dir, input, fixtures := writeTestInputs(t)

	opts := offlineFlags(input, fixtures, filepath.Join(dir, "results.xlsx"))
	opts.Start = 1
	opts.Limit = 2

	var stdout bytes.Buffer
	require.NoError(t, runResearch(context.Background(), opts, &stdout))

	got, err := trialio.ReadEnrichedFile(opts.Output)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Nail Salon", got[0].CompanyName)
	assert.Equal(t, "Broken Diner", got[1].CompanyName)
}

func TestRunResearch_CancelledBeforeStart(t *testing.T) {
	cfg = testConfig()
	dir, input, fixtures := writeTestInputs(t)
	output := filepath.Join(dir, "results.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := runResearch(ctx, offlineFlags(input, fixtures, output), &stdout)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no rows produced, no file written")
	assert.Contains(t, stdout.String(), "- Total: 0\n")
}

func TestRunResearch_OfflineNeedsFixtures(t *testing.T) {
	cfg = testConfig()
	dir, input, _ := writeTestInputs(t)

	opts := offlineFlags(input, "", filepath.Join(dir, "results.csv"))
	err := runResearch(context.Background(), opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--offline requires --fixtures")
}

func TestRunResearch_LiveNeedsToken(t *testing.T) {
	cfg = testConfig()
	dir, input, _ := writeTestInputs(t)

	opts := offlineFlags(input, "", filepath.Join(dir, "results.csv"))
	opts.Offline = false
	err := runResearch(context.Background(), opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apify.token is required")
}

func TestRunResearch_BadInput(t *testing.T) {
	cfg = testConfig()
	dir := t.TempDir()
	input := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(input, []byte("Company,Email\nA,b@c.com\n"), 0o644))

	err := runResearch(context.Background(), offlineFlags(input, "x.yaml", filepath.Join(dir, "out.csv")), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestRunResearch_BadFormat(t *testing.T) {
	cfg = testConfig()
	opts := researchFlags{Input: "unused.csv", Output: "out.csv", Format: "parquet"}
	err := runResearch(context.Background(), opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestResearchPacer(t *testing.T) {
	cfg = testConfig()
	cfg.Batch.DelayMS = 1500

	assert.Equal(t, batch.FixedDelay{Delay: 1500 * time.Millisecond}, researchPacer(researchFlags{DelayMS: -1, RPM: -1}))
	assert.Equal(t, batch.FixedDelay{}, researchPacer(researchFlags{DelayMS: 0, RPM: -1}))
	assert.IsType(t, &batch.RatePacer{}, researchPacer(researchFlags{DelayMS: -1, RPM: 30}))
}

func TestTrippedBreakers(t *testing.T) {
	assert.Empty(t, trippedBreakers(nil))
	assert.Empty(t, trippedBreakers(map[string]resilience.CircuitState{"apify.listing": resilience.CircuitClosed}))

	got := trippedBreakers(map[string]resilience.CircuitState{
		"jina.page":     resilience.CircuitHalfOpen,
		"apify.listing": resilience.CircuitOpen,
		"apify.jobs":    resilience.CircuitClosed,
	})
	assert.Equal(t, []string{"apify.listing=open", "jina.page=half-open"}, got)
}

func TestInitResearch_BreakersTripOnFailures(t *testing.T) {
	cfg = testConfig()
	cfg.Provider.BreakerFailures = 1
	_, _, fixtures := writeTestInputs(t)

	env, err := initResearch(cfg, true, fixtures)
	require.NoError(t, err)

	_, err = env.Client.LookupListing(context.Background(), "Broken Diner restaurant", 5)
	require.Error(t, err)

	tripped := trippedBreakers(env.Breakers.States())
	require.Len(t, tripped, 1)
	assert.True(t, strings.HasSuffix(tripped[0], "=open"), tripped[0])
}

func TestRunSummarize(t *testing.T) {
	cfg = testConfig()
	dir, input, fixtures := writeTestInputs(t)
	output := filepath.Join(dir, "results.csv")
	require.NoError(t, runResearch(context.Background(), offlineFlags(input, fixtures, output), &bytes.Buffer{}))

	var text bytes.Buffer
	require.NoError(t, runSummarize(&text, output, false))
	assert.Contains(t, text.String(), "- Total: 4\n")
	assert.Contains(t, text.String(), "1. Harbor Grill: 812 reviews, 4.6 stars")

	var js bytes.Buffer
	require.NoError(t, runSummarize(&js, output, true))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["skipped"])
}

func TestPrintInspection(t *testing.T) {
	cfg = testConfig()
	records, err := trialio.ReadCSV(strings.NewReader(testTrials))
	require.NoError(t, err)

	opts, err := enrichOptions(cfg.Pipeline)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printInspection(&out, records[:1], enrich.New(nil, opts)))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Harbor Grill", decoded[0]["company_name"])
	assert.Equal(t, "Harbor Grill restaurant", decoded[0]["query"])
	assert.Equal(t, "Harbor Grill", decoded[0]["jobs_query"])
	assert.Equal(t, false, decoded[0]["test_account"])
}

func TestRunResearch_SampleData(t *testing.T) {
	cfg = testConfig()
	output := filepath.Join(t.TempDir(), "sample.csv")

	opts := offlineFlags("../testdata/trials.csv", "../testdata/fixtures.yaml", output)
	require.NoError(t, runResearch(context.Background(), opts, &bytes.Buffer{}))

	got, err := trialio.ReadEnrichedFile(output)
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "Tidewater Hospitality Group", got[0].ParentCompany)
	assert.Equal(t, "https://harborgrill.com/careers", got[0].CareersURL)

	bistro := got[1]
	assert.Equal(t, model.StatusComplete, bistro.ResearchStatus)
	assert.Equal(t, "ChIJcornerbistro01", bistro.PlaceIDs)
	assert.Equal(t, 1, bistro.LocationsFound)
	assert.Zero(t, bistro.JobPostingsFound, "jobs failure leaves the record untouched")
	assert.Empty(t, bistro.ParentCompany)

	assert.True(t, model.IsErrorStatus(got[2].ResearchStatus))
	assert.Equal(t, model.StatusSkippedNotFood, got[3].ResearchStatus)
	assert.Equal(t, model.StatusSkippedTest, got[4].ResearchStatus)
}
