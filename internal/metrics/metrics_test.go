package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trial-research/internal/model"
)

func TestCollector_WriteTextfile(t *testing.T) {
	c := New()

	c.ObserveProviderCall("apify", "listing", 1500*time.Millisecond, nil)
	c.ObserveProviderCall("apify", "listing", 2*time.Second, errors.New("boom"))
	c.ObserveRejected("jina", "page")
	c.SetBreakerState("jina.page", 1)
	c.RecordResult(model.EnrichedRecord{ResearchStatus: model.StatusComplete, ConfidenceTier: model.ConfidenceHigh})
	c.RecordResult(model.EnrichedRecord{ResearchStatus: model.StatusSkippedTest, ConfidenceTier: model.ConfidenceLow})
	c.ObserveBatch(2, 30*time.Second)

	path := filepath.Join(t.TempDir(), "trial_research.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, `trial_research_provider_calls_total{op="listing",provider="apify",result="ok"} 1`)
	assert.Contains(t, out, `trial_research_provider_calls_total{op="listing",provider="apify",result="error"} 1`)
	assert.Contains(t, out, `trial_research_provider_calls_total{op="page",provider="jina",result="rejected"} 1`)
	assert.Contains(t, out, `trial_research_breaker_state{breaker="jina.page"} 1`)
	assert.Contains(t, out, `trial_research_records_total{confidence_tier="High",outcome="complete"} 1`)
	assert.Contains(t, out, `trial_research_records_total{confidence_tier="Low",outcome="skipped"} 1`)
	assert.Contains(t, out, "trial_research_batch_records 2")
	assert.Contains(t, out, "trial_research_batch_duration_seconds 30")
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveProviderCall("apify", "listing", time.Second, nil)
		c.ObserveRejected("apify", "listing")
		c.SetBreakerState("x", 1)
		c.RecordResult(model.EnrichedRecord{})
		c.ObserveBatch(1, time.Second)
	})
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{model.StatusComplete, "complete"},
		{model.StatusSkippedNotFood, "skipped"},
		{model.StatusSkippedTest, "skipped"},
		{model.ErrorStatus("timeout"), "error"},
		{model.StatusNoPlaceIDs, "no_data"},
		{model.StatusNoDataReturned, "no_data"},
		{"", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.status), tt.status)
	}
}
