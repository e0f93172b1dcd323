// Package metrics collects Prometheus counters for a research batch and
// exports them as a node_exporter textfile once the batch finishes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/sells-group/trial-research/internal/model"
)

// Collector holds the batch metrics on a private registry. A nil *Collector
// is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	records         *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	batchRecords    prometheus.Gauge
	batchDuration   prometheus.Gauge
}

// New creates a Collector with its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trial_research_records_total",
				Help: "Records enriched, by outcome and confidence tier",
			},
			[]string{"outcome", "confidence_tier"},
		),

		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trial_research_provider_calls_total",
				Help: "Provider calls, by provider, operation and result",
			},
			[]string{"provider", "op", "result"},
		),

		providerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trial_research_provider_call_duration_seconds",
				Help:    "Provider call latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
			},
			[]string{"provider", "op"},
		),

		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trial_research_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
			},
			[]string{"breaker"},
		),

		batchRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trial_research_batch_records",
			Help: "Records produced by the last batch",
		}),

		batchDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trial_research_batch_duration_seconds",
			Help: "Wall-clock duration of the last batch",
		}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveProviderCall records one provider call.
func (c *Collector) ObserveProviderCall(provider, op string, d time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.providerCalls.WithLabelValues(provider, op, result).Inc()
	c.providerLatency.WithLabelValues(provider, op).Observe(d.Seconds())
}

// ObserveRejected records a call the circuit breaker refused.
func (c *Collector) ObserveRejected(provider, op string) {
	if c == nil {
		return
	}
	c.providerCalls.WithLabelValues(provider, op, "rejected").Inc()
}

// SetBreakerState records a breaker transition.
func (c *Collector) SetBreakerState(name string, state int) {
	if c == nil {
		return
	}
	c.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordResult counts one finished record.
func (c *Collector) RecordResult(rec model.EnrichedRecord) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(Outcome(rec.ResearchStatus), string(rec.ConfidenceTier)).Inc()
}

// ObserveBatch records batch totals.
func (c *Collector) ObserveBatch(records int, d time.Duration) {
	if c == nil {
		return
	}
	c.batchRecords.Set(float64(records))
	c.batchDuration.Set(d.Seconds())
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}

// Outcome reduces a research status to a low-cardinality label.
func Outcome(status string) string {
	switch {
	case status == model.StatusComplete:
		return "complete"
	case model.IsSkippedStatus(status):
		return "skipped"
	case model.IsErrorStatus(status):
		return "error"
	case status == model.StatusNoPlaceIDs, status == model.StatusNoDataReturned:
		return "no_data"
	default:
		return "other"
	}
}
