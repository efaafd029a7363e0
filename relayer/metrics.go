package relayer

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// MetricsSubsystem is the subsystem of the relayer metrics.
const MetricsSubsystem = "relayer"

// Metrics contains the metrics exposed by the relayer. Every metric is
// labelled with the chain the messages are submitted to, or the chain
// emitting finality events.
type Metrics struct {
	// Number of finality events received.
	FinalityEvents metrics.Counter
	// Number of batches submitted.
	BatchesSubmitted metrics.Counter
	// Histogram of the number of messages per batch.
	BatchSize metrics.Histogram
	// Number of batches rejected by the chain.
	SubmissionErrors metrics.Counter
	// Number of packets waiting to be timed out.
	PendingTimeouts metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	labels := []string{"chain"}
	return &Metrics{
		FinalityEvents: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "finality_events",
			Help:      "Number of finality events received.",
		}, labels),
		BatchesSubmitted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_submitted",
			Help:      "Number of message batches submitted.",
		}, labels),
		BatchSize: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_size",
			Help:      "Number of messages per submitted batch.",
			Buckets:   stdprometheus.LinearBuckets(1, 2, 10),
		}, labels),
		SubmissionErrors: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submission_errors",
			Help:      "Number of batches rejected by the chain.",
		}, labels),
		PendingTimeouts: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_timeouts",
			Help:      "Number of packets waiting to be timed out.",
		}, labels),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		FinalityEvents:   discard.NewCounter(),
		BatchesSubmitted: discard.NewCounter(),
		BatchSize:        discard.NewHistogram(),
		SubmissionErrors: discard.NewCounter(),
		PendingTimeouts:  discard.NewGauge(),
	}
}
