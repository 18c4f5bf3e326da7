// Package observability provides Prometheus metrics for analysis runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Engine metrics
	TransactionsProcessed prometheus.Counter
	CustomersScored       prometheus.Counter
	CustomersPerSegment   *prometheus.GaugeVec
	CampaignsEvaluated    prometheus.Counter
	CampaignsFlagged      *prometheus.CounterVec
	PseudonymsIssued      prometheus.Counter

	// Storage metrics
	StoreOpDuration *prometheus.HistogramVec
	StoreOpErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "segment_lab"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Analysis stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),

		// Engine metrics
		TransactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rfm",
			Name:      "transactions_processed_total",
			Help:      "Total number of transactions reduced to RFM records",
		}),
		CustomersScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "segmentation",
			Name:      "customers_scored_total",
			Help:      "Total number of customers assigned a segment",
		}),
		CustomersPerSegment: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "segmentation",
			Name:      "customers",
			Help:      "Customers per segment in the last successful run",
		}, []string{"segment"}),
		CampaignsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaigns",
			Name:      "evaluated_total",
			Help:      "Total number of campaign metric rows computed",
		}),
		CampaignsFlagged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "campaigns",
			Name:      "flagged_total",
			Help:      "Total number of campaign flags by reason",
		}, []string{"reason"}),
		PseudonymsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "privacy",
			Name:      "pseudonyms_issued_total",
			Help:      "Total number of distinct customer pseudonyms issued",
		}),

		// Storage metrics
		StoreOpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "op_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		StoreOpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "op_errors_total",
			Help:      "Total number of store operation errors",
		}, []string{"store", "operation"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format,
// for pickup by the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(status string, finishedUnix int64) {
	m.RunsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.LastSuccessfulRun.Set(float64(finishedUnix))
	}
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	m.RunDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordStoreOp records store operation metrics.
func (m *Metrics) RecordStoreOp(store, operation string, seconds float64, err error) {
	m.StoreOpDuration.WithLabelValues(store, operation).Observe(seconds)
	if err != nil {
		m.StoreOpErrors.WithLabelValues(store, operation).Inc()
	}
}

// SetSegmentSizes replaces the per-segment gauges.
func (m *Metrics) SetSegmentSizes(sizes map[string]int) {
	m.CustomersPerSegment.Reset()
	for segment, n := range sizes {
		m.CustomersPerSegment.WithLabelValues(segment).Set(float64(n))
	}
}

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
