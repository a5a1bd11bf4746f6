// Package metrics provides Prometheus metrics for the feature selection
// engine: batch and per-column scoring counters, degenerate-input and
// subsampling events, and latency distributions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the scoring engine.
type Metrics struct {
	BatchesTotal      prometheus.Counter   // Total number of scoring batches completed
	ColumnsScored     prometheus.Counter   // Total number of feature columns scored
	DegenerateColumns prometheus.Counter   // Columns skipped because of degenerate input
	SubsampleEvents   prometheus.Counter   // Columns reduced by stochastic subsampling
	ColumnDuration    prometheus.Histogram // Per-column scoring duration in seconds
	BatchColumns      prometheus.Histogram // Distribution of columns per batch
	ReportsStored     prometheus.Counter   // Score reports persisted to storage
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps test
// runs isolated from the global Prometheus state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		BatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "selection_batches_total",
			Help: "Total number of factor importance batches completed",
		}),
		ColumnsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "selection_columns_scored_total",
			Help: "Total number of feature columns scored",
		}),
		DegenerateColumns: factory.NewCounter(prometheus.CounterOpts{
			Name: "selection_degenerate_columns_total",
			Help: "Total number of columns skipped because of degenerate input",
		}),
		SubsampleEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "selection_subsample_events_total",
			Help: "Total number of columns reduced by stochastic subsampling",
		}),
		ColumnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "selection_column_duration_seconds",
			Help:    "Per-column scoring duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		BatchColumns: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "selection_batch_columns",
			Help:    "Distribution of column counts per scoring batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ReportsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "selection_reports_stored_total",
			Help: "Total number of score reports persisted",
		}),
	}
}
