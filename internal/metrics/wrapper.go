package metrics

import (
	"time"

	"github.com/sebhaan/selectio/internal/importance"
)

// Wrapper adapts Metrics to the importance.Tracker interface so the scoring
// package does not import Prometheus directly.
type Wrapper struct {
	m *Metrics
}

var _ importance.Tracker = (*Wrapper)(nil)

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) ColumnScored(d time.Duration) {
	w.m.ColumnsScored.Inc()
	w.m.ColumnDuration.Observe(d.Seconds())
}

func (w *Wrapper) ColumnDegenerate() {
	w.m.DegenerateColumns.Inc()
}

func (w *Wrapper) SubsampleApplied() {
	w.m.SubsampleEvents.Inc()
}

func (w *Wrapper) BatchCompleted(columns int) {
	w.m.BatchesTotal.Inc()
	w.m.BatchColumns.Observe(float64(columns))
}

// ReportStored records a persisted score report.
func (w *Wrapper) ReportStored() {
	w.m.ReportsStored.Inc()
}
