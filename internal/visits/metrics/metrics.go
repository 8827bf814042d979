// Package metrics provides observability for the visits module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks visit lifecycle counts and the record critical path.
type Metrics struct {
	VisitsRecorded  prometheus.Counter
	VisitsAmended   prometheus.Counter
	VisitsForgotten prometheus.Counter
	JournalResets   prometheus.Counter
	PhotosAttached  prometheus.Counter
	PhotosDetached  prometheus.Counter
	AuditRuns       prometheus.Counter
	AuditSuspects   prometheus.Gauge
	RecordDuration  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		VisitsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_visits_recorded_total",
			Help: "Total visits recorded and signed",
		}),
		VisitsAmended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_visits_amended_total",
			Help: "Total detail amendments applied",
		}),
		VisitsForgotten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_visits_forgotten_total",
			Help: "Total visits deleted individually",
		}),
		JournalResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_journal_resets_total",
			Help: "Total full journal resets",
		}),
		PhotosAttached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_photos_attached_total",
			Help: "Total photos attached to visits",
		}),
		PhotosDetached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_photos_detached_total",
			Help: "Total photos detached from visits",
		}),
		AuditRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_integrity_audit_runs_total",
			Help: "Total integrity audit sweeps",
		}),
		AuditSuspects: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "waymark_integrity_audit_suspects",
			Help: "Visits failing signature verification in the last audit",
		}),
		RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "waymark_visit_record_duration_seconds",
			Help:    "Duration of Record operations including signing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveRecord records the duration of a Record operation.
// Call with time.Now() from the start of the operation.
func (m *Metrics) ObserveRecord(start time.Time) {
	m.RecordDuration.Observe(time.Since(start).Seconds())
}
