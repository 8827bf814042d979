package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks journal throughput and loss. Emission is fail-open, so
// the dropped counter is the signal that the buffer is undersized.
type Metrics struct {
	EventsEmitted *prometheus.CounterVec
	EventsDropped prometheus.Counter
	AppendErrors  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "waymark_journal_events_emitted_total",
			Help: "Total journal events accepted for persistence, by action",
		}, []string{"action"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_journal_events_dropped_total",
			Help: "Journal events dropped because the buffer was full",
		}),
		AppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "waymark_journal_append_errors_total",
			Help: "Failed journal store appends",
		}),
	}
}
