package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher hands events to the journal worker without ever failing the
// business operation that emitted them. A full buffer drops the event,
// logs it, and counts it; the journal is an observability surface, not a
// transactional participant.
type Publisher struct {
	inbox   chan<- Event
	logger  *slog.Logger
	metrics *Metrics
}

type PublisherOption func(*Publisher)

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(metrics *Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = metrics }
}

func NewPublisher(inbox chan<- Event, opts ...PublisherOption) *Publisher {
	p := &Publisher{inbox: inbox, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps the event and enqueues it. Never blocks and never returns
// an error to the caller.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	select {
	case p.inbox <- event:
		if p.metrics != nil {
			p.metrics.EventsEmitted.WithLabelValues(string(event.Action)).Inc()
		}
	default:
		p.logger.WarnContext(ctx, "journal buffer full, dropping event",
			"action", event.Action)
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
	}
}
