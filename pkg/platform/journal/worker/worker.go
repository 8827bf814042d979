// Package worker consumes journal events from the publisher's channel and
// persists them. Append failures are logged and counted, not fatal; the
// journal must never take the process down.
package worker

import (
	"context"
	"log/slog"

	"waymark/pkg/platform/journal"
)

type Worker struct {
	store   journal.Store
	inbox   <-chan journal.Event
	logger  *slog.Logger
	metrics *journal.Metrics
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithMetrics(metrics *journal.Metrics) Option {
	return func(w *Worker) { w.metrics = metrics }
}

func New(store journal.Store, inbox <-chan journal.Event, opts ...Option) *Worker {
	w := &Worker{store: store, inbox: inbox, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes until ctx is cancelled, then drains whatever is already
// buffered so shutdown does not lose accepted events.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	// Persist with a fresh context; the run context is already done.
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event journal.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "journal append failed",
			"action", event.Action, "error", err)
		if w.metrics != nil {
			w.metrics.AppendErrors.Inc()
		}
	}
}
