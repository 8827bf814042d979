package places

import (
	"context"
	"errors"
	"time"
)

// backoffs between attempts; the attempt count is len(backoffs)+1.
var backoffs = []time.Duration{500 * time.Millisecond, time.Second}

// RetryingClient re-issues failed lookups with a fixed backoff schedule.
// ErrNoResults is never retried. Cancellation cuts the wait short.
type RetryingClient struct {
	inner Service

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryingClient(inner Service) *RetryingClient {
	return &RetryingClient{inner: inner, sleep: sleepCtx}
}

func (c *RetryingClient) NearbyPOI(ctx context.Context, center Coordinate, radiusMeters float64) ([]POI, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		pois, err := c.inner.NearbyPOI(ctx, center, radiusMeters)
		if err == nil {
			return pois, nil
		}
		if errors.Is(err, ErrNoResults) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if attempt >= len(backoffs) {
			return nil, lastErr
		}
		if err := c.sleep(ctx, backoffs[attempt]); err != nil {
			return nil, lastErr
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
