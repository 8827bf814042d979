package places

import (
	"context"
	"time"
)

// SetSleep replaces the backoff wait so retry tests run instantly.
func (c *RetryingClient) SetSleep(fn func(context.Context, time.Duration) error) {
	c.sleep = fn
}
