package vetapi

import (
	"context"
	"time"
)

// RetryPolicy bounds retries of idempotent reads. The default of a single
// attempt keeps the portal's surface-once failure behavior; operators can
// opt in to retries through configuration.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func (p RetryPolicy) normalize() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	return p
}

// wait sleeps for the exponential backoff delay before retry number n,
// returning early if ctx is cancelled.
func (p RetryPolicy) wait(ctx context.Context, n int) error {
	delay := p.BaseDelay << (n - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
