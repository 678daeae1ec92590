package publish

import (
	"context"
	"time"
)

// Waiter blocks for a duration. The pipeline's rate-limit pauses go through
// this interface so tests can observe them without sleeping.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

type sleepWaiter struct{}

// NewSleepWaiter returns the production Waiter backed by real time.
func NewSleepWaiter() Waiter { return sleepWaiter{} }

func (sleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
