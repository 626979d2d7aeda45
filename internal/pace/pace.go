// Package pace provides the suspension points used to space out calls to
// rate-limited APIs.
package pace

import (
	"context"
	"time"
)

// DefaultInterval is the pause inserted between dependent external calls.
const DefaultInterval = 2 * time.Second

// Sleeper suspends the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep returns after d has elapsed. It returns ctx.Err() if the context
// is cancelled first. Non-positive durations return immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// OrDefault returns s, or Sleep when s is nil.
func OrDefault(s Sleeper) Sleeper {
	if s == nil {
		return Sleep
	}
	return s
}
