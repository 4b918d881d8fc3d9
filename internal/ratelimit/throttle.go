// Package ratelimit spaces outbound validation calls a fixed interval apart.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sungwon/recipient-check/internal/metrics"
)

// DefaultInterval is the minimum spacing between validation calls.
const DefaultInterval = time.Second

// Throttler is called immediately before each outbound call. It returns once
// the call may proceed, or with the context's error if ctx ends first.
type Throttler interface {
	Wait(ctx context.Context) error
}

// Fixed enforces a fixed minimum interval between the starts of successive
// calls within one process. The first call proceeds immediately. There is no
// jitter and no backoff.
type Fixed struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	last     time.Time
}

// NewFixed creates a Fixed throttle. A nil clock means the wall clock and a
// non-positive interval means DefaultInterval.
func NewFixed(interval time.Duration, clock Clock) *Fixed {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Fixed{clock: clock, interval: interval}
}

// Interval returns the enforced spacing.
func (f *Fixed) Interval() time.Duration { return f.interval }

// Wait blocks until at least the interval has passed since the previous
// call was let through, then records the current time as the new start.
func (f *Fixed) Wait(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.last.IsZero() {
		if d := f.interval - f.clock.Now().Sub(f.last); d > 0 {
			metrics.ThrottleWaitDuration.Observe(d.Seconds())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-f.clock.After(d):
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	f.last = f.clock.Now()
	return nil
}

// Mark records t as the start of a call let through elsewhere.
func (f *Fixed) Mark(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = t
}

// Reset forgets the previous call so the next one proceeds immediately.
func (f *Fixed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = time.Time{}
}
