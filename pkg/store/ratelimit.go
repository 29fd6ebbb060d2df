package store

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outbound requests to a minimum inter-request interval.
// It is a cooperative delay queue, not a token bucket: slots are handed
// out one interval apart in arrival order, and under-used capacity
// never accumulates into a burst.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time

	// now is injectable for tests
	now func() time.Time
}

// NewLimiter creates a limiter allowing requestsPerSecond across all
// operations. Non-positive rates disable pacing.
func NewLimiter(requestsPerSecond float64) *Limiter {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	return &Limiter{
		interval: interval,
		now:      time.Now,
	}
}

// Interval returns the minimum spacing between requests.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// reserve claims the next available slot and returns its release time.
func (l *Limiter) reserve() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	return slot
}

// Wait blocks until the caller owns the next request slot, or until the
// context is done. Slots are granted in the order Wait is entered.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	slot := l.reserve()
	delay := slot.Sub(l.now())
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
