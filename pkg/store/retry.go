package store

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds the retry loop for one logical operation.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the first try
	MaxRetries int

	// BaseDelay seeds the exponential backoff
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default retry bounds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// ShouldRetry decides whether a failed attempt may be followed by
// another. attempt is zero-based: the first try is attempt 0.
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil {
		return false
	}
	if !IsRetryable(err) {
		return false
	}
	return attempt < p.MaxRetries
}

// Backoff computes the wait before the attempt following a failed
// attempt: min(MaxDelay, BaseDelay * 2^attempt * (1 + jitter)). A
// server-specified retry-after on the error overrides the computed
// delay for exactly that attempt.
func (p RetryPolicy) Backoff(attempt int, err error, jitter float64) time.Duration {
	if after := RetryAfter(err); after > 0 {
		return after
	}

	delay := float64(p.BaseDelay) * float64(uint64(1)<<uint(attempt)) * (1 + jitter)
	if capped := float64(p.MaxDelay); p.MaxDelay > 0 && delay > capped {
		delay = capped
	}
	return time.Duration(delay)
}

// retrier drives the retry state machine. The sleep and jitter sources
// are injectable so tests can script failure sequences against a fake
// clock.
type retrier struct {
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

func newRetrier(policy RetryPolicy) *retrier {
	return &retrier{
		policy: policy,
		sleep:  sleepContext,
		jitter: func() float64 { return rand.Float64() * 0.1 },
	}
}

// do runs op through the retry machine and returns the total attempt
// count alongside the final outcome. Non-retryable failures stop
// immediately; retryable ones back off until the policy is exhausted.
func (r *retrier) do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	attempt := 0
	for {
		err := op(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		if !r.policy.ShouldRetry(attempt, err) {
			return attempt + 1, err
		}

		delay := r.policy.Backoff(attempt, err, r.jitter())
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return attempt + 1, err
		}
		attempt++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
