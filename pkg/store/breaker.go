package store

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"spendpilot/pkg/codec"
	"spendpilot/pkg/logging"
)

// BreakerConfig configures the circuit breaker around a transport.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open
	MaxRequests uint32

	// Interval is the closed-state period after which counts reset.
	// Zero means counts never reset.
	Interval time.Duration

	// Timeout is the open-state period before probing half-open
	Timeout time.Duration

	// MinRequests before the failure rate is considered
	MinRequests uint32

	// FailureRate at or above which the breaker trips
	FailureRate float64
}

// DefaultBreakerConfig returns sensible defaults for the transport breaker.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MinRequests: 10,
		FailureRate: 0.5,
	}
}

// BreakerTransport wraps a Transport with a circuit breaker so a
// persistently failing store stops consuming rate-limit slots and retry
// budgets. An open circuit surfaces as a retryable connection error, so
// neither the retry machine nor callers need a new taxonomy entry.
type BreakerTransport struct {
	inner  Transport
	cb     *gobreaker.CircuitBreaker
	logger *logging.Logger
}

// NewBreakerTransport wraps the transport with circuit breaker protection.
func NewBreakerTransport(inner Transport, config BreakerConfig) *BreakerTransport {
	logger := logging.Global().Named("store").Named("breaker")

	settings := gobreaker.Settings{
		Name:        "record-store",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			rate := float64(counts.TotalFailures) / float64(counts.Requests)
			return rate >= config.FailureRate
		},
		IsSuccessful: func(err error) bool {
			// Final (non-retryable) refusals are the store answering, not
			// the store being down; only transient faults count against
			// the breaker.
			return err == nil || !IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerTransport{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

func (b *BreakerTransport) execute(op func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(op)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, NewError(CodeConnection, "record store circuit open").WithCause(err)
	}
	return result, err
}

// Query passes through the breaker.
func (b *BreakerTransport) Query(ctx context.Context, collectionID string, filter *Filter, sorts []Sort, startCursor string) (*QueryPage, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Query(ctx, collectionID, filter, sorts, startCursor)
	})
	if err != nil {
		return nil, err
	}
	return result.(*QueryPage), nil
}

// Create passes through the breaker.
func (b *BreakerTransport) Create(ctx context.Context, collectionID string, properties map[string]codec.Property) (*Record, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Create(ctx, collectionID, properties)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Record), nil
}

// Update passes through the breaker.
func (b *BreakerTransport) Update(ctx context.Context, recordID string, properties map[string]codec.Property) (*Record, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Update(ctx, recordID, properties)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Record), nil
}

// Get passes through the breaker.
func (b *BreakerTransport) Get(ctx context.Context, recordID string) (*Record, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Get(ctx, recordID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Record), nil
}

// Schema passes through the breaker.
func (b *BreakerTransport) Schema(ctx context.Context, collectionID string) (*Schema, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.inner.Schema(ctx, collectionID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Schema), nil
}
