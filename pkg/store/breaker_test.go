package store

import (
	"context"
	"testing"
	"time"
)

func breakerTestConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		MinRequests: 3,
		FailureRate: 0.5,
	}
}

func TestBreakerTripsOnRepeatedTransientFailures(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		get: func(ctx context.Context, recordID string) (*Record, error) {
			calls++
			return nil, NewError(CodeServer, "upstream down")
		},
	}
	breaker := NewBreakerTransport(transport, breakerTestConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := breaker.Get(ctx, "rec-1"); err == nil {
			t.Fatal("expected an error while the store is failing")
		}
	}

	// The circuit is now open: the inner transport must not be reached.
	before := calls
	_, err := breaker.Get(ctx, "rec-1")
	if got := Classify(err); got != CodeConnection {
		t.Fatalf("Classify = %v, want connection", got)
	}
	if !IsRetryable(err) {
		t.Error("open-circuit error should be retryable")
	}
	if calls != before {
		t.Errorf("inner transport called %d times while open", calls-before)
	}
}

func TestBreakerIgnoresFinalRefusals(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		get: func(ctx context.Context, recordID string) (*Record, error) {
			calls++
			return nil, NewError(CodeNotFound, "no such record")
		},
	}
	breaker := NewBreakerTransport(transport, breakerTestConfig())
	ctx := context.Background()

	// Non-retryable refusals are answers, not faults: the circuit must
	// stay closed no matter how many arrive.
	for i := 0; i < 10; i++ {
		_, err := breaker.Get(ctx, "rec-1")
		if got := Classify(err); got != CodeNotFound {
			t.Fatalf("call %d: Classify = %v, want not_found", i, got)
		}
	}
	if calls != 10 {
		t.Errorf("inner calls = %d, want 10", calls)
	}
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	transport := &scriptTransport{
		get: func(ctx context.Context, recordID string) (*Record, error) {
			return &Record{ID: recordID}, nil
		},
		query: func(ctx context.Context, collectionID string, filter *Filter, sorts []Sort, startCursor string) (*QueryPage, error) {
			return &QueryPage{Records: []Record{{ID: "rec-1"}}}, nil
		},
	}
	breaker := NewBreakerTransport(transport, breakerTestConfig())
	ctx := context.Background()

	record, err := breaker.Get(ctx, "rec-1")
	if err != nil || record.ID != "rec-1" {
		t.Fatalf("Get = %v, %v", record, err)
	}
	page, err := breaker.Query(ctx, "col-1", nil, nil, "")
	if err != nil || len(page.Records) != 1 {
		t.Fatalf("Query = %v, %v", page, err)
	}
}
