package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorRetryable(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{CodeAuthentication, false},
		{CodePermission, false},
		{CodeNotFound, false},
		{CodeValidation, false},
		{CodeConflict, false},
		{CodeRateLimited, true},
		{CodeTimeout, true},
		{CodeConnection, true},
		{CodeServer, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := NewError(tt.code, "boom")
			if got := err.Retryable(); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestIsRetryableUnknownError(t *testing.T) {
	// unclassified failures are transient until proven otherwise
	if !IsRetryable(errors.New("something odd")) {
		t.Error("unknown errors should be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"typed error", NewError(CodeNotFound, "gone"), CodeNotFound},
		{"wrapped typed error", fmt.Errorf("op: %w", NewError(CodeConflict, "decided")), CodeConflict},
		{"context deadline", context.DeadlineExceeded, CodeTimeout},
		{"connection refused text", errors.New("dial tcp: connection refused"), CodeConnection},
		{"anything else", errors.New("weird"), CodeServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := Errorf(CodeRateLimited, "slow down").WithRetryAfter(2 * time.Second)

	if !errors.Is(err, NewError(CodeRateLimited, "different message")) {
		t.Error("errors with the same code should match via errors.Is")
	}
	if errors.Is(err, NewError(CodeServer, "slow down")) {
		t.Error("errors with different codes must not match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewError(CodeConnection, "transport failed").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
}

func TestRetryAfter(t *testing.T) {
	if got := RetryAfter(NewError(CodeRateLimited, "x").WithRetryAfter(5 * time.Second)); got != 5*time.Second {
		t.Errorf("RetryAfter = %v, want 5s", got)
	}
	if got := RetryAfter(NewError(CodeServer, "x")); got != 0 {
		t.Errorf("RetryAfter without hint = %v, want 0", got)
	}
	if got := RetryAfter(errors.New("plain")); got != 0 {
		t.Errorf("RetryAfter on plain error = %v, want 0", got)
	}
}

func TestErrorDetails(t *testing.T) {
	err := NewError(CodeConflict, "already decided").WithDetail("status", "approved")
	if err.Details["status"] != "approved" {
		t.Errorf("detail not carried: %v", err.Details)
	}
	if !IsConflict(err) {
		t.Error("IsConflict should match")
	}
}
