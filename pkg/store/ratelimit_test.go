package store

import (
	"context"
	"testing"
	"time"
)

func TestLimiterInterval(t *testing.T) {
	tests := []struct {
		rps  float64
		want time.Duration
	}{
		{3, time.Second / 3},
		{1, time.Second},
		{10, 100 * time.Millisecond},
		{0, 0},
		{-1, 0},
	}

	for _, tt := range tests {
		if got := NewLimiter(tt.rps).Interval(); got != tt.want {
			t.Errorf("NewLimiter(%v).Interval() = %v, want %v", tt.rps, got, tt.want)
		}
	}
}

func TestLimiterSlotSpacing(t *testing.T) {
	limiter := NewLimiter(1)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	// consecutive reservations are handed out exactly one interval
	// apart in arrival order
	first := limiter.reserve()
	second := limiter.reserve()
	third := limiter.reserve()

	if !first.Equal(base) {
		t.Errorf("first slot = %v, want immediate", first)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("second slot spacing = %v, want 1s", got)
	}
	if got := third.Sub(second); got != time.Second {
		t.Errorf("third slot spacing = %v, want 1s", got)
	}
}

func TestLimiterIdleDoesNotAccumulateBurst(t *testing.T) {
	limiter := NewLimiter(1)
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	limiter.reserve()

	// a long idle period must not bank extra slots
	current = current.Add(time.Minute)
	first := limiter.reserve()
	second := limiter.reserve()

	if !first.Equal(current) {
		t.Errorf("post-idle slot = %v, want immediate", first)
	}
	if got := second.Sub(first); got != time.Second {
		t.Errorf("post-idle spacing = %v, want 1s", got)
	}
}

func TestLimiterWaitUnlimited(t *testing.T) {
	limiter := NewLimiter(0)
	for i := 0; i < 100; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.1) // 10s interval

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait should be immediate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait = %v, want context.DeadlineExceeded", err)
	}
}
