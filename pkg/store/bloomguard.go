package store

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomGuard fronts a CacheStore with a probabilistic membership filter
// so definite misses skip the underlying store entirely. This matters
// when the store is remote (Redis): a guaranteed miss costs a bitset
// probe instead of a network round trip. False positives simply fall
// through to a real lookup, so semantics are unchanged.
type BloomGuard struct {
	inner  CacheStore
	mu     sync.Mutex
	filter *bloom.BloomFilter

	totalQueries  uint64
	bloomRejected uint64
}

// NewBloomGuard wraps the cache store with a bloom filter sized for
// expectedItems at the given false-positive rate.
func NewBloomGuard(inner CacheStore, expectedItems uint, falsePositiveRate float64) *BloomGuard {
	if expectedItems == 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	return &BloomGuard{
		inner:  inner,
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

// Get probes the filter first; keys never written are rejected without
// touching the underlying store.
func (g *BloomGuard) Get(ctx context.Context, key string) (interface{}, bool) {
	g.mu.Lock()
	g.totalQueries++
	mayExist := g.filter.Test([]byte(key))
	if !mayExist {
		g.bloomRejected++
		g.mu.Unlock()
		return nil, false
	}
	g.mu.Unlock()

	return g.inner.Get(ctx, key)
}

// Set records the key in the filter and writes through.
func (g *BloomGuard) Set(ctx context.Context, key string, value interface{}) {
	g.mu.Lock()
	g.filter.Add([]byte(key))
	g.mu.Unlock()

	g.inner.Set(ctx, key, value)
}

// Delete passes through. The filter cannot unlearn a key; the next Get
// falls through to the store and misses there.
func (g *BloomGuard) Delete(ctx context.Context, key string) {
	g.inner.Delete(ctx, key)
}

// DeleteMatching passes through.
func (g *BloomGuard) DeleteMatching(ctx context.Context, substr string) int {
	return g.inner.DeleteMatching(ctx, substr)
}

// Len returns the underlying store's entry count.
func (g *BloomGuard) Len() int {
	return g.inner.Len()
}

// Capacity returns the underlying store's capacity.
func (g *BloomGuard) Capacity() int {
	return g.inner.Capacity()
}

// Close closes the underlying store.
func (g *BloomGuard) Close() error {
	return g.inner.Close()
}

// GuardStats reports filter effectiveness.
type GuardStats struct {
	TotalQueries  uint64
	BloomRejected uint64
}

// Stats returns how often the filter short-circuited lookups.
func (g *BloomGuard) Stats() GuardStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GuardStats{
		TotalQueries:  g.totalQueries,
		BloomRejected: g.bloomRejected,
	}
}
