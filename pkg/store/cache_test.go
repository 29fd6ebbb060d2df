package store

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, config MemoryCacheConfig) (*MemoryCache, func(time.Duration)) {
	t.Helper()
	cache := NewMemoryCache(config)
	t.Cleanup(func() { cache.Close() })

	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return cache, advance
}

func TestMemoryCacheSetGet(t *testing.T) {
	cache, _ := newTestCache(t, DefaultMemoryCacheConfig())
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "missing"); ok {
		t.Error("expected miss for absent key")
	}

	cache.Set(ctx, "key1", "value1")
	value, ok := cache.Get(ctx, "key1")
	if !ok || value != "value1" {
		t.Errorf("Get = %v/%v, want value1/true", value, ok)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	cache, advance := newTestCache(t, MemoryCacheConfig{TTL: 5 * time.Minute})
	ctx := context.Background()

	cache.Set(ctx, "key1", "value1")

	advance(5 * time.Minute)
	if _, ok := cache.Get(ctx, "key1"); !ok {
		t.Error("entry at exactly TTL should still be live")
	}

	advance(time.Second)
	if _, ok := cache.Get(ctx, "key1"); ok {
		t.Error("entry past TTL should be gone")
	}
}

func TestMemoryCacheInsertionOrderEviction(t *testing.T) {
	cache, _ := newTestCache(t, MemoryCacheConfig{TTL: time.Hour, MaxEntries: 3})
	ctx := context.Background()

	cache.Set(ctx, "a", 1)
	cache.Set(ctx, "b", 2)
	cache.Set(ctx, "c", 3)

	// reading "a" must not save it: eviction is by insertion order
	if _, ok := cache.Get(ctx, "a"); !ok {
		t.Fatal("warm-up read failed")
	}

	cache.Set(ctx, "d", 4)
	if _, ok := cache.Get(ctx, "a"); ok {
		t.Error("oldest-inserted entry should have been evicted despite the recent read")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := cache.Get(ctx, key); !ok {
			t.Errorf("key %q should have survived", key)
		}
	}
}

func TestMemoryCacheOverwriteKeepsSingleSlot(t *testing.T) {
	cache, _ := newTestCache(t, MemoryCacheConfig{TTL: time.Hour, MaxEntries: 2})
	ctx := context.Background()

	cache.Set(ctx, "a", 1)
	cache.Set(ctx, "a", 2) // overwrite, no second slot consumed
	cache.Set(ctx, "b", 3)

	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
	value, ok := cache.Get(ctx, "a")
	if !ok || value != 2 {
		t.Errorf("overwritten value = %v/%v, want 2/true", value, ok)
	}
}

func TestMemoryCacheDeleteMatching(t *testing.T) {
	cache, _ := newTestCache(t, DefaultMemoryCacheConfig())
	ctx := context.Background()

	cache.Set(ctx, "query_records:col-1:f", 1)
	cache.Set(ctx, "query_records:col-2:f", 2)
	cache.Set(ctx, "get_record:rec-9", 3)

	if removed := cache.DeleteMatching(ctx, "col-1"); removed != 1 {
		t.Errorf("DeleteMatching removed %d, want 1", removed)
	}
	if _, ok := cache.Get(ctx, "query_records:col-1:f"); ok {
		t.Error("matching entry should be gone")
	}
	if _, ok := cache.Get(ctx, "get_record:rec-9"); !ok {
		t.Error("non-matching entry should survive")
	}
	if removed := cache.DeleteMatching(ctx, ""); removed != 0 {
		t.Errorf("empty substring removed %d entries, want 0", removed)
	}
}

func TestMemoryCacheSweepRemovesExpired(t *testing.T) {
	cache := NewMemoryCache(MemoryCacheConfig{TTL: 10 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		cache.Set(ctx, fmt.Sprintf("key%d", i), i)
	}

	deadline := time.Now().Add(time.Second)
	for cache.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if cache.Len() != 0 {
		t.Errorf("sweep left %d entries", cache.Len())
	}
}

func TestMemoryCacheCloseIdempotentUse(t *testing.T) {
	cache := NewMemoryCache(DefaultMemoryCacheConfig())
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", cache.Len())
	}
}

func TestBloomGuardSkipsUnknownKeys(t *testing.T) {
	inner := NewMemoryCache(DefaultMemoryCacheConfig())
	guard := NewBloomGuard(inner, 1000, 0.01)
	defer guard.Close()
	ctx := context.Background()

	// never-written key: the filter answers definitively without
	// touching the inner store
	if _, ok := guard.Get(ctx, "never-written"); ok {
		t.Error("expected miss for unknown key")
	}

	guard.Set(ctx, "known", "v")
	value, ok := guard.Get(ctx, "known")
	if !ok || value != "v" {
		t.Errorf("Get through guard = %v/%v, want v/true", value, ok)
	}
}
