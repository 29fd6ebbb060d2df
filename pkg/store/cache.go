package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CacheStore is the injectable cache behind the client's read
// operations. Caching is purely an optimization: implementations
// swallow their own failures and report a miss, so correctness holds
// with any implementation, including none.
type CacheStore interface {
	// Get returns the cached value and whether a live entry was found.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value under the key.
	Set(ctx context.Context, key string, value interface{})

	// Delete removes the key if present.
	Delete(ctx context.Context, key string)

	// DeleteMatching removes every entry whose key contains the
	// substring and returns how many were removed.
	DeleteMatching(ctx context.Context, substr string) int

	// Len returns the current entry count.
	Len() int

	// Capacity returns the maximum entry count, or 0 for unlimited.
	Capacity() int

	// Close releases any resources held by the store.
	Close() error
}

// MemoryCacheConfig configures the in-memory cache store.
type MemoryCacheConfig struct {
	// TTL is how long entries stay live (default 5 minutes)
	TTL time.Duration

	// MaxEntries caps the store; insertion beyond the cap evicts the
	// oldest-inserted entries first (0 = unlimited)
	MaxEntries int

	// SweepInterval is how often expired entries are removed in the
	// background (default 1 minute)
	SweepInterval time.Duration
}

// DefaultMemoryCacheConfig returns the default cache configuration.
func DefaultMemoryCacheConfig() MemoryCacheConfig {
	return MemoryCacheConfig{
		TTL:           5 * time.Minute,
		MaxEntries:    1000,
		SweepInterval: time.Minute,
	}
}

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
	seq       uint64
}

type orderSlot struct {
	key string
	seq uint64
}

// MemoryCache is a TTL-bounded in-memory cache store. Eviction at
// capacity is by insertion order, not LRU; recency never extends an
// entry's life. A background sweep removes expired entries.
type MemoryCache struct {
	config MemoryCacheConfig

	mu    sync.Mutex
	data  map[string]*memoryEntry
	order []orderSlot
	seq   uint64

	sweepTicker *time.Ticker
	stopSweep   chan struct{}
	wg          sync.WaitGroup

	// now is injectable for tests
	now func() time.Time
}

// NewMemoryCache creates an in-memory cache store and starts its
// background sweep.
func NewMemoryCache(config MemoryCacheConfig) *MemoryCache {
	if config.TTL <= 0 {
		config.TTL = DefaultMemoryCacheConfig().TTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultMemoryCacheConfig().SweepInterval
	}

	c := &MemoryCache{
		config:      config,
		data:        make(map[string]*memoryEntry),
		sweepTicker: time.NewTicker(config.SweepInterval),
		stopSweep:   make(chan struct{}),
		now:         time.Now,
	}

	c.wg.Add(1)
	go c.sweep()

	return c
}

// Get returns the cached value if present and not expired.
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.data, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores the value, evicting the oldest-inserted entries if the
// store is at capacity.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && c.config.MaxEntries > 0 {
		for len(c.data) >= c.config.MaxEntries && len(c.order) > 0 {
			head := c.order[0]
			c.order = c.order[1:]
			if entry, ok := c.data[head.key]; ok && entry.seq == head.seq {
				delete(c.data, head.key)
			}
		}
	}

	c.seq++
	c.data[key] = &memoryEntry{
		value:     value,
		expiresAt: c.now().Add(c.config.TTL),
		seq:       c.seq,
	}
	c.order = append(c.order, orderSlot{key: key, seq: c.seq})
}

// Delete removes the key if present.
func (c *MemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// DeleteMatching removes every entry whose key contains substr. This is
// a full scan; keys embed record and collection ids so an update can
// invalidate everything referencing the touched record.
func (c *MemoryCache) DeleteMatching(ctx context.Context, substr string) int {
	if substr == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.data {
		if strings.Contains(key, substr) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Len returns the current entry count.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Capacity returns the configured maximum entry count.
func (c *MemoryCache) Capacity() int {
	return c.config.MaxEntries
}

// Close stops the background sweep and drops all entries.
func (c *MemoryCache) Close() error {
	c.sweepTicker.Stop()
	close(c.stopSweep)
	c.wg.Wait()

	c.mu.Lock()
	c.data = make(map[string]*memoryEntry)
	c.order = nil
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) sweep() {
	defer c.wg.Done()
	for {
		select {
		case <-c.sweepTicker.C:
			c.removeExpired()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, key)
		}
	}

	// Compact order slots whose entries are gone
	kept := c.order[:0]
	for _, slot := range c.order {
		if entry, ok := c.data[slot.key]; ok && entry.seq == slot.seq {
			kept = append(kept, slot)
		}
	}
	c.order = kept
}
