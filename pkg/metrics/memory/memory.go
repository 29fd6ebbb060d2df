// Package memory keeps recent operation samples in a bounded ring
// buffer and computes snapshot statistics from it.
package memory

import (
	"sync"
	"time"

	"spendpilot/pkg/metrics"
)

// DefaultRingSize is how many recent operations the ring retains.
const DefaultRingSize = 1000

// RingCollector stores the most recent operation samples; once full,
// the oldest sample is dropped for each new one.
type RingCollector struct {
	mu      sync.RWMutex
	samples []metrics.Sample
	next    int
	full    bool

	cacheSize     int
	cacheCapacity int
}

// NewRingCollector creates a ring collector holding up to size samples.
func NewRingCollector(size int) *RingCollector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingCollector{
		samples: make([]metrics.Sample, size),
	}
}

// RecordOperation appends a sample, dropping the oldest when full.
func (rc *RingCollector) RecordOperation(sample metrics.Sample) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.samples[rc.next] = sample
	rc.next++
	if rc.next == len(rc.samples) {
		rc.next = 0
		rc.full = true
	}
}

// RecordCacheStats updates the cache gauges.
func (rc *RingCollector) RecordCacheStats(size, capacity int) {
	rc.mu.Lock()
	rc.cacheSize = size
	rc.cacheCapacity = capacity
	rc.mu.Unlock()
}

// Snapshot summarizes the operations currently in the ring.
type Snapshot struct {
	TotalOperations int
	Successes       int
	Failures        int
	SuccessRate     float64
	AverageLatency  time.Duration
	CacheHits       int
	ErrorsByCode    map[string]int
	CacheSize       int
	CacheCapacity   int
}

// Snapshot computes statistics over the retained samples.
func (rc *RingCollector) Snapshot() Snapshot {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	count := rc.next
	if rc.full {
		count = len(rc.samples)
	}

	snap := Snapshot{
		TotalOperations: count,
		ErrorsByCode:    make(map[string]int),
		CacheSize:       rc.cacheSize,
		CacheCapacity:   rc.cacheCapacity,
	}

	var totalLatency time.Duration
	for i := 0; i < count; i++ {
		s := rc.samples[i]
		totalLatency += s.Latency
		if s.CacheHit {
			snap.CacheHits++
		}
		if s.Success() {
			snap.Successes++
		} else {
			snap.Failures++
			snap.ErrorsByCode[s.ErrorCode]++
		}
	}

	if count > 0 {
		snap.SuccessRate = float64(snap.Successes) / float64(count)
		snap.AverageLatency = totalLatency / time.Duration(count)
	}
	return snap
}
