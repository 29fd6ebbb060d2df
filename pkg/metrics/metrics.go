// Package metrics defines the observability surface of the record-store
// client. Implementations can keep samples in memory for snapshots or
// export them to Prometheus.
package metrics

import (
	"time"
)

// Sample is one completed client operation.
type Sample struct {
	// ID is the per-operation correlation id
	ID string

	// Operation is the logical operation name (query_records, get_record, ...)
	Operation string

	// ErrorCode is the taxonomy tag of the final error, "" on success
	ErrorCode string

	// CacheHit is true when the result was served from cache
	CacheHit bool

	// Attempts is how many transport attempts the operation made
	Attempts int

	// Latency is the total wall time of the operation
	Latency time.Duration

	// At is when the operation completed
	At time.Time
}

// Success reports whether the sample ended without error.
func (s Sample) Success() bool {
	return s.ErrorCode == ""
}

// Collector receives operation samples and cache gauge updates.
type Collector interface {
	RecordOperation(sample Sample)
	RecordCacheStats(size, capacity int)
}

// NoOpCollector discards everything. It is the default collector so
// metrics never need wiring to use the client.
type NoOpCollector struct{}

// RecordOperation does nothing.
func (NoOpCollector) RecordOperation(sample Sample) {}

// RecordCacheStats does nothing.
func (NoOpCollector) RecordCacheStats(size, capacity int) {}

// MultiCollector fans samples out to several collectors, e.g. a memory
// ring for snapshots plus a Prometheus exporter.
type MultiCollector []Collector

// RecordOperation forwards to every collector.
func (m MultiCollector) RecordOperation(sample Sample) {
	for _, c := range m {
		c.RecordOperation(sample)
	}
}

// RecordCacheStats forwards to every collector.
func (m MultiCollector) RecordCacheStats(size, capacity int) {
	for _, c := range m {
		c.RecordCacheStats(size, capacity)
	}
}
