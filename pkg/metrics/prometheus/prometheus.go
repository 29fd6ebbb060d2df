// Package prometheus exports client operation metrics to Prometheus.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"spendpilot/pkg/metrics"
)

// Collector implements metrics.Collector backed by Prometheus vectors.
type Collector struct {
	operations   *prometheus.CounterVec
	errors       *prometheus.CounterVec
	cacheHits    prometheus.Counter
	latency      *prometheus.HistogramVec
	attempts     *prometheus.HistogramVec
	cacheEntries prometheus.Gauge
	cacheCap     prometheus.Gauge
}

// NewCollector creates a Prometheus collector under the given namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total record-store operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total record-store errors by taxonomy code",
			},
			[]string{"code"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_cache_hits_total",
				Help:      "Total read operations served from cache",
			},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Record-store operation latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		attempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_attempts",
				Help:      "Transport attempts per operation",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
			[]string{"operation"},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_cache_entries",
				Help:      "Current cache entry count",
			},
		),
		cacheCap: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_cache_capacity",
				Help:      "Maximum cache entry count",
			},
		),
	}
}

// Register registers all vectors with the given registerer.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{
		c.operations, c.errors, c.cacheHits, c.latency, c.attempts, c.cacheEntries, c.cacheCap,
	} {
		if err := reg.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordOperation exports one operation sample.
func (c *Collector) RecordOperation(sample metrics.Sample) {
	outcome := "success"
	if !sample.Success() {
		outcome = "failure"
		c.errors.WithLabelValues(sample.ErrorCode).Inc()
	}
	c.operations.WithLabelValues(sample.Operation, outcome).Inc()
	c.latency.WithLabelValues(sample.Operation).Observe(sample.Latency.Seconds())
	c.attempts.WithLabelValues(sample.Operation).Observe(float64(sample.Attempts))
	if sample.CacheHit {
		c.cacheHits.Inc()
	}
}

// RecordCacheStats exports the cache gauges.
func (c *Collector) RecordCacheStats(size, capacity int) {
	c.cacheEntries.Set(float64(size))
	c.cacheCap.Set(float64(capacity))
}
