package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"spendpilot/pkg/codec"
	"spendpilot/pkg/logging"
	"spendpilot/pkg/metrics"
)

// ClientConfig configures the resilient record-store client.
type ClientConfig struct {
	// RequestsPerSecond is the global outbound pacing across all
	// operations (default 3)
	RequestsPerSecond float64

	// Retry bounds the per-operation retry loop
	Retry RetryPolicy

	// AttemptTimeout races each transport attempt; exceeding it is a
	// retryable timeout regardless of what the transport reports
	// (default 10s)
	AttemptTimeout time.Duration

	// Cache holds successful read results; nil disables caching
	Cache CacheStore

	// Metrics receives operation samples; nil means no-op
	Metrics metrics.Collector

	// Logger for structured client logs; nil uses the global logger
	Logger *logging.Logger
}

// DefaultClientConfig returns the default client configuration without
// cache or metrics wired.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestsPerSecond: 3,
		Retry:             DefaultRetryPolicy(),
		AttemptTimeout:    10 * time.Second,
	}
}

// Client is the sole path to the external record store. It layers a
// global FIFO rate limiter, per-operation retry with exponential
// backoff, a TTL cache on reads, and an operation metrics feed over a
// single-attempt Transport.
type Client struct {
	transport Transport
	limiter   *Limiter
	cache     CacheStore
	collector metrics.Collector
	logger    *logging.Logger
	retry     *retrier
	sf        singleflight.Group
	config    ClientConfig

	now func() time.Time
}

// NewClient creates a client over the given transport.
func NewClient(transport Transport, config ClientConfig) *Client {
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = DefaultClientConfig().RequestsPerSecond
	}
	if config.Retry == (RetryPolicy{}) {
		config.Retry = DefaultRetryPolicy()
	}
	if config.AttemptTimeout == 0 {
		config.AttemptTimeout = DefaultClientConfig().AttemptTimeout
	}

	collector := config.Metrics
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Global()
	}

	return &Client{
		transport: transport,
		limiter:   NewLimiter(config.RequestsPerSecond),
		cache:     config.Cache,
		collector: collector,
		logger:    logger.Named("store"),
		retry:     newRetrier(config.Retry),
		config:    config,
		now:       time.Now,
	}
}

// Close releases the cache store, if any.
func (c *Client) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// QueryRecords fetches all records in a collection matching the filter,
// following pagination to exhaustion. Successful results are cached.
func (c *Client) QueryRecords(ctx context.Context, collectionID string, filter *Filter, sorts []Sort) ([]Record, error) {
	if collectionID == "" {
		return nil, NewError(CodeValidation, "collection id is required")
	}

	key := cacheKey("query_records", collectionID, filter, sorts)
	start := c.now()

	if records, ok := c.cacheGet(ctx, key); ok {
		c.observe("query_records", start, 0, true, nil)
		return cloneRecords(records.([]Record)), nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		return c.queryAll(ctx, collectionID, filter, sorts)
	})
	qr, _ := result.(queryResult)
	if err != nil {
		c.observe("query_records", start, qr.attempts, false, err)
		return nil, err
	}

	c.cacheSet(ctx, key, qr.records)
	c.observe("query_records", start, qr.attempts, false, nil)
	// every caller gets its own copy; the cached slice (shared with any
	// concurrent duplicate callers through singleflight) stays private
	return cloneRecords(qr.records), nil
}

type queryResult struct {
	records  []Record
	attempts int
}

func (c *Client) queryAll(ctx context.Context, collectionID string, filter *Filter, sorts []Sort) (queryResult, error) {
	var (
		records  []Record
		cursor   string
		attempts int
	)
	for {
		var page *QueryPage
		n, err := c.withRetry(ctx, func(ctx context.Context) error {
			var opErr error
			page, opErr = c.transport.Query(ctx, collectionID, filter, sorts, cursor)
			return opErr
		})
		attempts += n
		if err != nil {
			return queryResult{attempts: attempts}, err
		}

		records = append(records, page.Records...)
		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return queryResult{records: records, attempts: attempts}, nil
}

// CreateRecord inserts a record into a collection. Query results for
// the collection are invalidated so the new record shows up on the next
// read.
func (c *Client) CreateRecord(ctx context.Context, collectionID string, properties map[string]codec.Property) (*Record, error) {
	if collectionID == "" {
		return nil, NewError(CodeValidation, "collection id is required")
	}
	if len(properties) == 0 {
		return nil, NewError(CodeValidation, "at least one property is required")
	}

	start := c.now()
	var record *Record
	attempts, err := c.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		record, opErr = c.transport.Create(ctx, collectionID, properties)
		return opErr
	})
	c.observe("create_record", start, attempts, false, err)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, collectionID)
	return record, nil
}

// UpdateRecord patches a record's properties. On success every cache
// entry whose key references the record id is invalidated. Failures
// always propagate; partial financial-state updates are never silently
// swallowed.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, properties map[string]codec.Property) (*Record, error) {
	if recordID == "" {
		return nil, NewError(CodeValidation, "record id is required")
	}
	if len(properties) == 0 {
		return nil, NewError(CodeValidation, "at least one property is required")
	}

	start := c.now()
	var record *Record
	attempts, err := c.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		record, opErr = c.transport.Update(ctx, recordID, properties)
		return opErr
	})
	c.observe("update_record", start, attempts, false, err)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, recordID)
	return record, nil
}

// GetRecord retrieves a record by id, serving from cache when possible.
func (c *Client) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	if recordID == "" {
		return nil, NewError(CodeValidation, "record id is required")
	}

	key := cacheKey("get_record", recordID, nil, nil)
	start := c.now()

	if cached, ok := c.cacheGet(ctx, key); ok {
		c.observe("get_record", start, 0, true, nil)
		record := cached.(Record).clone()
		return &record, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		var record *Record
		attempts, err := c.withRetry(ctx, func(ctx context.Context) error {
			var opErr error
			record, opErr = c.transport.Get(ctx, recordID)
			return opErr
		})
		if err != nil {
			return fetchResult{attempts: attempts}, err
		}
		return fetchResult{value: *record, attempts: attempts}, nil
	})
	fr, _ := result.(fetchResult)
	c.observe("get_record", start, fr.attempts, false, err)
	if err != nil {
		return nil, err
	}

	c.cacheSet(ctx, key, fr.value.(Record))
	record := fr.value.(Record).clone()
	return &record, nil
}

// GetRecordFresh retrieves a record bypassing the cache. Decision
// preconditions use it so a stale cached status can never mask a
// conflict.
func (c *Client) GetRecordFresh(ctx context.Context, recordID string) (*Record, error) {
	if recordID == "" {
		return nil, NewError(CodeValidation, "record id is required")
	}

	start := c.now()
	var record *Record
	attempts, err := c.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		record, opErr = c.transport.Get(ctx, recordID)
		return opErr
	})
	c.observe("get_record", start, attempts, false, err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetCollectionSchema retrieves a collection's schema, serving from
// cache when possible.
func (c *Client) GetCollectionSchema(ctx context.Context, collectionID string) (*Schema, error) {
	if collectionID == "" {
		return nil, NewError(CodeValidation, "collection id is required")
	}

	key := cacheKey("get_schema", collectionID, nil, nil)
	start := c.now()

	if cached, ok := c.cacheGet(ctx, key); ok {
		c.observe("get_schema", start, 0, true, nil)
		schema := cached.(Schema).clone()
		return &schema, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		var schema *Schema
		attempts, err := c.withRetry(ctx, func(ctx context.Context) error {
			var opErr error
			schema, opErr = c.transport.Schema(ctx, collectionID)
			return opErr
		})
		if err != nil {
			return fetchResult{attempts: attempts}, err
		}
		return fetchResult{value: *schema, attempts: attempts}, nil
	})
	fr, _ := result.(fetchResult)
	c.observe("get_schema", start, fr.attempts, false, err)
	if err != nil {
		return nil, err
	}

	c.cacheSet(ctx, key, fr.value.(Schema))
	schema := fr.value.(Schema).clone()
	return &schema, nil
}

type fetchResult struct {
	value    interface{}
	attempts int
}

// withRetry paces and retries a single-attempt operation. Each attempt
// waits for its rate-limit slot and runs under the attempt timeout;
// exceeding the timeout is classified as a retryable timeout error.
func (c *Client) withRetry(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	return c.retry.do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return NewError(CodeTimeout, "cancelled waiting for rate limit").WithCause(err)
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if c.config.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.config.AttemptTimeout)
			defer cancel()
		}

		err := op(attemptCtx)
		if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return NewError(CodeTimeout, "attempt deadline exceeded").WithCause(err)
		}
		return err
	})
}

func (c *Client) cacheGet(ctx context.Context, key string) (interface{}, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(ctx, key)
}

func (c *Client) cacheSet(ctx context.Context, key string, value interface{}) {
	if c.cache == nil {
		return
	}
	c.cache.Set(ctx, key, value)
}

// invalidate drops every cache entry whose key references the id.
func (c *Client) invalidate(ctx context.Context, id string) {
	if c.cache == nil {
		return
	}
	removed := c.cache.DeleteMatching(ctx, id)
	if removed > 0 {
		c.logger.Debug("cache invalidated",
			zap.String("id", id),
			zap.Int("entries", removed),
		)
	}
}

// observe records one completed operation.
func (c *Client) observe(operation string, start time.Time, attempts int, cacheHit bool, err error) {
	latency := c.now().Sub(start)
	sample := metrics.Sample{
		ID:        uuid.NewString(),
		Operation: operation,
		ErrorCode: string(Classify(err)),
		CacheHit:  cacheHit,
		Attempts:  attempts,
		Latency:   latency,
		At:        c.now(),
	}
	c.collector.RecordOperation(sample)
	if c.cache != nil {
		c.collector.RecordCacheStats(c.cache.Len(), c.cache.Capacity())
	}

	if err != nil {
		c.logger.Warn("operation failed",
			zap.String("operation", operation),
			zap.String("operation_id", sample.ID),
			zap.String("code", sample.ErrorCode),
			zap.Int("attempts", attempts),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("operation completed",
		zap.String("operation", operation),
		zap.String("operation_id", sample.ID),
		zap.Bool("cache_hit", cacheHit),
		zap.Int("attempts", attempts),
		zap.Duration("latency", latency),
	)
}

// cacheKey builds the cache key from the operation name and serialized
// parameters. Record and collection ids appear verbatim so invalidation
// can match on them.
func cacheKey(operation, id string, filter *Filter, sorts []Sort) string {
	key := operation + ":" + id
	if filter != nil {
		if encoded, err := json.Marshal(filter); err == nil {
			key += ":" + string(encoded)
		}
	}
	if len(sorts) > 0 {
		if encoded, err := json.Marshal(sorts); err == nil {
			key += ":" + string(encoded)
		}
	}
	return key
}
