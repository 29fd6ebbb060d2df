// Package redis provides a Redis-backed CacheStore for multi-process
// deployments of the record-store client.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"spendpilot/pkg/logging"
	"spendpilot/pkg/store"
)

// Config configures the Redis cache store.
type Config struct {
	// Addr is the Redis server address, e.g. "localhost:6379"
	Addr string

	Username string
	Password string

	// DB is the Redis database number
	DB int

	// KeyPrefix namespaces all cache keys
	KeyPrefix string

	// TTL is how long entries stay live (default 5 minutes)
	TTL time.Duration

	DialTimeout time.Duration
}

// DefaultConfig returns the default Redis cache configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		KeyPrefix:   "spendpilot:",
		TTL:         5 * time.Minute,
		DialTimeout: 5 * time.Second,
	}
}

// Cache is a store.CacheStore backed by Redis. Values are stored as
// JSON envelopes; cache keys begin with the operation name, which
// selects the concrete type on the way back out. All Redis failures
// degrade to a cache miss, never to an operation failure.
type Cache struct {
	client rueidis.Client
	config Config
	logger *logging.Logger
}

// New connects to Redis and returns the cache store.
func New(config Config) (*Cache, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("redis: no address configured")
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultConfig().DialTimeout
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = DefaultConfig().KeyPrefix
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{config.Addr},
		Username:    config.Username,
		Password:    config.Password,
		SelectDB:    config.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Cache{
		client: client,
		config: config,
		logger: logging.Global().Named("store").Named("redis"),
	}, nil
}

// Get returns the cached value for the key, or a miss on any failure.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	cmd := c.client.B().Get().Key(c.config.KeyPrefix + key).Build()
	resp := c.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	data, err := resp.AsBytes()
	if err != nil {
		return nil, false
	}

	value, err := decodeValue(key, data)
	if err != nil {
		c.logger.Warn("redis decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return value, true
}

// Set stores the value under the key with the configured TTL. Failures
// are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	cmd := c.client.B().Set().Key(c.config.KeyPrefix + key).Value(string(data)).Ex(c.config.TTL).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes the key.
func (c *Cache) Delete(ctx context.Context, key string) {
	cmd := c.client.B().Del().Key(c.config.KeyPrefix + key).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

// DeleteMatching scans the prefixed keyspace and removes every key
// containing the substring.
func (c *Cache) DeleteMatching(ctx context.Context, substr string) int {
	if substr == "" {
		return 0
	}

	removed := 0
	cursor := uint64(0)
	pattern := c.config.KeyPrefix + "*" + substr + "*"
	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		entry, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			c.logger.Warn("redis scan failed", zap.Error(err))
			return removed
		}

		if len(entry.Elements) > 0 {
			del := c.client.B().Del().Key(entry.Elements...).Build()
			if err := c.client.Do(ctx, del).Error(); err == nil {
				removed += len(entry.Elements)
			}
		}

		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return removed
}

// Len counts entries under the key prefix.
func (c *Cache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()

	count := 0
	cursor := uint64(0)
	for {
		cmd := c.client.B().Scan().Cursor(cursor).Match(c.config.KeyPrefix + "*").Count(100).Build()
		entry, err := c.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return count
		}
		count += len(entry.Elements)
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return count
}

// Capacity is unlimited for Redis.
func (c *Cache) Capacity() int {
	return 0
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	c.client.Close()
	return nil
}

// decodeValue picks the concrete type from the operation prefix of the
// cache key.
func decodeValue(key string, data []byte) (interface{}, error) {
	operation := key
	if i := strings.Index(key, ":"); i >= 0 {
		operation = key[:i]
	}

	switch operation {
	case "query_records":
		var records []store.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	case "get_record":
		var record store.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}
		return record, nil
	case "get_schema":
		var schema store.Schema
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, err
		}
		return schema, nil
	default:
		return nil, fmt.Errorf("redis: unknown cache key operation %q", operation)
	}
}
