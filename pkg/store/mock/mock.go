// Package mock provides a scriptable Transport for tests.
package mock

import (
	"context"
	"sync/atomic"

	"spendpilot/pkg/codec"
	"spendpilot/pkg/store"
)

// Transport is a mock store.Transport. Set the Func hooks to script
// behavior; call counts are tracked atomically.
type Transport struct {
	QueryFunc  func(ctx context.Context, collectionID string, filter *store.Filter, sorts []store.Sort, startCursor string) (*store.QueryPage, error)
	CreateFunc func(ctx context.Context, collectionID string, properties map[string]codec.Property) (*store.Record, error)
	UpdateFunc func(ctx context.Context, recordID string, properties map[string]codec.Property) (*store.Record, error)
	GetFunc    func(ctx context.Context, recordID string) (*store.Record, error)
	SchemaFunc func(ctx context.Context, collectionID string) (*store.Schema, error)

	queryCalls  int64
	createCalls int64
	updateCalls int64
	getCalls    int64
	schemaCalls int64
}

// NewTransport creates a mock transport whose operations return empty
// results until scripted.
func NewTransport() *Transport {
	return &Transport{}
}

// Query implements store.Transport.
func (t *Transport) Query(ctx context.Context, collectionID string, filter *store.Filter, sorts []store.Sort, startCursor string) (*store.QueryPage, error) {
	atomic.AddInt64(&t.queryCalls, 1)
	if t.QueryFunc != nil {
		return t.QueryFunc(ctx, collectionID, filter, sorts, startCursor)
	}
	return &store.QueryPage{}, nil
}

// Create implements store.Transport.
func (t *Transport) Create(ctx context.Context, collectionID string, properties map[string]codec.Property) (*store.Record, error) {
	atomic.AddInt64(&t.createCalls, 1)
	if t.CreateFunc != nil {
		return t.CreateFunc(ctx, collectionID, properties)
	}
	return &store.Record{Properties: properties}, nil
}

// Update implements store.Transport.
func (t *Transport) Update(ctx context.Context, recordID string, properties map[string]codec.Property) (*store.Record, error) {
	atomic.AddInt64(&t.updateCalls, 1)
	if t.UpdateFunc != nil {
		return t.UpdateFunc(ctx, recordID, properties)
	}
	return &store.Record{ID: recordID, Properties: properties}, nil
}

// Get implements store.Transport.
func (t *Transport) Get(ctx context.Context, recordID string) (*store.Record, error) {
	atomic.AddInt64(&t.getCalls, 1)
	if t.GetFunc != nil {
		return t.GetFunc(ctx, recordID)
	}
	return &store.Record{ID: recordID}, nil
}

// Schema implements store.Transport.
func (t *Transport) Schema(ctx context.Context, collectionID string) (*store.Schema, error) {
	atomic.AddInt64(&t.schemaCalls, 1)
	if t.SchemaFunc != nil {
		return t.SchemaFunc(ctx, collectionID)
	}
	return &store.Schema{ID: collectionID}, nil
}

// QueryCalls returns the number of Query calls.
func (t *Transport) QueryCalls() int { return int(atomic.LoadInt64(&t.queryCalls)) }

// CreateCalls returns the number of Create calls.
func (t *Transport) CreateCalls() int { return int(atomic.LoadInt64(&t.createCalls)) }

// UpdateCalls returns the number of Update calls.
func (t *Transport) UpdateCalls() int { return int(atomic.LoadInt64(&t.updateCalls)) }

// GetCalls returns the number of Get calls.
func (t *Transport) GetCalls() int { return int(atomic.LoadInt64(&t.getCalls)) }

// SchemaCalls returns the number of Schema calls.
func (t *Transport) SchemaCalls() int { return int(atomic.LoadInt64(&t.schemaCalls)) }
