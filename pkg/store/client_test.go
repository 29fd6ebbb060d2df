package store

import (
	"context"
	"testing"
	"time"

	"spendpilot/pkg/codec"
	"spendpilot/pkg/metrics/memory"
)

// fastConfig removes real pacing and backoff from client tests.
func fastConfig() ClientConfig {
	return ClientConfig{
		RequestsPerSecond: 10000,
		Retry:             RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		AttemptTimeout:    time.Second,
	}
}

// scriptTransport implements Transport inline, avoiding an import cycle
// with the mock package.
type scriptTransport struct {
	query  func(ctx context.Context, collectionID string, filter *Filter, sorts []Sort, cursor string) (*QueryPage, error)
	create func(ctx context.Context, collectionID string, properties map[string]codec.Property) (*Record, error)
	update func(ctx context.Context, recordID string, properties map[string]codec.Property) (*Record, error)
	get    func(ctx context.Context, recordID string) (*Record, error)
	schema func(ctx context.Context, collectionID string) (*Schema, error)
}

func (t *scriptTransport) Query(ctx context.Context, collectionID string, filter *Filter, sorts []Sort, cursor string) (*QueryPage, error) {
	if t.query == nil {
		return &QueryPage{}, nil
	}
	return t.query(ctx, collectionID, filter, sorts, cursor)
}

func (t *scriptTransport) Create(ctx context.Context, collectionID string, properties map[string]codec.Property) (*Record, error) {
	if t.create == nil {
		return &Record{CollectionID: collectionID, Properties: properties}, nil
	}
	return t.create(ctx, collectionID, properties)
}

func (t *scriptTransport) Update(ctx context.Context, recordID string, properties map[string]codec.Property) (*Record, error) {
	if t.update == nil {
		return &Record{ID: recordID, Properties: properties}, nil
	}
	return t.update(ctx, recordID, properties)
}

func (t *scriptTransport) Get(ctx context.Context, recordID string) (*Record, error) {
	if t.get == nil {
		return &Record{ID: recordID}, nil
	}
	return t.get(ctx, recordID)
}

func (t *scriptTransport) Schema(ctx context.Context, collectionID string) (*Schema, error) {
	if t.schema == nil {
		return &Schema{ID: collectionID}, nil
	}
	return t.schema(ctx, collectionID)
}

func TestQueryRecordsRetriesUntilSuccess(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		query: func(context.Context, string, *Filter, []Sort, string) (*QueryPage, error) {
			calls++
			if calls < 3 {
				return nil, NewError(CodeServer, "upstream 500")
			}
			return &QueryPage{Records: []Record{{ID: "rec-1"}}}, nil
		},
	}
	client := NewClient(transport, fastConfig())
	defer client.Close()

	records, err := client.QueryRecords(context.Background(), "col-1", nil, nil)
	if err != nil {
		t.Fatalf("QueryRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "rec-1" {
		t.Errorf("records = %+v, want one rec-1", records)
	}
	if calls != 3 {
		t.Errorf("transport calls = %d, want 3", calls)
	}
}

func TestQueryRecordsGivesUpAfterBudget(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		query: func(context.Context, string, *Filter, []Sort, string) (*QueryPage, error) {
			calls++
			return nil, NewError(CodeServer, "down")
		},
	}
	client := NewClient(transport, fastConfig())
	defer client.Close()

	_, err := client.QueryRecords(context.Background(), "col-1", nil, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 4 {
		t.Errorf("transport calls = %d, want 4 (1 try + 3 retries)", calls)
	}
}

func TestQueryRecordsNonRetryableFailsFast(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		query: func(context.Context, string, *Filter, []Sort, string) (*QueryPage, error) {
			calls++
			return nil, NewError(CodePermission, "forbidden")
		},
	}
	client := NewClient(transport, fastConfig())
	defer client.Close()

	_, err := client.QueryRecords(context.Background(), "col-1", nil, nil)
	if Classify(err) != CodePermission {
		t.Fatalf("err = %v, want permission", err)
	}
	if calls != 1 {
		t.Errorf("transport calls = %d, want 1", calls)
	}
}

func TestQueryRecordsFollowsPagination(t *testing.T) {
	transport := &scriptTransport{
		query: func(_ context.Context, _ string, _ *Filter, _ []Sort, cursor string) (*QueryPage, error) {
			switch cursor {
			case "":
				return &QueryPage{Records: []Record{{ID: "a"}}, NextCursor: "c2", HasMore: true}, nil
			case "c2":
				return &QueryPage{Records: []Record{{ID: "b"}, {ID: "c"}}}, nil
			default:
				return nil, NewError(CodeValidation, "bad cursor")
			}
		},
	}
	client := NewClient(transport, fastConfig())
	defer client.Close()

	records, err := client.QueryRecords(context.Background(), "col-1", nil, nil)
	if err != nil {
		t.Fatalf("QueryRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("records = %d, want 3 across pages", len(records))
	}
}

func TestQueryRecordsCacheReadThrough(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		query: func(context.Context, string, *Filter, []Sort, string) (*QueryPage, error) {
			calls++
			return &QueryPage{Records: []Record{{ID: "rec-1"}}}, nil
		},
	}
	config := fastConfig()
	config.Cache = NewMemoryCache(DefaultMemoryCacheConfig())
	client := NewClient(transport, config)
	defer client.Close()

	ctx := context.Background()
	filter := SelectEquals("Status", "pending")
	if _, err := client.QueryRecords(ctx, "col-1", filter, nil); err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	if _, err := client.QueryRecords(ctx, "col-1", filter, nil); err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("transport calls = %d, want 1 (second served from cache)", calls)
	}

	// a different filter is a different cache entry
	if _, err := client.QueryRecords(ctx, "col-1", SelectEquals("Status", "approved"), nil); err != nil {
		t.Fatalf("third query failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("transport calls = %d, want 2 after distinct filter", calls)
	}
}

func TestCachedResultsSurviveCallerMutation(t *testing.T) {
	transport := &scriptTransport{
		query: func(context.Context, string, *Filter, []Sort, string) (*QueryPage, error) {
			return &QueryPage{Records: []Record{{
				ID:         "rec-1",
				Properties: map[string]codec.Property{"Title": codec.NewTitle("original")},
			}}}, nil
		},
		get: func(_ context.Context, recordID string) (*Record, error) {
			return &Record{
				ID:         recordID,
				Properties: map[string]codec.Property{"Title": codec.NewTitle("original")},
			}, nil
		},
	}
	config := fastConfig()
	config.Cache = NewMemoryCache(DefaultMemoryCacheConfig())
	client := NewClient(transport, config)
	defer client.Close()
	ctx := context.Background()

	records, err := client.QueryRecords(ctx, "col-1", nil, nil)
	if err != nil {
		t.Fatalf("first query failed: %v", err)
	}
	records[0].ID = "mangled"
	records[0].Properties["Title"] = codec.NewTitle("mangled")

	again, err := client.QueryRecords(ctx, "col-1", nil, nil)
	if err != nil {
		t.Fatalf("second query failed: %v", err)
	}
	if again[0].ID != "rec-1" || again[0].Property("Title").PlainText() != "original" {
		t.Errorf("cached query corrupted by caller mutation: %+v", again[0])
	}

	record, err := client.GetRecord(ctx, "rec-1")
	if err != nil {
		t.Fatalf("first get failed: %v", err)
	}
	record.Properties["Title"] = codec.NewTitle("mangled")

	cached, err := client.GetRecord(ctx, "rec-1")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if cached.Property("Title").PlainText() != "original" {
		t.Errorf("cached record corrupted by caller mutation: %+v", cached)
	}
}

func TestUpdateRecordInvalidatesCachedRead(t *testing.T) {
	gets := 0
	transport := &scriptTransport{
		get: func(_ context.Context, recordID string) (*Record, error) {
			gets++
			return &Record{ID: recordID}, nil
		},
	}
	config := fastConfig()
	config.Cache = NewMemoryCache(DefaultMemoryCacheConfig())
	client := NewClient(transport, config)
	defer client.Close()

	ctx := context.Background()
	if _, err := client.GetRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := client.GetRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if gets != 1 {
		t.Fatalf("gets = %d, want 1 before update", gets)
	}

	if _, err := client.UpdateRecord(ctx, "rec-1", map[string]codec.Property{
		"Status": codec.NewSelect("approved"),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, err := client.GetRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("post-update get failed: %v", err)
	}
	if gets != 2 {
		t.Errorf("gets = %d, want 2 (update invalidated the cached read)", gets)
	}
}

func TestUpdateRecordErrorPropagates(t *testing.T) {
	transport := &scriptTransport{
		update: func(context.Context, string, map[string]codec.Property) (*Record, error) {
			return nil, NewError(CodeConflict, "already decided")
		},
	}
	client := NewClient(transport, fastConfig())
	defer client.Close()

	_, err := client.UpdateRecord(context.Background(), "rec-1", map[string]codec.Property{
		"Status": codec.NewSelect("approved"),
	})
	if !IsConflict(err) {
		t.Fatalf("err = %v, want conflict to propagate untouched", err)
	}
}

func TestGetRecordFreshBypassesCache(t *testing.T) {
	gets := 0
	transport := &scriptTransport{
		get: func(_ context.Context, recordID string) (*Record, error) {
			gets++
			return &Record{ID: recordID}, nil
		},
	}
	config := fastConfig()
	config.Cache = NewMemoryCache(DefaultMemoryCacheConfig())
	client := NewClient(transport, config)
	defer client.Close()

	ctx := context.Background()
	if _, err := client.GetRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := client.GetRecordFresh(ctx, "rec-1"); err != nil {
		t.Fatalf("fresh get failed: %v", err)
	}
	if gets != 2 {
		t.Errorf("gets = %d, want 2 (fresh read skips the cache)", gets)
	}
}

func TestClientValidatesArguments(t *testing.T) {
	client := NewClient(&scriptTransport{}, fastConfig())
	defer client.Close()
	ctx := context.Background()

	if _, err := client.QueryRecords(ctx, "", nil, nil); !IsValidation(err) {
		t.Errorf("empty collection id: err = %v, want validation", err)
	}
	if _, err := client.GetRecord(ctx, ""); !IsValidation(err) {
		t.Errorf("empty record id: err = %v, want validation", err)
	}
	if _, err := client.UpdateRecord(ctx, "rec-1", nil); !IsValidation(err) {
		t.Errorf("empty properties: err = %v, want validation", err)
	}
	if _, err := client.CreateRecord(ctx, "col-1", nil); !IsValidation(err) {
		t.Errorf("empty properties: err = %v, want validation", err)
	}
}

func TestAttemptTimeoutClassifiedRetryable(t *testing.T) {
	calls := 0
	transport := &scriptTransport{
		get: func(ctx context.Context, recordID string) (*Record, error) {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &Record{ID: recordID}, nil
		},
	}
	config := fastConfig()
	config.AttemptTimeout = 20 * time.Millisecond
	client := NewClient(transport, config)
	defer client.Close()

	record, err := client.GetRecordFresh(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("expected recovery after timeout, got %v", err)
	}
	if record.ID != "rec-1" || calls != 2 {
		t.Errorf("record=%v calls=%d, want rec-1 after 2 calls", record, calls)
	}
}

func TestClientEmitsMetrics(t *testing.T) {
	transport := &scriptTransport{}
	config := fastConfig()
	config.Cache = NewMemoryCache(DefaultMemoryCacheConfig())
	ring := memory.NewRingCollector(16)
	config.Metrics = ring
	client := NewClient(transport, config)
	defer client.Close()

	ctx := context.Background()
	if _, err := client.GetRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := client.GetRecord(ctx, "rec-1"); err != nil {
		t.Fatalf("cached get failed: %v", err)
	}

	snapshot := ring.Snapshot()
	if snapshot.TotalOperations != 2 {
		t.Errorf("TotalOperations = %d, want 2", snapshot.TotalOperations)
	}
	if snapshot.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", snapshot.CacheHits)
	}
	if snapshot.Successes != 2 {
		t.Errorf("Successes = %d, want 2", snapshot.Successes)
	}
}
