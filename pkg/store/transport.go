package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"spendpilot/pkg/codec"
)

// QueryPage is one page of query results with the cursor to the next.
type QueryPage struct {
	Records    []Record `json:"results"`
	NextCursor string   `json:"next_cursor"`
	HasMore    bool     `json:"has_more"`
}

// Transport performs single-attempt wire operations against the
// external record store. Retries, pacing, caching and metrics all live
// above it in the Client, so implementations stay a thin dialect layer.
type Transport interface {
	Query(ctx context.Context, collectionID string, filter *Filter, sorts []Sort, startCursor string) (*QueryPage, error)
	Create(ctx context.Context, collectionID string, properties map[string]codec.Property) (*Record, error)
	Update(ctx context.Context, recordID string, properties map[string]codec.Property) (*Record, error)
	Get(ctx context.Context, recordID string) (*Record, error)
	Schema(ctx context.Context, collectionID string) (*Schema, error)
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// BaseURL of the workspace API, without trailing slash
	BaseURL string

	// Token is the integration bearer token
	Token string

	// Version is the API version header value
	Version string

	// PageSize for query pagination (max 100)
	PageSize int

	// HTTPClient to use; defaults to one with a 30s overall timeout
	HTTPClient *http.Client
}

// DefaultHTTPTransportConfig returns sensible defaults for the HTTP
// transport. The token must still be supplied by the caller.
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		BaseURL:  "https://api.workspace.com/v1",
		Version:  "2022-06-28",
		PageSize: 100,
	}
}

// HTTPTransport speaks the external store's REST dialect: bearer auth,
// versioned header, JSON bodies, cursor pagination.
type HTTPTransport struct {
	config HTTPTransportConfig
	client *http.Client
}

// NewHTTPTransport creates an HTTP transport with the given configuration.
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	if config.BaseURL == "" {
		config.BaseURL = DefaultHTTPTransportConfig().BaseURL
	}
	if config.Version == "" {
		config.Version = DefaultHTTPTransportConfig().Version
	}
	if config.PageSize <= 0 || config.PageSize > 100 {
		config.PageSize = 100
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{config: config, client: client}
}

type queryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	Sorts       []Sort  `json:"sorts,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

type createRequest struct {
	Parent     recordParent              `json:"parent"`
	Properties map[string]codec.Property `json:"properties"`
}

type recordParent struct {
	CollectionID string `json:"collection_id"`
}

type updateRequest struct {
	Properties map[string]codec.Property `json:"properties"`
}

// Query fetches a single page of records matching the filter.
func (t *HTTPTransport) Query(ctx context.Context, collectionID string, filter *Filter, sorts []Sort, startCursor string) (*QueryPage, error) {
	body := queryRequest{
		Filter:      filter,
		Sorts:       sorts,
		StartCursor: startCursor,
		PageSize:    t.config.PageSize,
	}
	var page QueryPage
	url := fmt.Sprintf("%s/collections/%s/query", t.config.BaseURL, collectionID)
	if err := t.do(ctx, http.MethodPost, url, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Create inserts a record into a collection.
func (t *HTTPTransport) Create(ctx context.Context, collectionID string, properties map[string]codec.Property) (*Record, error) {
	body := createRequest{
		Parent:     recordParent{CollectionID: collectionID},
		Properties: properties,
	}
	var record Record
	url := fmt.Sprintf("%s/records", t.config.BaseURL)
	if err := t.do(ctx, http.MethodPost, url, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Update patches a record's properties.
func (t *HTTPTransport) Update(ctx context.Context, recordID string, properties map[string]codec.Property) (*Record, error) {
	body := updateRequest{Properties: properties}
	var record Record
	url := fmt.Sprintf("%s/records/%s", t.config.BaseURL, recordID)
	if err := t.do(ctx, http.MethodPatch, url, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Get retrieves a record by id.
func (t *HTTPTransport) Get(ctx context.Context, recordID string) (*Record, error) {
	var record Record
	url := fmt.Sprintf("%s/records/%s", t.config.BaseURL, recordID)
	if err := t.do(ctx, http.MethodGet, url, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

type schemaWire struct {
	ID         string           `json:"id"`
	Title      []codec.TextSpan `json:"title"`
	Properties map[string]struct {
		Type codec.Kind `json:"type"`
	} `json:"properties"`
}

// Schema retrieves a collection's schema.
func (t *HTTPTransport) Schema(ctx context.Context, collectionID string) (*Schema, error) {
	var wire schemaWire
	url := fmt.Sprintf("%s/collections/%s", t.config.BaseURL, collectionID)
	if err := t.do(ctx, http.MethodGet, url, nil, &wire); err != nil {
		return nil, err
	}

	schema := &Schema{
		ID:         wire.ID,
		Properties: make(map[string]codec.Kind, len(wire.Properties)),
	}
	for _, span := range wire.Title {
		schema.Title += span.PlainText
	}
	for name, prop := range wire.Properties {
		schema.Properties[name] = prop.Type
	}
	return schema, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do issues one HTTP request and decodes the response, mapping failures
// into the client error taxonomy.
func (t *HTTPTransport) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Errorf(CodeValidation, "encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Errorf(CodeValidation, "build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", t.config.Version)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return NewError(CodeTimeout, "request deadline exceeded").WithCause(err)
		}
		return NewError(CodeConnection, "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewError(CodeConnection, "read response body").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		return t.statusError(resp, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return NewError(CodeServer, "decode response body").WithCause(err)
		}
	}
	return nil
}

// statusError maps a non-200 response onto the error taxonomy.
func (t *HTTPTransport) statusError(resp *http.Response, body []byte) error {
	message := "request rejected"
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Message != "" {
		message = ae.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return NewError(CodeAuthentication, message).WithDetail("status", resp.StatusCode)
	case http.StatusForbidden:
		return NewError(CodePermission, message).WithDetail("status", resp.StatusCode)
	case http.StatusNotFound:
		return NewError(CodeNotFound, message).WithDetail("status", resp.StatusCode)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewError(CodeValidation, message).WithDetail("status", resp.StatusCode)
	case http.StatusConflict:
		return NewError(CodeConflict, message).WithDetail("status", resp.StatusCode)
	case http.StatusTooManyRequests:
		e := NewError(CodeRateLimited, message).WithDetail("status", resp.StatusCode)
		if after := resp.Header.Get("Retry-After"); after != "" {
			if seconds, err := strconv.ParseFloat(after, 64); err == nil && seconds > 0 {
				e = e.WithRetryAfter(time.Duration(seconds * float64(time.Second)))
			}
		}
		return e
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return NewError(CodeTimeout, message).WithDetail("status", resp.StatusCode)
	default:
		return NewError(CodeServer, message).WithDetail("status", resp.StatusCode)
	}
}
