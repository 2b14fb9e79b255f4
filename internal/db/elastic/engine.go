// Package elastic implements db.Engine on the official Elasticsearch client.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/searchbridge/internal/db"
)

// Compile-time check: Engine implements db.Engine.
var _ db.Engine = (*Engine)(nil)

// Config holds connection parameters for the engine.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	CloudID   string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Engine talks to Elasticsearch over its REST API.
type Engine struct {
	client *elasticsearch.Client
}

// New creates an engine client. No request is sent until the first call.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Addresses) == 0 && cfg.CloudID == "" {
		return nil, fmt.Errorf("addresses or cloud id is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		CloudID:   cfg.CloudID,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Engine{client: client}, nil
}

// Ping checks connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err := check(db.OpPing, res, err); err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Search runs one compiled search request.
func (e *Engine) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("encode body: %w", err)}
	}
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(req.Index),
		e.client.Search.WithFrom(req.From),
		e.client.Search.WithSize(req.Size),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err := check(db.OpSearch, res, err); err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out db.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// Bulk sends index actions as NDJSON.
func (e *Engine) Bulk(ctx context.Context, req *db.BulkRequest) (*db.BulkResponse, error) {
	body, err := req.Body()
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}
	opts := []func(*esapi.BulkRequest){e.client.Bulk.WithContext(ctx)}
	if req.Pipeline != "" {
		opts = append(opts, e.client.Bulk.WithPipeline(req.Pipeline))
	}
	res, err := e.client.Bulk(bytes.NewReader(body), opts...)
	if err := check(db.OpBulk, res, err); err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out db.BulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

// DeleteByQuery deletes every document of index matching query and returns the count deleted.
func (e *Engine) DeleteByQuery(ctx context.Context, index string, query db.Clause) (int, error) {
	body, err := json.Marshal(map[string]any{"query": query})
	if err != nil {
		return 0, &db.Error{Op: db.OpDeleteByQuery, Err: fmt.Errorf("encode body: %w", err)}
	}
	res, err := e.client.DeleteByQuery(
		[]string{index},
		bytes.NewReader(body),
		e.client.DeleteByQuery.WithContext(ctx),
	)
	if err := check(db.OpDeleteByQuery, res, err); err != nil {
		return 0, err
	}
	defer res.Body.Close()

	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, &db.Error{Op: db.OpDeleteByQuery, Err: fmt.Errorf("decode response: %w", err)}
	}
	return out.Deleted, nil
}

// IndexExists reports whether the index exists.
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := e.client.Indices.Exists([]string{name}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexExists, Err: decodeError(res)}
	}
}

// CreateIndex creates an index with the given mapping.
func (e *Engine) CreateIndex(ctx context.Context, name string, mapping *db.Mapping) error {
	body, err := json.Marshal(map[string]any{"mappings": mapping})
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: fmt.Errorf("encode body: %w", err)}
	}
	res, err := e.client.Indices.Create(
		name,
		e.client.Indices.Create.WithContext(ctx),
		e.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err := check(db.OpCreateIndex, res, err); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

// PutMapping updates the mapping of an existing index.
func (e *Engine) PutMapping(ctx context.Context, name string, mapping *db.Mapping) error {
	body, err := json.Marshal(mapping)
	if err != nil {
		return &db.Error{Op: db.OpPutMapping, Err: fmt.Errorf("encode body: %w", err)}
	}
	res, err := e.client.Indices.PutMapping(
		[]string{name},
		bytes.NewReader(body),
		e.client.Indices.PutMapping.WithContext(ctx),
	)
	if err := check(db.OpPutMapping, res, err); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

// DeleteIndex drops an index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	res, err := e.client.Indices.Delete([]string{name}, e.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpDeleteIndex, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return &db.Error{Op: db.OpDeleteIndex, Err: decodeError(res)}
	}
	return nil
}

// check turns a transport failure or an error status into a *db.Error.
// On success the caller owns res.Body.
func check(op string, res *esapi.Response, err error) error {
	if err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
	}
	if res.IsError() {
		defer res.Body.Close()
		return &db.Error{Op: op, Err: decodeError(res)}
	}
	return nil
}

type errorEnvelope struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func decodeError(res *esapi.Response) *db.ResponseError {
	out := &db.ResponseError{Status: res.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return out
	}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Error) == 0 {
		out.Reason = string(raw)
		return out
	}
	var cause errorCause
	if err := json.Unmarshal(env.Error, &cause); err == nil {
		out.Type, out.Reason = cause.Type, cause.Reason
		return out
	}
	var reason string
	if err := json.Unmarshal(env.Error, &reason); err == nil {
		out.Reason = reason
	}
	return out
}
