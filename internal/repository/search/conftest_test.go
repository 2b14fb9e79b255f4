package search

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/db"
	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
)

var errNotFound = fmt.Errorf("%w: record", domain.ErrNotFound)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error)
}

func (m *mockStore) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &db.SearchResponse{}, nil
}

// mockFinder resolves records from a map keyed by identity.
type mockFinder struct {
	records       map[string]domrec.Record
	findFn        func(ctx context.Context, class string, id int64) (domrec.Record, error)
	findFirstByFn func(ctx context.Context, classes []string, path string, value any) (domrec.Record, error)
}

func (m *mockFinder) Find(ctx context.Context, class string, id int64) (domrec.Record, error) {
	if m.findFn != nil {
		return m.findFn(ctx, class, id)
	}
	if r, ok := m.records[domrec.Identity(class, id)]; ok {
		return r, nil
	}
	return domrec.Record{}, errNotFound
}

func (m *mockFinder) FindFirstBy(ctx context.Context, classes []string, path string, value any) (domrec.Record, error) {
	if m.findFirstByFn != nil {
		return m.findFirstByFn(ctx, classes, path, value)
	}
	return domrec.Record{}, errNotFound
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry([]schema.ClassDef{
		{Name: "SiteTree", Fields: map[string]string{"Title": "Varchar", "Content": "HTMLText"}},
		{Name: "Page", Parent: "SiteTree", Fields: map[string]string{"Summary": "Text"}},
		{Name: "Tag", Fields: map[string]string{"Title": "Varchar"}},
		{Name: "SpecialTag", Parent: "Tag"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func testIndex(t *testing.T, def domidx.Definition) *domidx.Descriptor {
	t.Helper()
	if def.Name == "" {
		def.Name = "content"
	}
	if len(def.Classes) == 0 {
		def.Classes = []string{"SiteTree"}
	}
	idx, err := domidx.New(def)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}
	return idx
}

func testRecord(t *testing.T, class string, id int64, attrs map[string]any) domrec.Record {
	t.Helper()
	r, err := domrec.New(class, id, domrec.VisibilityUnset, "", attrs)
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	return r
}

func decodeResponse(t *testing.T, raw string) *db.SearchResponse {
	t.Helper()
	var res db.SearchResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &res
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}
