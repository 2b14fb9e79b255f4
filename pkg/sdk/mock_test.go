package searchbridge

import (
	"context"
	"testing"

	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, index string, q *query.Query) (*result.Response, error)
}

func (m *mockSearchUC) Search(ctx context.Context, index string, q *query.Query) (*result.Response, error) {
	return m.searchFn(ctx, index, q)
}

// --- indexingUseCase mock ---

type mockIndexingUC struct {
	syncFn   func(ctx context.Context, idx *domidx.Descriptor, class string, ids []int64) (indexinguc.SyncResult, error)
	removeFn func(ctx context.Context, idx *domidx.Descriptor, identity string) error
}

func (m *mockIndexingUC) SyncRecords(
	ctx context.Context, idx *domidx.Descriptor, class string, ids []int64,
) (indexinguc.SyncResult, error) {
	return m.syncFn(ctx, idx, class, ids)
}

func (m *mockIndexingUC) Remove(ctx context.Context, idx *domidx.Descriptor, identity string) error {
	return m.removeFn(ctx, idx, identity)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testCatalog(t *testing.T) *domidx.Catalog {
	t.Helper()
	idx, err := domidx.New(domidx.Definition{
		Name:           "content",
		Classes:        []string{"SiteTree"},
		FulltextFields: []string{"Title", "Content"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	c, err := domidx.NewCatalog(idx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func testClient(t *testing.T, search searchUseCase, indexing indexingUseCase, health healthUseCase) *Client {
	t.Helper()
	return &Client{
		catalog:     testCatalog(t),
		searchSvc:   search,
		indexingSvc: indexing,
		healthSvc:   health,
		defaultRows: 10,
	}
}

func mustRecord(t *testing.T, class string, id int64, title string) domrec.Record {
	t.Helper()
	r, err := domrec.New(class, id, domrec.VisibilityUnset, domrec.DefaultViewStatus, map[string]any{"Title": title})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return r
}
