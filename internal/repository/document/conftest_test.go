package document

import (
	"context"

	"github.com/kailas-cloud/searchbridge/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	bulkFn          func(ctx context.Context, req *db.BulkRequest) (*db.BulkResponse, error)
	deleteByQueryFn func(ctx context.Context, index string, query db.Clause) (int, error)
}

func (m *mockStore) Bulk(ctx context.Context, req *db.BulkRequest) (*db.BulkResponse, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, req)
	}
	return &db.BulkResponse{}, nil
}

func (m *mockStore) DeleteByQuery(ctx context.Context, index string, query db.Clause) (int, error) {
	if m.deleteByQueryFn != nil {
		return m.deleteByQueryFn(ctx, index, query)
	}
	return 0, nil
}
