package index

import (
	"context"

	"github.com/kailas-cloud/searchbridge/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	createIndexFn func(ctx context.Context, name string, mapping *db.Mapping) error
	putMappingFn  func(ctx context.Context, name string, mapping *db.Mapping) error
	deleteIndexFn func(ctx context.Context, name string) error

	calls []string
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	m.calls = append(m.calls, "exists")
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, name string, mapping *db.Mapping) error {
	m.calls = append(m.calls, "create")
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, name, mapping)
	}
	return nil
}

func (m *mockStore) PutMapping(ctx context.Context, name string, mapping *db.Mapping) error {
	m.calls = append(m.calls, "put")
	if m.putMappingFn != nil {
		return m.putMappingFn(ctx, name, mapping)
	}
	return nil
}

func (m *mockStore) DeleteIndex(ctx context.Context, name string) error {
	m.calls = append(m.calls, "delete")
	if m.deleteIndexFn != nil {
		return m.deleteIndexFn(ctx, name)
	}
	return nil
}
