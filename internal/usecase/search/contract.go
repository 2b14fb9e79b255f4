package search

import (
	"context"

	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// Repository compiles, executes and maps one query.
type Repository interface {
	Search(ctx context.Context, idx *domidx.Descriptor, q *query.Query) (*result.Response, error)
}

// Catalog looks up configured indexes.
type Catalog interface {
	Get(name string) (*domidx.Descriptor, error)
}
