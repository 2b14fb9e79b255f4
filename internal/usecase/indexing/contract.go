package indexing

import (
	"context"

	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// DocumentBuilder flattens records into engine documents.
type DocumentBuilder interface {
	BuildItems(idx *domidx.Descriptor, fields []string, records []domrec.Record) ([]domdoc.Document, error)
}

// Writer sends documents to the engine.
type Writer interface {
	// Index returns per-document rejections keyed by composite identity.
	Index(ctx context.Context, index, pipeline string, docs []domdoc.Document) (map[string]string, error)
	Delete(ctx context.Context, index, identity string) (int, error)
}

// RecordFinder loads records by id.
type RecordFinder interface {
	FindMany(ctx context.Context, class string, ids []int64) ([]domrec.Record, error)
}

// FailureRecorder keeps failed writes for later reconciliation.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, index string, op ledger.Op, failures map[string]string) error
}

// RecordInvalidator drops cached copies of records that were synchronized or removed.
type RecordInvalidator interface {
	Invalidate(class string, id int64)
}
