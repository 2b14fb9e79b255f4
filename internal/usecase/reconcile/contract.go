package reconcile

import (
	"context"

	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// Ledger stores dirty identities per index and op.
type Ledger interface {
	Record(ctx context.Context, index string, entries []ledger.Entry) error
	List(ctx context.Context, index string, op ledger.Op) ([]ledger.Entry, error)
	Clear(ctx context.Context, index string, op ledger.Op, identities ...string) error
	Count(ctx context.Context, index string, op ledger.Op) (int64, error)
	Indexes(ctx context.Context) ([]string, error)
}

// Catalog looks up configured indexes.
type Catalog interface {
	Get(name string) (*domidx.Descriptor, error)
}

// RecordFinder loads one record.
type RecordFinder interface {
	Find(ctx context.Context, class string, id int64) (domrec.Record, error)
}

// RecordInvalidator drops a cached record so the next Find reads the source.
type RecordInvalidator interface {
	Invalidate(class string, id int64)
}

// Syncer writes to the engine.
type Syncer interface {
	UpdateIndex(ctx context.Context, idx *domidx.Descriptor, records []domrec.Record) ([]domdoc.Document, error)
	Remove(ctx context.Context, idx *domidx.Descriptor, identity string) error
}
