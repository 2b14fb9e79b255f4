package reindex

import (
	"context"

	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// RecordLister pages records by id range.
type RecordLister interface {
	IDRange(ctx context.Context, classes []string) (lo, hi int64, ok bool, err error)
	ListByIDRange(ctx context.Context, classes []string, lo, hi int64) ([]domrec.Record, error)
}

// Updater writes one batch of records.
type Updater interface {
	UpdateIndex(ctx context.Context, idx *domidx.Descriptor, records []domrec.Record) ([]domdoc.Document, error)
}

// ClassHierarchy answers inheritance questions.
type ClassHierarchy interface {
	Descendants(name string) []string
	IsA(class, tag string) bool
}

// FailureRecorder keeps failed writes for reconciliation.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, index string, op ledger.Op, failures map[string]string) error
}
