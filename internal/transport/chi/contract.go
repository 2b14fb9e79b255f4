package chi

import (
	"context"

	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
	reconcileuc "github.com/kailas-cloud/searchbridge/internal/usecase/reconcile"
)

// Searcher runs queries.
type Searcher interface {
	Search(ctx context.Context, index string, q *query.Query) (*result.Response, error)
}

// Syncer writes and removes records.
type Syncer interface {
	SyncRecords(ctx context.Context, idx *domidx.Descriptor, class string, ids []int64) (indexinguc.SyncResult, error)
	Remove(ctx context.Context, idx *domidx.Descriptor, identity string) error
}

// Reconciler replays the dirty ledger.
type Reconciler interface {
	Retry(ctx context.Context, index string) (reconcileuc.Report, error)
	Pending(ctx context.Context, index string) (map[ledger.Op]int64, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Catalog looks up configured indexes.
type Catalog interface {
	Get(name string) (*domidx.Descriptor, error)
}
