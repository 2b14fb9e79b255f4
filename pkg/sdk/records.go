package searchbridge

import (
	"context"
	"fmt"
	"time"

	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// RecordService keeps the records of one index in step with the engine.
type RecordService struct {
	index   string
	catalog indexCatalog
	svc     indexingUseCase
	obs     *observer
}

// Sync re-reads the given records of class and writes them. Records that are
// gone or opted out of search are removed. A partially failed sync returns
// both a result and an error wrapping ErrWriteFailed.
func (s *RecordService) Sync(ctx context.Context, class string, ids ...int64) (res SyncResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("sync", s.index, start, err) }()

	idx, err := s.catalog.Get(s.index)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync: %w", err)
	}
	r, err := s.svc.SyncRecords(ctx, idx, class, ids)
	res = SyncResult{Indexed: r.Indexed, Removed: r.Removed, Failed: r.Failed}
	if err != nil {
		return res, fmt.Errorf("sync: %w", err)
	}
	return res, nil
}

// Remove deletes the documents of one record.
func (s *RecordService) Remove(ctx context.Context, class string, id int64) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("remove", s.index, start, err) }()

	idx, err := s.catalog.Get(s.index)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	if err := s.svc.Remove(ctx, idx, domrec.Identity(class, id)); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
