// Package reconcile retries index writes that failed earlier.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
	"github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
)

// Report summarizes one reconciliation pass over an index.
type Report struct {
	Index   string
	Retried int
	Cleared int
	Failed  int
}

// Service records failed writes and replays them.
type Service struct {
	ledger  Ledger
	catalog Catalog
	records RecordFinder
	cache   RecordInvalidator
	syncer  Syncer
}

// New creates a reconcile service.
func New(l Ledger, catalog Catalog, records RecordFinder, syncer Syncer) *Service {
	return &Service{ledger: l, catalog: catalog, records: records, syncer: syncer}
}

// WithInvalidator makes retries read records past a lookup cache.
func (s *Service) WithInvalidator(c RecordInvalidator) *Service {
	s.cache = c
	return s
}

// RecordFailure stores failures (identity -> cause) under index and op.
// Recording an identity again replaces its cause.
func (s *Service) RecordFailure(ctx context.Context, index string, op ledger.Op, failures map[string]string) error {
	if len(failures) == 0 {
		return nil
	}
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]ledger.Entry, 0, len(ids))
	for _, id := range ids {
		e, err := ledger.NewEntry(id, op, failures[id])
		if err != nil {
			return fmt.Errorf("ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := s.ledger.Record(ctx, index, entries); err != nil {
		return fmt.Errorf("record failures: %w", err)
	}
	metrics.LedgerEntriesTotal.WithLabelValues(index, string(op)).Add(float64(len(entries)))
	return nil
}

// Pending returns the number of dirty identities of index per op.
func (s *Service) Pending(ctx context.Context, index string) (map[ledger.Op]int64, error) {
	out := make(map[ledger.Op]int64, len(ledger.Ops()))
	for _, op := range ledger.Ops() {
		n, err := s.ledger.Count(ctx, index, op)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", op, err)
		}
		out[op] = n
	}
	return out, nil
}

// RetryAll reconciles every index the ledger holds entries for.
// Indexes that are no longer configured are skipped.
func (s *Service) RetryAll(ctx context.Context) ([]Report, error) {
	names, err := s.ledger.Indexes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dirty indexes: %w", err)
	}
	var (
		reports []Report
		errs    []error
	)
	for _, name := range names {
		rep, err := s.Retry(ctx, name)
		if errors.Is(err, domain.ErrIndexNotFound) {
			logger.FromContext(ctx).Warn("Skipping ledger of unconfigured index", zap.String("index", name))
			continue
		}
		reports = append(reports, rep)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return reports, errors.Join(errs...)
}

// Retry replays the dirty entries of one index. Write entries are re-read and
// re-indexed; entries whose record is gone or excluded become removals.
// Delete entries are re-issued. Entries are cleared once the engine accepts them;
// entries that fail again stay with their new cause.
func (s *Service) Retry(ctx context.Context, index string) (Report, error) {
	rep := Report{Index: index}
	idx, err := s.catalog.Get(index)
	if err != nil {
		return rep, err
	}
	ctx, log := logger.With(ctx, zap.String("index", index))

	writes, err := s.ledger.List(ctx, index, ledger.OpWrite)
	if err != nil {
		return rep, fmt.Errorf("list writes: %w", err)
	}
	deletes, err := s.ledger.List(ctx, index, ledger.OpDelete)
	if err != nil {
		return rep, fmt.Errorf("list deletes: %w", err)
	}
	rep.Retried = len(writes) + len(deletes)
	if rep.Retried == 0 {
		return rep, nil
	}

	var errs []error
	if err := s.retryWrites(ctx, idx, writes, &rep); err != nil {
		errs = append(errs, err)
	}
	if err := s.retryDeletes(ctx, idx, deletes, &rep); err != nil {
		errs = append(errs, err)
	}

	log.Info("Ledger reconciled",
		zap.Int("retried", rep.Retried),
		zap.Int("cleared", rep.Cleared),
		zap.Int("failed", rep.Failed),
	)
	return rep, errors.Join(errs...)
}

func (s *Service) retryWrites(ctx context.Context, idx *domidx.Descriptor, entries []ledger.Entry, rep *Report) error {
	var (
		batch   []domrec.Record
		cleared []string
		failed  = map[string]string{}
		removes []string
	)
	for _, e := range entries {
		class, id, err := domrec.ParseIdentity(e.Identity)
		if err != nil {
			logger.FromContext(ctx).Warn("Dropping malformed ledger entry",
				zap.String("identity", e.Identity), zap.Error(err))
			cleared = append(cleared, e.Identity)
			continue
		}
		if s.cache != nil {
			s.cache.Invalidate(class, id)
		}
		rec, err := s.records.Find(ctx, class, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			removes = append(removes, e.Identity)
		case err != nil:
			failed[e.Identity] = err.Error()
		case rec.Excluded():
			removes = append(removes, e.Identity)
		default:
			batch = append(batch, rec)
		}
	}

	for _, identity := range removes {
		if err := s.syncer.Remove(ctx, idx, identity); err != nil {
			failed[identity] = err.Error()
			continue
		}
		cleared = append(cleared, identity)
	}

	var batchErr error
	if len(batch) > 0 {
		_, err := s.syncer.UpdateIndex(ctx, idx, batch)
		var werr *indexing.WriteError
		switch {
		case err == nil:
		case errors.As(err, &werr):
			for id, cause := range werr.Failures {
				failed[id] = cause
			}
		default:
			batchErr = err
			for _, r := range batch {
				failed[r.Identity()] = err.Error()
			}
		}
		for _, r := range batch {
			if _, ok := failed[r.Identity()]; !ok {
				cleared = append(cleared, r.Identity())
			}
		}
	}

	return s.settle(ctx, idx.Name(), ledger.OpWrite, cleared, failed, rep, batchErr)
}

func (s *Service) retryDeletes(ctx context.Context, idx *domidx.Descriptor, entries []ledger.Entry, rep *Report) error {
	var cleared []string
	failed := map[string]string{}
	for _, e := range entries {
		if err := s.syncer.Remove(ctx, idx, e.Identity); err != nil {
			failed[e.Identity] = err.Error()
			continue
		}
		cleared = append(cleared, e.Identity)
	}
	return s.settle(ctx, idx.Name(), ledger.OpDelete, cleared, failed, rep, nil)
}

// settle clears accepted entries and refreshes the causes of failed ones.
func (s *Service) settle(
	ctx context.Context, index string, op ledger.Op,
	cleared []string, failed map[string]string, rep *Report, cause error,
) error {
	if err := s.ledger.Clear(ctx, index, op, cleared...); err != nil {
		return fmt.Errorf("clear %s entries: %w", op, err)
	}
	metrics.ReconciledEntriesTotal.WithLabelValues(index, string(op)).Add(float64(len(cleared)))
	rep.Cleared += len(cleared)
	rep.Failed += len(failed)
	if err := s.RecordFailure(ctx, index, op, failed); err != nil {
		return err
	}
	if cause != nil {
		return fmt.Errorf("%s retry: %w", op, cause)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d %s entries still failing", domain.ErrWriteFailed, len(failed), op)
	}
	return nil
}
