// Package indexing keeps engine indexes in step with domain records.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
)

// DefaultPipeline is the ingest pipeline bulk requests run through.
const DefaultPipeline = "ent-search-generic-ingestion"

// Ingest hints set on every document before transmission.
const (
	HintExtractBinaryContent = "_extract_binary_content"
	HintReduceWhitespace     = "_reduce_whitespace"
	HintRunMLInference       = "_run_ml_inference"
)

var ingestHints = map[string]bool{
	HintExtractBinaryContent: false,
	HintReduceWhitespace:     true,
	HintRunMLInference:       false,
}

// Service builds documents from records and writes them to the engine.
type Service struct {
	builder  DocumentBuilder
	writer   Writer
	records  RecordFinder
	failures FailureRecorder
	cache    RecordInvalidator
	pipeline string
}

// New creates an indexing service. An empty pipeline sends bulk requests without one.
func New(builder DocumentBuilder, writer Writer, records RecordFinder, pipeline string) *Service {
	return &Service{builder: builder, writer: writer, records: records, pipeline: pipeline}
}

// WithFailureRecorder makes SyncRecords keep failed writes for reconciliation.
func (s *Service) WithFailureRecorder(r FailureRecorder) *Service {
	s.failures = r
	return s
}

// WithInvalidator makes SyncRecords and Remove evict the touched records from a lookup cache.
func (s *Service) WithInvalidator(c RecordInvalidator) *Service {
	s.cache = c
	return s
}

// UpdateIndex builds one document per includable record and sends them in a
// single bulk request. Nothing is sent when every record was excluded.
// A failed or partially rejected write returns a *WriteError.
func (s *Service) UpdateIndex(ctx context.Context, idx *domidx.Descriptor, records []domrec.Record) ([]domdoc.Document, error) {
	docs, err := s.builder.BuildItems(idx, idx.FulltextFields(), records)
	if err != nil {
		return nil, fmt.Errorf("build documents: %w", err)
	}
	if len(docs) == 0 {
		return docs, nil
	}
	identities := make([]string, len(docs))
	for i, d := range docs {
		for k, v := range ingestHints {
			d[k] = v
		}
		identities[i] = d.Identity()
	}

	rejected, err := s.writer.Index(ctx, idx.Name(), s.pipeline, docs)
	if err != nil {
		metrics.IndexedDocumentsTotal.WithLabelValues(idx.Name(), "error").Add(float64(len(docs)))
		return docs, requestFailed(idx.Name(), ledger.OpWrite, identities, err)
	}
	metrics.IndexedDocumentsTotal.WithLabelValues(idx.Name(), "ok").Add(float64(len(docs) - len(rejected)))
	if len(rejected) > 0 {
		metrics.IndexedDocumentsTotal.WithLabelValues(idx.Name(), "error").Add(float64(len(rejected)))
		return docs, &WriteError{Index: idx.Name(), Op: ledger.OpWrite, Failures: rejected}
	}

	logger.FromContext(ctx).Debug("Index updated",
		zap.String("index", idx.Name()),
		zap.Int("records", len(records)),
		zap.Int("documents", len(docs)),
	)
	return docs, nil
}

// Remove deletes the documents of one record. Removing an identity that is
// not indexed is not an error.
func (s *Service) Remove(ctx context.Context, idx *domidx.Descriptor, identity string) error {
	if class, id, err := domrec.ParseIdentity(identity); err == nil {
		s.invalidate(class, id)
	}
	_, err := s.writer.Delete(ctx, idx.Name(), identity)
	metrics.RemovedDocumentsTotal.WithLabelValues(idx.Name(), metrics.Status(err)).Inc()
	if err != nil {
		return requestFailed(idx.Name(), ledger.OpDelete, []string{identity}, err)
	}
	return nil
}

// SyncResult summarizes one SyncRecords call.
type SyncResult struct {
	Indexed []string
	Removed []string
	Failed  map[string]string
}

// SyncRecords re-reads records of class and writes them. Records that no
// longer exist or opted out of search are removed from the index. Failures
// are recorded for reconciliation when a FailureRecorder is configured.
func (s *Service) SyncRecords(ctx context.Context, idx *domidx.Descriptor, class string, ids []int64) (SyncResult, error) {
	res := SyncResult{Failed: map[string]string{}}
	if len(ids) == 0 {
		return res, nil
	}
	for _, id := range ids {
		s.invalidate(class, id)
	}
	found, err := s.records.FindMany(ctx, class, ids)
	if err != nil {
		return res, fmt.Errorf("load %s records: %w", class, err)
	}

	present := make(map[int64]bool, len(found))
	var write []domrec.Record
	var remove []string
	for _, r := range found {
		present[r.ID()] = true
		if r.Excluded() {
			remove = append(remove, r.Identity())
			continue
		}
		write = append(write, r)
	}
	for _, id := range ids {
		if !present[id] {
			remove = append(remove, domrec.Identity(class, id))
		}
	}

	var errs []error
	if len(write) > 0 {
		docs, err := s.UpdateIndex(ctx, idx, write)
		var werr *WriteError
		switch {
		case errors.As(err, &werr):
			s.record(ctx, werr)
			for id, cause := range werr.Failures {
				res.Failed[id] = cause
			}
			errs = append(errs, err)
		case err != nil:
			return res, err
		}
		for _, d := range docs {
			if _, failed := res.Failed[d.Identity()]; !failed {
				res.Indexed = append(res.Indexed, d.Identity())
			}
		}
	}

	sort.Strings(remove)
	for _, identity := range remove {
		if err := s.Remove(ctx, idx, identity); err != nil {
			var werr *WriteError
			if errors.As(err, &werr) {
				s.record(ctx, werr)
			}
			res.Failed[identity] = err.Error()
			errs = append(errs, err)
			continue
		}
		res.Removed = append(res.Removed, identity)
	}

	logger.FromContext(ctx).Info("Records synced",
		zap.String("index", idx.Name()),
		zap.String("class", class),
		zap.Int("indexed", len(res.Indexed)),
		zap.Int("removed", len(res.Removed)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, errors.Join(errs...)
}

func (s *Service) invalidate(class string, id int64) {
	if s.cache != nil {
		s.cache.Invalidate(class, id)
	}
}

func (s *Service) record(ctx context.Context, werr *WriteError) {
	if s.failures == nil {
		return
	}
	if err := s.failures.RecordFailure(ctx, werr.Index, werr.Op, werr.Failures); err != nil {
		logger.FromContext(ctx).Error("Failed to record write failures",
			zap.String("index", werr.Index),
			zap.String("op", string(werr.Op)),
			zap.Strings("identities", werr.Identities()),
			zap.Error(err),
		)
	}
}
