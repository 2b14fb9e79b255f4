// Package reindex rebuilds whole indexes in id-range batches.
package reindex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/ledger"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
)

// Defaults for Options.
const (
	DefaultBatchLength = 500
	DefaultWorkers     = 4
)

// Options narrows and tunes a run.
type Options struct {
	// Class limits the run to one index class (and its descendants).
	Class string
	// Group selects one zero-based id-range group; nil runs them all.
	Group       *int
	BatchLength int
	Workers     int
}

// Group is one id range of one class.
type Group struct {
	Class   string
	Classes []string
	Number  int
	From    int64
	To      int64
}

// Report summarizes a run.
type Report struct {
	Index   string
	Groups  int
	Records int
	Failed  []Group
}

// Service rebuilds indexes.
type Service struct {
	records   RecordLister
	updater   Updater
	hierarchy ClassHierarchy
	failures  FailureRecorder
}

// New creates a reindex service. failures may be nil.
func New(records RecordLister, updater Updater, hierarchy ClassHierarchy, failures FailureRecorder) *Service {
	return &Service{records: records, updater: updater, hierarchy: hierarchy, failures: failures}
}

// Plan partitions the classes of idx into id-range groups of opts.BatchLength ids.
// Index classes that inherit from another index class are covered by their ancestor.
func (s *Service) Plan(ctx context.Context, idx *domidx.Descriptor, opts Options) ([]Group, error) {
	opts = withDefaults(opts)
	roots, err := s.roots(idx, opts.Class)
	if err != nil {
		return nil, err
	}

	var groups []Group
	for _, class := range roots {
		classes := s.hierarchy.Descendants(class)
		lo, hi, ok, err := s.records.IDRange(ctx, classes)
		if err != nil {
			return nil, fmt.Errorf("id range of %s: %w", class, err)
		}
		if !ok {
			continue
		}
		size := int64(opts.BatchLength)
		for n, from := 0, lo; from <= hi; n, from = n+1, from+size {
			if opts.Group != nil && n != *opts.Group {
				continue
			}
			groups = append(groups, Group{Class: class, Classes: classes, Number: n, From: from, To: from + size - 1})
		}
	}
	return groups, nil
}

func (s *Service) roots(idx *domidx.Descriptor, only string) ([]string, error) {
	if only != "" {
		if !idx.HasClass(only) {
			return nil, fmt.Errorf("%w: %s is not indexed by %s", domain.ErrUnknownClass, only, idx.Name())
		}
		return []string{only}, nil
	}
	var out []string
	for _, c := range idx.Classes() {
		covered := slices.ContainsFunc(idx.Classes(), func(other string) bool {
			return other != c && s.hierarchy.IsA(c, other)
		})
		if !covered {
			out = append(out, c)
		}
	}
	return out, nil
}

// Run rebuilds idx. Groups run concurrently, at most opts.Workers at a time.
// A failed group is logged and its records recorded for reconciliation; the
// remaining groups still run. Run fails when any group failed.
func (s *Service) Run(ctx context.Context, idx *domidx.Descriptor, opts Options) (Report, error) {
	opts = withDefaults(opts)
	rep := Report{Index: idx.Name()}
	groups, err := s.Plan(ctx, idx, opts)
	if err != nil {
		return rep, err
	}
	rep.Groups = len(groups)
	ctx, log := logger.With(ctx, zap.String("index", idx.Name()))
	log.Info("Reindex started", zap.Int("groups", len(groups)), zap.Int("workers", opts.Workers))
	start := time.Now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, grp := range groups {
		g.Go(func() error {
			n, err := s.runGroup(gctx, idx, grp)
			mu.Lock()
			defer mu.Unlock()
			rep.Records += n
			if err != nil {
				rep.Failed = append(rep.Failed, grp)
				log.Error("Reindex group failed",
					zap.String("class", grp.Class),
					zap.Int("group", grp.Number),
					zap.Int64("from", grp.From),
					zap.Int64("to", grp.To),
					zap.Error(err),
				)
			}
			// Only cancellation stops the other groups.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("reindex %s: %w", idx.Name(), err)
	}

	slices.SortFunc(rep.Failed, func(a, b Group) int {
		if a.Class != b.Class {
			if a.Class < b.Class {
				return -1
			}
			return 1
		}
		return a.Number - b.Number
	})
	log.Info("Reindex finished",
		zap.Int("records", rep.Records),
		zap.Int("failed_groups", len(rep.Failed)),
		zap.Duration("duration", time.Since(start)),
	)
	if len(rep.Failed) > 0 {
		return rep, fmt.Errorf("%w: %d of %d groups of %s failed", domain.ErrWriteFailed, len(rep.Failed), rep.Groups, idx.Name())
	}
	return rep, nil
}

func (s *Service) runGroup(ctx context.Context, idx *domidx.Descriptor, grp Group) (int, error) {
	recs, err := s.records.ListByIDRange(ctx, grp.Classes, grp.From, grp.To)
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	docs, err := s.updater.UpdateIndex(ctx, idx, recs)
	if err == nil {
		return len(docs), nil
	}

	written := 0
	var werr *indexing.WriteError
	failures := map[string]string{}
	if errors.As(err, &werr) {
		failures = werr.Failures
		written = len(docs) - len(failures)
	} else {
		for _, r := range includable(recs) {
			failures[r.Identity()] = err.Error()
		}
	}
	if s.failures != nil {
		if rerr := s.failures.RecordFailure(ctx, idx.Name(), ledger.OpWrite, failures); rerr != nil {
			logger.FromContext(ctx).Error("Failed to record reindex failures",
				zap.Int("records", len(failures)), zap.Error(rerr))
		}
	}
	return written, err
}

func includable(recs []domrec.Record) []domrec.Record {
	out := make([]domrec.Record, 0, len(recs))
	for _, r := range recs {
		if !r.Excluded() {
			out = append(out, r)
		}
	}
	return out
}

func withDefaults(o Options) Options {
	if o.BatchLength <= 0 {
		o.BatchLength = DefaultBatchLength
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	return o
}
