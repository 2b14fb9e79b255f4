// Package search runs queries against configured indexes.
package search

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	"github.com/kailas-cloud/searchbridge/internal/logger"
	"github.com/kailas-cloud/searchbridge/internal/metrics"
)

// Service handles search requests.
type Service struct {
	repo       Repository
	catalog    Catalog
	spellRetry bool
}

// New creates a search service.
func New(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// WithSpellcheckRetry re-issues queries that matched nothing using the
// engine's spelling corrections.
func (s *Service) WithSpellcheckRetry(on bool) *Service {
	s.spellRetry = on
	return s
}

// Search runs q against the named index.
func (s *Service) Search(ctx context.Context, index string, q *query.Query) (*result.Response, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	idx, err := s.catalog.Get(index)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.repo.Search(ctx, idx, q)
	if err == nil && s.shouldRetry(q, res) {
		res, err = s.retry(ctx, idx, q, res)
	}
	metrics.SearchDuration.WithLabelValues(index).Observe(time.Since(start).Seconds())
	metrics.SearchRequestsTotal.WithLabelValues(index, metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("index", index),
		zap.Int("terms", len(q.Terms())),
		zap.Int("total", res.TotalItems()),
		zap.Int("matches", len(res.Matches())),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (s *Service) shouldRetry(q *query.Query, res *result.Response) bool {
	if !s.spellRetry || len(res.Matches()) > 0 {
		return false
	}
	corrected := res.CorrectedTerms()
	if len(corrected) == 0 {
		return false
	}
	original := make([]string, len(q.Terms()))
	for i, t := range q.Terms() {
		original[i] = t.Text
	}
	return !slices.Equal(original, corrected)
}

// retry runs the corrected query once. The first response is kept when the
// correction matches nothing either.
func (s *Service) retry(
	ctx context.Context, idx *domidx.Descriptor, q *query.Query, first *result.Response,
) (*result.Response, error) {
	index := idx.Name()
	metrics.SpellcheckRetriesTotal.WithLabelValues(index).Inc()
	logger.FromContext(ctx).Debug("Retrying search with spelling corrections",
		zap.String("index", index),
		zap.String("collated", first.CollatedSpellcheck()),
	)
	res, err := s.repo.Search(ctx, idx, q.WithTerms(first.CorrectedTerms()))
	if err != nil {
		return nil, err
	}
	if len(res.Matches()) == 0 {
		return first, nil
	}
	return res, nil
}
