// Package search compiles structured queries, executes them against the
// engine and maps responses back to records.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchbridge/internal/db"
	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store   store
	builder *Builder
	mapper  *Mapper
}

// New creates a search repository.
func New(s store, b *Builder, m *Mapper) *Repo {
	return &Repo{store: s, builder: b, mapper: m}
}

// Search builds q for idx, runs it and maps the response.
func (r *Repo) Search(ctx context.Context, idx *domidx.Descriptor, q *query.Query) (*result.Response, error) {
	req, err := r.builder.Build(q, idx)
	if err != nil {
		return nil, err
	}
	res, err := r.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return r.mapper.Map(ctx, res, q, idx)
}

// Execute runs a compiled request and returns the raw engine response.
func (r *Repo) Execute(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	if req == nil || req.Index == "" {
		return nil, fmt.Errorf("%w: index is required", domain.ErrInvalidQuery)
	}
	res, err := r.store.Search(ctx, req)
	if err != nil {
		return nil, mapError(req.Index, err)
	}
	if res == nil {
		return &db.SearchResponse{}, nil
	}
	return res, nil
}

func mapError(index string, err error) error {
	var resErr *db.ResponseError
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, index)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	case errors.As(err, &resErr) && resErr.Status == 400:
		return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, resErr.Reason)
	default:
		return fmt.Errorf("search %s: %w", index, err)
	}
}
