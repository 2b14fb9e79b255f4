// Package document writes built documents to the search engine.
package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchbridge/internal/db"
	"github.com/kailas-cloud/searchbridge/internal/domain"
	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
)

// store is the consumer interface for engine writes (ISP).
type store interface {
	Bulk(ctx context.Context, req *db.BulkRequest) (*db.BulkResponse, error)
	DeleteByQuery(ctx context.Context, index string, query db.Clause) (int, error)
}

// Repo implements usecase/indexing.Writer.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Index sends docs in one bulk request, each under its unique key.
// Per-document rejections come back keyed by composite identity; a failed
// request returns an error and no per-document map.
func (r *Repo) Index(ctx context.Context, index, pipeline string, docs []domdoc.Document) (map[string]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	req := &db.BulkRequest{Pipeline: pipeline, Actions: make([]db.BulkAction, 0, len(docs))}
	identities := make(map[string]string, len(docs))
	for _, d := range docs {
		key := d.UniqueKey()
		if key == "" {
			return nil, fmt.Errorf("document %q has no unique key", d.Identity())
		}
		identities[key] = d.Identity()
		req.Actions = append(req.Actions, db.BulkAction{Index: index, ID: key, Document: d})
	}

	res, err := r.store.Bulk(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	failures := res.Failures()
	if len(failures) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(failures))
	for key, cause := range failures {
		id, ok := identities[key]
		if !ok {
			id = key
		}
		out[id] = cause
	}
	return out, nil
}

// Delete removes every document whose composite identity equals identity.
// A term clause keeps the match exact even when id is not mapped as keyword.
func (r *Repo) Delete(ctx context.Context, index, identity string) (int, error) {
	n, err := r.store.DeleteByQuery(ctx, index, db.Term(domdoc.FieldID, identity))
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%w: %w", domain.ErrIndexNotFound, err)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrWriteFailed, err)
	}
}
