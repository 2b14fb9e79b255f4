// Package index manages engine indexes and their mappings.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/searchbridge/internal/db"
	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// store is the consumer interface for index management (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, mapping *db.Mapping) error
	PutMapping(ctx context.Context, name string, mapping *db.Mapping) error
	DeleteIndex(ctx context.Context, name string) error
}

// Repo implements usecase/mapping.Repository.
type Repo struct {
	store store
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Apply writes the field mapping (name -> engine type) to the index. A missing
// index is created; an existing one gets its mapping updated. With drop, the
// index is dropped first. Returns true if the index was created.
func (r *Repo) Apply(ctx context.Context, name string, fields map[string]string, drop bool) (bool, error) {
	mapping, err := buildMapping(fields)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", domain.ErrInvalidIndex, name, err)
	}

	if drop {
		if err := r.store.DeleteIndex(ctx, name); err != nil {
			return false, fmt.Errorf("delete index %s: %w", name, mapError(err))
		}
	}

	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, mapError(err))
	}
	if exists {
		if err := r.store.PutMapping(ctx, name, mapping); err != nil {
			return false, fmt.Errorf("put mapping %s: %w", name, mapError(err))
		}
		return false, nil
	}

	err = r.store.CreateIndex(ctx, name, mapping)
	if errors.Is(err, db.ErrIndexExists) {
		// Created concurrently: fall back to updating the mapping.
		if err := r.store.PutMapping(ctx, name, mapping); err != nil {
			return false, fmt.Errorf("put mapping %s: %w", name, mapError(err))
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", name, mapError(err))
	}
	return true, nil
}

// Exists reports whether the index exists.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", name, mapError(err))
	}
	return ok, nil
}

// Drop deletes the index. A missing index is not an error.
func (r *Repo) Drop(ctx context.Context, name string) error {
	if err := r.store.DeleteIndex(ctx, name); err != nil {
		return fmt.Errorf("delete index %s: %w", name, mapError(err))
	}
	return nil
}

func buildMapping(fields map[string]string) (*db.Mapping, error) {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)

	b := db.NewMapping()
	for _, n := range names {
		b.Field(n, fields[n])
	}
	return b.Build()
}

func mapError(err error) error {
	if errors.Is(err, db.ErrUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	}
	return err
}
