// Package record loads domain records from their source of truth.
package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// Source is a read-only record store.
type Source interface {
	// Find returns one record, or domain.ErrNotFound.
	Find(ctx context.Context, class string, id int64) (domrec.Record, error)
	// FindMany returns the records of class with the given ids; missing ids are skipped.
	FindMany(ctx context.Context, class string, ids []int64) ([]domrec.Record, error)
	// FindFirstBy returns the lowest-id record of classes whose path equals value, or domain.ErrNotFound.
	FindFirstBy(ctx context.Context, classes []string, path string, value any) (domrec.Record, error)
	// IDRange returns the smallest and largest id across classes; ok is false when there are none.
	IDRange(ctx context.Context, classes []string) (lo, hi int64, ok bool, err error)
	// ListByIDRange returns records of classes with lo <= id <= hi, ordered by id.
	ListByIDRange(ctx context.Context, classes []string, lo, hi int64) ([]domrec.Record, error)
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func notFound(class string, id int64) error {
	return fmt.Errorf("record %s: %w", domrec.Identity(class, id), domain.ErrNotFound)
}

func notFoundBy(path string, value any) error {
	return fmt.Errorf("record with %s=%v: %w", path, value, domain.ErrNotFound)
}

// sameValue compares a resolved attribute with a lookup value by their text forms,
// so an engine bucket key 7 matches an attribute stored as "7" or 7.0.
func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
