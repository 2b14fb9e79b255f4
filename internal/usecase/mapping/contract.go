package mapping

import (
	"context"

	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
)

// FieldResolver resolves logical field names against index classes.
type FieldResolver interface {
	ResolveAll(indexClasses, fields []string) ([]schema.FieldDescriptor, error)
}

// IndexStore creates indexes and updates their mappings.
type IndexStore interface {
	Apply(ctx context.Context, name string, fields map[string]string, drop bool) (created bool, err error)
}
