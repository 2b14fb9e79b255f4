// Package mapping derives engine mappings from index definitions and applies them.
package mapping

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
	"github.com/kailas-cloud/searchbridge/internal/logger"
)

// Engine mapping types used for reserved keys.
const (
	typeText    = "text"
	typeKeyword = "keyword"
	typeLong    = "long"
)

var reservedTypes = map[string]string{
	domdoc.FieldID:             typeKeyword,
	domdoc.FieldObjectID:       typeLong,
	domdoc.FieldUniqueKey:      typeKeyword,
	domdoc.FieldClassName:      typeKeyword,
	domdoc.FieldClassHierarchy: typeKeyword,
	domdoc.FieldViewStatus:     typeKeyword,
}

// Service configures engine indexes.
type Service struct {
	resolver FieldResolver
	store    IndexStore
	types    schema.TypeMap
}

// New creates a mapping service. A nil type map uses schema.DefaultTypeMap.
func New(resolver FieldResolver, store IndexStore, types schema.TypeMap) *Service {
	if types == nil {
		types = schema.DefaultTypeMap()
	}
	return &Service{resolver: resolver, store: store, types: types}
}

// Fields returns the engine mapping of idx: document key -> engine type.
func (s *Service) Fields(idx *domidx.Descriptor) (map[string]string, error) {
	out := make(map[string]string, len(reservedTypes))
	for k, t := range reservedTypes {
		out[k] = t
	}

	groups := [][]string{idx.FulltextFields(), idx.FilterFields(), idx.SortFields(), idx.StoredFields()}
	for _, fields := range groups {
		descs, err := s.resolver.ResolveAll(idx.Classes(), fields)
		if err != nil {
			return nil, fmt.Errorf("resolve fields of %s: %w", idx.Name(), err)
		}
		for _, d := range descs {
			out[d.Name] = s.types.Lookup(d.Type)
		}
	}

	// Facets aggregate on exact values.
	for _, f := range idx.Facets() {
		path := schema.ShortName(f.BaseClass) + "." + schema.NormalizePath(f.Field)
		descs, err := s.resolver.ResolveAll(idx.Classes(), []string{path})
		if err != nil {
			return nil, fmt.Errorf("resolve facet %s of %s: %w", f.Title, idx.Name(), err)
		}
		for _, d := range descs {
			t := s.types.Lookup(d.Type)
			if t == typeText {
				t = typeKeyword
			}
			out[d.Name] = t
		}
	}

	out[domdoc.FieldText] = typeText
	for _, dest := range idx.CopyFieldTargets() {
		out[dest] = typeText
	}
	return out, nil
}

// Configure applies the mapping of every index. With drop set, existing
// indexes are dropped first. A failing index does not stop the others.
func (s *Service) Configure(ctx context.Context, indexes []*domidx.Descriptor, drop bool) error {
	log := logger.FromContext(ctx)
	var errs []error
	for _, idx := range indexes {
		fields, err := s.Fields(idx)
		if err != nil {
			log.Error("Index mapping invalid", zap.String("index", idx.Name()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		created, err := s.store.Apply(ctx, idx.Name(), fields, drop)
		if err != nil {
			log.Error("Index configuration failed", zap.String("index", idx.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("configure %s: %w", idx.Name(), err))
			continue
		}
		log.Info("Index configured",
			zap.String("index", idx.Name()),
			zap.Bool("created", created),
			zap.Bool("cleared", drop),
			zap.Int("fields", len(fields)),
		)
	}
	return errors.Join(errs...)
}
