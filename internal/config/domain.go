package config

import (
	"fmt"

	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
)

// Registry builds the class registry.
func (c *Config) Registry() (*schema.Registry, error) {
	defs := make([]schema.ClassDef, 0, len(c.Classes))
	for _, cl := range c.Classes {
		defs = append(defs, schema.ClassDef{
			Name:    cl.Name,
			Parent:  cl.Parent,
			Fields:  cl.Fields,
			HasOne:  cl.HasOne,
			HasMany: cl.HasMany,
		})
	}
	reg, err := schema.NewRegistry(defs)
	if err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	return reg, nil
}

// Catalog builds the index catalog. Every index class must be registered.
func (c *Config) Catalog(reg *schema.Registry) (*domidx.Catalog, error) {
	descs := make([]*domidx.Descriptor, 0, len(c.Indexes))
	for _, ic := range c.Indexes {
		for _, class := range ic.Classes {
			if _, err := reg.Class(class); err != nil {
				return nil, fmt.Errorf("index %s: %w", ic.Name, err)
			}
		}
		facets := make([]domidx.Facet, 0, len(ic.Facets))
		for _, f := range ic.Facets {
			facets = append(facets, domidx.Facet{BaseClass: f.BaseClass, Field: f.Field, Title: f.Title})
		}
		d, err := domidx.New(domidx.Definition{
			Name:             ic.Name,
			Classes:          ic.Classes,
			FulltextFields:   ic.FulltextFields,
			FilterFields:     ic.FilterFields,
			SortFields:       ic.SortFields,
			StoredFields:     ic.StoredFields,
			Facets:           facets,
			CopyFields:       ic.CopyFields,
			ViewStatusFilter: ic.ViewStatusFilter,
		})
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return domidx.NewCatalog(descs...)
}

// Types returns the configured type map, or the default one.
func (c *Config) Types() schema.TypeMap {
	if len(c.TypeMap) == 0 {
		return schema.DefaultTypeMap()
	}
	return schema.TypeMap(c.TypeMap)
}
