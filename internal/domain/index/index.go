// Package index describes one logical search index.
package index

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
)

// Facet is a (base class, field, title) triple aggregated into bucket counts.
type Facet struct {
	BaseClass string
	Field     string
	Title     string
}

// DefaultViewStatusFilter is applied when an index declares no visibility rule.
var DefaultViewStatusFilter = []string{"null", "LoggedIn"}

// Definition is the static configuration of an index.
type Definition struct {
	Name             string
	Classes          []string
	FulltextFields   []string
	FilterFields     []string
	SortFields       []string
	StoredFields     []string
	Facets           []Facet
	CopyFields       map[string][]string
	ViewStatusFilter []string
}

// Descriptor is a configured index. Every filter, sort, stored and facet field
// is also a fulltext field.
type Descriptor struct {
	name             string
	classes          []string
	fulltext         []string
	filter           []string
	sort             []string
	stored           []string
	facets           []Facet
	copyFields       map[string][]string
	viewStatusFilter []string
}

// New validates def and builds a Descriptor.
func New(def Definition) (*Descriptor, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidIndex)
	}
	if len(def.Classes) == 0 {
		return nil, fmt.Errorf("%w: index %s has no classes", domain.ErrInvalidIndex, def.Name)
	}
	d := &Descriptor{name: def.Name, copyFields: map[string][]string{}}
	for _, c := range def.Classes {
		d.AddClass(c)
	}
	for _, f := range def.FulltextFields {
		d.AddFulltextField(f)
	}
	for _, f := range def.FilterFields {
		d.AddFilterField(f)
	}
	for _, f := range def.SortFields {
		d.AddSortField(f)
	}
	for _, f := range def.StoredFields {
		d.AddStoredField(f)
	}
	for _, f := range def.Facets {
		if err := d.AddFacet(f); err != nil {
			return nil, err
		}
	}
	for dest, sources := range def.CopyFields {
		if err := d.SetCopyField(dest, sources); err != nil {
			return nil, err
		}
	}
	if len(def.ViewStatusFilter) > 0 {
		d.SetViewStatusFilter(def.ViewStatusFilter)
	}
	return d, nil
}

// Name returns the engine index name.
func (d *Descriptor) Name() string { return d.name }

// Classes returns the indexed domain classes.
func (d *Descriptor) Classes() []string { return d.classes }

// FulltextFields returns every known field of the index.
func (d *Descriptor) FulltextFields() []string { return d.fulltext }

// FilterFields returns the filterable fields.
func (d *Descriptor) FilterFields() []string { return d.filter }

// SortFields returns the sortable fields.
func (d *Descriptor) SortFields() []string { return d.sort }

// StoredFields returns the stored fields.
func (d *Descriptor) StoredFields() []string { return d.stored }

// Facets returns facet definitions in declaration order.
func (d *Descriptor) Facets() []Facet { return d.facets }

// CopyFields returns copy-field targets mapped to their source fields.
func (d *Descriptor) CopyFields() map[string][]string { return d.copyFields }

// CopyFieldTargets returns copy-field target names sorted.
func (d *Descriptor) CopyFieldTargets() []string {
	out := make([]string, 0, len(d.copyFields))
	for k := range d.copyFields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ViewStatusFilter returns the view statuses every query is restricted to.
func (d *Descriptor) ViewStatusFilter() []string {
	if len(d.viewStatusFilter) == 0 {
		return DefaultViewStatusFilter
	}
	return d.viewStatusFilter
}

// HasClass reports whether class is indexed by d.
func (d *Descriptor) HasClass(class string) bool { return slices.Contains(d.classes, class) }

// AddClass registers an indexed class.
func (d *Descriptor) AddClass(class string) {
	d.classes = appendUnique(d.classes, class)
}

// AddFulltextField registers a searchable field.
func (d *Descriptor) AddFulltextField(field string) {
	d.fulltext = appendUnique(d.fulltext, field)
}

// AddFilterField registers a filter field.
func (d *Descriptor) AddFilterField(field string) {
	d.filter = appendUnique(d.filter, field)
	d.AddFulltextField(field)
}

// AddSortField registers a sort field.
func (d *Descriptor) AddSortField(field string) {
	d.sort = appendUnique(d.sort, field)
	d.AddFulltextField(field)
}

// AddStoredField registers a stored field.
func (d *Descriptor) AddStoredField(field string) {
	d.stored = appendUnique(d.stored, field)
	d.AddFulltextField(field)
}

// AddFacet registers a facet. Titles are unique: they key the aggregation.
func (d *Descriptor) AddFacet(f Facet) error {
	if f.BaseClass == "" || f.Field == "" {
		return fmt.Errorf("%w: facet needs base class and field", domain.ErrInvalidIndex)
	}
	if f.Title == "" {
		f.Title = f.Field
	}
	for _, existing := range d.facets {
		if existing.Title == f.Title {
			return fmt.Errorf("%w: duplicate facet title %q", domain.ErrInvalidIndex, f.Title)
		}
	}
	d.facets = append(d.facets, f)
	d.AddFulltextField(f.Field)
	return nil
}

// SetCopyField replaces the sources of a copy-field target. Targets may not
// overwrite the fields every document carries.
func (d *Descriptor) SetCopyField(dest string, sources []string) error {
	if dest == "" || domdoc.IsReserved(dest) {
		return fmt.Errorf("%w: copy field target %q is reserved", domain.ErrInvalidIndex, dest)
	}
	if d.copyFields == nil {
		d.copyFields = map[string][]string{}
	}
	d.copyFields[dest] = slices.Clone(sources)
	return nil
}

// SetViewStatusFilter replaces the view statuses every query is restricted to.
func (d *Descriptor) SetViewStatusFilter(statuses []string) {
	d.viewStatusFilter = slices.Clone(statuses)
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
