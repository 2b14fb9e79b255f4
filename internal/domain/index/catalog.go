package index

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// Catalog holds every configured index by name.
type Catalog struct {
	byName map[string]*Descriptor
	order  []string
}

// NewCatalog builds a catalog. Index names must be unique.
func NewCatalog(descs ...*Descriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if _, dup := c.byName[d.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate index %q", domain.ErrInvalidIndex, d.Name())
		}
		c.byName[d.Name()] = d
		c.order = append(c.order, d.Name())
	}
	sort.Strings(c.order)
	return c, nil
}

// Get returns the named index.
func (c *Catalog) Get(name string) (*Descriptor, error) {
	d, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
	}
	return d, nil
}

// Names returns index names, sorted.
func (c *Catalog) Names() []string { return c.order }

// All returns every index, sorted by name.
func (c *Catalog) All() []*Descriptor {
	out := make([]*Descriptor, len(c.order))
	for i, n := range c.order {
		out[i] = c.byName[n]
	}
	return out
}
