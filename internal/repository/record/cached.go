package record

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// Cache defaults.
const (
	DefaultCacheSize = 4096
	DefaultCacheTTL  = 5 * time.Minute
)

// Cached is a read-through LRU in front of a Source for point lookups.
// Entries expire after the TTL, since the source is written by the owning
// application without notice. Misses (not found) are not cached: a record
// created after indexing must become visible.
type Cached struct {
	Source
	byID *expirable.LRU[string, domrec.Record]
}

// NewCached wraps src with an LRU of size entries that live at most ttl.
func NewCached(src Source, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{Source: src, byID: expirable.NewLRU[string, domrec.Record](size, nil, ttl)}
}

// Find serves point lookups from the cache.
func (c *Cached) Find(ctx context.Context, class string, id int64) (domrec.Record, error) {
	key := domrec.Identity(class, id)
	if r, ok := c.byID.Get(key); ok {
		return r, nil
	}
	r, err := c.Source.Find(ctx, class, id)
	if err != nil {
		return domrec.Record{}, err
	}
	c.byID.Add(key, r)
	return r, nil
}

// FindFirstBy caches the resolved record under its identity.
func (c *Cached) FindFirstBy(ctx context.Context, classes []string, path string, value any) (domrec.Record, error) {
	if path == "ID" {
		for _, class := range classes {
			if r, ok := c.byID.Get(domrec.Identity(class, idOf(value))); ok {
				return r, nil
			}
		}
	}
	r, err := c.Source.FindFirstBy(ctx, classes, path, value)
	if err != nil {
		return domrec.Record{}, err
	}
	c.byID.Add(r.Identity(), r)
	return r, nil
}

// Invalidate drops a record, typically after it was re-synchronized or deleted.
func (c *Cached) Invalidate(class string, id int64) {
	c.byID.Remove(domrec.Identity(class, id))
}

// Len returns the number of cached records.
func (c *Cached) Len() int { return c.byID.Len() }

func idOf(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	var id int64
	_, _ = fmt.Sscan(fmt.Sprint(value), &id)
	return id
}
