package db

import (
	"context"
	"time"
)

// Engine is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers take narrow sub-interfaces
type Engine interface {
	Pinger
	Searcher
	Writer
	IndexManager
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher executes search requests.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

// Writer sends document writes.
type Writer interface {
	Bulk(ctx context.Context, req *BulkRequest) (*BulkResponse, error)
	DeleteByQuery(ctx context.Context, index string, query Clause) (int, error)
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, mapping *Mapping) error
	PutMapping(ctx context.Context, name string, mapping *Mapping) error
	DeleteIndex(ctx context.Context, name string) error
}

// LedgerStore is the key-value facade backing the dirty ledger.
type LedgerStore interface {
	Pinger
	HashStore
	SetStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// SetStore provides set operations.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
	SCard(ctx context.Context, key string) (int64, error)
}
