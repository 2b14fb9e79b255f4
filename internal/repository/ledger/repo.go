// Package ledger persists the dirty ledger in Redis.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	domledger "github.com/kailas-cloud/searchbridge/internal/domain/ledger"
)

// store is the consumer interface for the dirty ledger (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
	SCard(ctx context.Context, key string) (int64, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// DefaultPrefix namespaces ledger keys.
const DefaultPrefix = "searchbridge:"

// Repo implements usecase/reconcile.Ledger.
type Repo struct {
	store  store
	prefix string
}

// New creates a ledger repository. An empty prefix means DefaultPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Record marks entries dirty. Re-recording an identity replaces its cause.
func (r *Repo) Record(ctx context.Context, index string, entries []domledger.Entry) error {
	byOp := map[domledger.Op][]domledger.Entry{}
	for _, e := range entries {
		byOp[e.Op] = append(byOp[e.Op], e)
	}
	for _, op := range domledger.Ops() {
		batch := byOp[op]
		if len(batch) == 0 {
			continue
		}
		ids := make([]string, len(batch))
		causes := make(map[string]string, len(batch))
		for i, e := range batch {
			ids[i] = e.Identity
			causes[e.Identity] = e.Cause
		}
		if err := r.store.SAdd(ctx, r.setKey(index, op), ids...); err != nil {
			return fmt.Errorf("ledger record %s/%s: %w", index, op, err)
		}
		if err := r.store.HSet(ctx, r.causeKey(index, op), causes); err != nil {
			return fmt.Errorf("ledger causes %s/%s: %w", index, op, err)
		}
	}
	return nil
}

// List returns the dirty entries of one index and op, sorted by identity.
func (r *Repo) List(ctx context.Context, index string, op domledger.Op) ([]domledger.Entry, error) {
	ids, err := r.store.SMembers(ctx, r.setKey(index, op))
	if err != nil {
		return nil, fmt.Errorf("ledger list %s/%s: %w", index, op, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	causes, err := r.store.HGetAll(ctx, r.causeKey(index, op))
	if err != nil {
		return nil, fmt.Errorf("ledger causes %s/%s: %w", index, op, err)
	}
	sort.Strings(ids)
	out := make([]domledger.Entry, len(ids))
	for i, id := range ids {
		out[i] = domledger.Entry{Identity: id, Op: op, Cause: causes[id]}
	}
	return out, nil
}

// Clear removes identities from the ledger.
func (r *Repo) Clear(ctx context.Context, index string, op domledger.Op, identities ...string) error {
	if len(identities) == 0 {
		return nil
	}
	if err := r.store.SRem(ctx, r.setKey(index, op), identities...); err != nil {
		return fmt.Errorf("ledger clear %s/%s: %w", index, op, err)
	}
	if err := r.store.HDel(ctx, r.causeKey(index, op), identities...); err != nil {
		return fmt.Errorf("ledger clear causes %s/%s: %w", index, op, err)
	}
	return nil
}

// Count returns the number of dirty identities of one index and op.
func (r *Repo) Count(ctx context.Context, index string, op domledger.Op) (int64, error) {
	n, err := r.store.SCard(ctx, r.setKey(index, op))
	if err != nil {
		return 0, fmt.Errorf("ledger count %s/%s: %w", index, op, err)
	}
	return n, nil
}

// Indexes returns every index with at least one dirty entry, sorted.
func (r *Repo) Indexes(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"dirty:*")
	if err != nil {
		return nil, fmt.Errorf("ledger scan: %w", err)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		index, op, ok := r.parseSetKey(k)
		if ok && op.IsValid() {
			seen[index] = true
		}
	}
	out := make([]string, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repo) setKey(index string, op domledger.Op) string {
	return r.prefix + "dirty:" + index + ":" + string(op)
}

func (r *Repo) causeKey(index string, op domledger.Op) string {
	return r.setKey(index, op) + ":causes"
}

// parseSetKey extracts index and op from "<prefix>dirty:<index>:<op>". Cause keys do not parse.
func (r *Repo) parseSetKey(key string) (string, domledger.Op, bool) {
	rest, ok := strings.CutPrefix(key, r.prefix+"dirty:")
	if !ok {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], domledger.Op(rest[i+1:]), true
}
