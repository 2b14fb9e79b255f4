package ledger

import (
	"context"
	"sort"
	"strings"
)

// memStore is an in-memory store for tests. errFn, when set, fails the named command.
type memStore struct {
	sets   map[string]map[string]bool
	hashes map[string]map[string]string
	errFn  func(cmd string) error
}

func newMemStore() *memStore {
	return &memStore{sets: map[string]map[string]bool{}, hashes: map[string]map[string]string{}}
}

func (m *memStore) fail(cmd string) error {
	if m.errFn != nil {
		return m.errFn(cmd)
	}
	return nil
}

func (m *memStore) SAdd(_ context.Context, key string, members ...string) error {
	if err := m.fail("SADD"); err != nil {
		return err
	}
	if m.sets[key] == nil {
		m.sets[key] = map[string]bool{}
	}
	for _, v := range members {
		m.sets[key][v] = true
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	if err := m.fail("SMEMBERS"); err != nil {
		return nil, err
	}
	var out []string
	for v := range m.sets[key] {
		out = append(out, v)
	}
	return out, nil
}

func (m *memStore) SRem(_ context.Context, key string, members ...string) error {
	if err := m.fail("SREM"); err != nil {
		return err
	}
	for _, v := range members {
		delete(m.sets[key], v)
	}
	if len(m.sets[key]) == 0 {
		delete(m.sets, key)
	}
	return nil
}

func (m *memStore) SCard(_ context.Context, key string) (int64, error) {
	if err := m.fail("SCARD"); err != nil {
		return 0, err
	}
	return int64(len(m.sets[key])), nil
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if err := m.fail("HSET"); err != nil {
		return err
	}
	if m.hashes[key] == nil {
		m.hashes[key] = map[string]string{}
	}
	for k, v := range fields {
		m.hashes[key][k] = v
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if err := m.fail("HGETALL"); err != nil {
		return nil, err
	}
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HDel(_ context.Context, key string, fields ...string) error {
	if err := m.fail("HDEL"); err != nil {
		return err
	}
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	if len(m.hashes[key]) == 0 {
		delete(m.hashes, key)
	}
	return nil
}

// Scan supports trailing-star patterns only.
func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if err := m.fail("SCAN"); err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range m.sets {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
