package record

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// Memory is an in-process Source, loaded from a fixture file or built in tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]domrec.Record
}

// NewMemory creates a Memory source holding recs.
func NewMemory(recs ...domrec.Record) *Memory {
	m := &Memory{records: make(map[string]domrec.Record, len(recs))}
	for _, r := range recs {
		m.records[r.Identity()] = r
	}
	return m
}

// fixtureRecord is one record in a YAML fixture file.
type fixtureRecord struct {
	Class        string         `yaml:"class"`
	ID           int64          `yaml:"id"`
	ShowInSearch *bool          `yaml:"show_in_search"`
	ViewStatus   string         `yaml:"view_status"`
	Attributes   map[string]any `yaml:"attributes"`
}

// LoadFixture reads a YAML list of records.
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var raw []fixtureRecord
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	recs := make([]domrec.Record, 0, len(raw))
	for i, fr := range raw {
		r, err := domrec.New(fr.Class, fr.ID, domrec.VisibilityFromBool(fr.ShowInSearch), fr.ViewStatus, fr.Attributes)
		if err != nil {
			return nil, fmt.Errorf("fixture record %d: %w", i, err)
		}
		recs = append(recs, r)
	}
	return NewMemory(recs...), nil
}

// Put adds or replaces a record.
func (m *Memory) Put(r domrec.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Identity()] = r
}

// Remove deletes a record.
func (m *Memory) Remove(class string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, domrec.Identity(class, id))
}

// Find implements Source.
func (m *Memory) Find(_ context.Context, class string, id int64) (domrec.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[domrec.Identity(class, id)]
	if !ok {
		return domrec.Record{}, notFound(class, id)
	}
	return r, nil
}

// FindMany implements Source.
func (m *Memory) FindMany(_ context.Context, class string, ids []int64) ([]domrec.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domrec.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := m.records[domrec.Identity(class, id)]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindFirstBy implements Source.
func (m *Memory) FindFirstBy(_ context.Context, classes []string, path string, value any) (domrec.Record, error) {
	for _, r := range m.ofClasses(classes) {
		values, ok := r.Resolve(path)
		if !ok {
			continue
		}
		for _, v := range values {
			if sameValue(v, value) {
				return r, nil
			}
		}
	}
	return domrec.Record{}, notFoundBy(path, value)
}

// IDRange implements Source.
func (m *Memory) IDRange(_ context.Context, classes []string) (lo, hi int64, ok bool, err error) {
	recs := m.ofClasses(classes)
	if len(recs) == 0 {
		return 0, 0, false, nil
	}
	return recs[0].ID(), recs[len(recs)-1].ID(), true, nil
}

// ListByIDRange implements Source.
func (m *Memory) ListByIDRange(_ context.Context, classes []string, lo, hi int64) ([]domrec.Record, error) {
	var out []domrec.Record
	for _, r := range m.ofClasses(classes) {
		if r.ID() >= lo && r.ID() <= hi {
			out = append(out, r)
		}
	}
	return out, nil
}

// ofClasses returns records of classes ordered by id, then class.
func (m *Memory) ofClasses(classes []string) []domrec.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domrec.Record
	for _, r := range m.records {
		if slices.Contains(classes, r.ClassName()) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID() != out[j].ID() {
			return out[i].ID() < out[j].ID()
		}
		return out[i].ClassName() < out[j].ClassName()
	})
	return out
}
