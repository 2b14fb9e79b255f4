package searchbridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// SearchBuilder assembles one query. The first invalid call is reported by Do
// as an ErrInvalidQuery.
type SearchBuilder struct {
	index string
	svc   searchUseCase
	obs   *observer
	q     *query.Query
	err   error
}

func newSearchBuilder(index string, svc searchUseCase, obs *observer, rows int) *SearchBuilder {
	b := &SearchBuilder{index: index, svc: svc, obs: obs, q: query.New()}
	if rows > 0 {
		b.set(b.q.SetRows(rows))
	}
	return b
}

func (b *SearchBuilder) set(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Query adds one term per whitespace-separated word, over every fulltext field.
func (b *SearchBuilder) Query(text string) *SearchBuilder {
	for _, word := range strings.Fields(text) {
		b.set(b.q.AddTerm(word, nil, 0))
	}
	return b
}

// Term adds text as one term, restricted to fields when any are given.
func (b *SearchBuilder) Term(text string, fields ...string) *SearchBuilder {
	b.set(b.q.AddTerm(text, fields, 0))
	return b
}

// BoostedTerm adds text as one term whose matches score boost times higher.
func (b *SearchBuilder) BoostedTerm(text string, boost float64, fields ...string) *SearchBuilder {
	b.set(b.q.AddTerm(text, fields, boost))
	return b
}

// FuzzyTerm adds text as one term that tolerates misspellings.
func (b *SearchBuilder) FuzzyTerm(text string, fields ...string) *SearchBuilder {
	b.set(b.q.AddFuzzyTerm(text, fields, 0))
	return b
}

// Filter requires field to equal value. A slice value matches any element.
func (b *SearchBuilder) Filter(field string, value any) *SearchBuilder {
	b.set(b.q.AddFilter(field, value))
	return b
}

// OrFilter adds field = value to the disjunctive filter group.
func (b *SearchBuilder) OrFilter(field string, value any) *SearchBuilder {
	b.set(b.q.AddOrFilter(field, value))
	return b
}

// Boost raises the score of matches in field.
func (b *SearchBuilder) Boost(field string, boost float64) *SearchBuilder {
	b.set(b.q.AddBoostedField(field, boost))
	return b
}

// Sort orders results by field. Repeated calls add tie breakers.
func (b *SearchBuilder) Sort(field string, order Order) *SearchBuilder {
	b.set(b.q.AddSort(field, query.Order(order)))
	return b
}

// Page selects rows results starting at offset start.
func (b *SearchBuilder) Page(start, rows int) *SearchBuilder {
	b.set(b.q.SetStart(start))
	b.set(b.q.SetRows(rows))
	return b
}

// Highlight requests per-field highlight fragments.
func (b *SearchBuilder) Highlight() *SearchBuilder {
	b.q.SetHighlight(true)
	return b
}

// Do runs the query.
func (b *SearchBuilder) Do(ctx context.Context) (res SearchResult, err error) {
	start := time.Now()
	defer func() { b.obs.observe("search", b.index, start, err) }()

	if b.err != nil {
		return SearchResult{}, fmt.Errorf("search: %w: %w", ErrInvalidQuery, b.err)
	}
	r, err := b.svc.Search(ctx, b.index, b.q)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return fromResponse(r, b.q.Highlight()), nil
}

func fromResponse(r *result.Response, highlight bool) SearchResult {
	page := r.PaginatedMatches()
	out := SearchResult{
		TotalItems: page.TotalItems,
		Start:      page.Start,
		Rows:       page.Length,
		Matches:    make([]Match, 0, len(page.Items)),
		Collated:   r.CollatedSpellcheck(),
	}
	for _, m := range page.Items {
		rec := m.Record()
		match := Match{
			ID:        rec.Identity(),
			ClassName: rec.ClassName(),
			ObjectID:  rec.ID(),
			Title:     rec.Title(),
			Score:     m.Score(),
			Excerpt:   m.Excerpt(),
		}
		if highlight {
			match.Highlights = r.Highlights(m.Key())
		}
		out.Matches = append(out.Matches, match)
	}
	for _, s := range r.Spellcheck() {
		out.Spellcheck = append(out.Spellcheck, Suggestion(s))
	}
	for _, title := range r.FacetTitles() {
		buckets := r.Facet(title)
		f := Facet{Title: title, Buckets: make([]Bucket, 0, len(buckets))}
		for _, bk := range buckets {
			f.Buckets = append(f.Buckets, Bucket{
				Key:       bk.Key,
				Count:     bk.Count,
				ClassName: bk.Record.ClassName(),
				ObjectID:  bk.Record.ID(),
				Title:     bk.Record.Title(),
			})
		}
		out.Facets = append(out.Facets, f)
	}
	return out
}
