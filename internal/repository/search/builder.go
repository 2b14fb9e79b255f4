package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/db"
	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
)

// DefaultRowMultiplier inflates the requested rows to absorb stale hits dropped during mapping.
const DefaultRowMultiplier = 2

// Highlighter is the fixed highlight strategy.
const Highlighter = "unified"

// Suggester key suffixes.
const (
	suggestFullTerm = "fullterm"
	suggestPartTerm = "partterm"
)

// Builder compiles a structured query into one engine search request.
type Builder struct {
	resolver      *schema.Resolver
	rowMultiplier int
}

// NewBuilder creates a Builder. A multiplier below 1 means DefaultRowMultiplier.
func NewBuilder(resolver *schema.Resolver, rowMultiplier int) *Builder {
	if rowMultiplier < 1 {
		rowMultiplier = DefaultRowMultiplier
	}
	return &Builder{resolver: resolver, rowMultiplier: rowMultiplier}
}

// Build compiles q against idx. Only field metadata errors fail a build.
func (b *Builder) Build(q *query.Query, idx *domidx.Descriptor) (*db.SearchRequest, error) {
	must, should := userQuery(q)

	boolQuery := db.BoolQuery{
		Must: must,
		Filter: &db.FilterQuery{Bool: db.FilterBool{
			Must:   requiredFilters(q, idx),
			Should: clauses(q.OrFilters()),
		}},
		Should: should,
	}

	body := db.SearchBody{
		Query:   &db.Query{Bool: boolQuery},
		Suggest: suggesters(q.Terms()),
		Aggs:    b.aggregations(idx),
		Sort:    sortSpec(q.Sort()),
	}
	if q.Highlight() {
		h, err := b.highlight(idx)
		if err != nil {
			return nil, err
		}
		body.Highlight = h
	}

	return &db.SearchRequest{
		Index: idx.Name(),
		From:  q.Start(),
		Size:  q.Rows() * b.rowMultiplier,
		Body:  body,
	}, nil
}

// userQuery emits one must clause per term against the full-text field. Should
// clauses accumulate across terms: per-term field boosts (boost > 1 only) and
// every query-level boosted field for each term.
func userQuery(q *query.Query) (must, should []db.Clause) {
	terms := q.Terms()
	if len(terms) == 0 {
		return []db.Clause{db.MatchAll()}, nil
	}
	for _, t := range terms {
		if t.Fuzzy != nil && *t.Fuzzy {
			must = append(must, db.FuzzyMatch(domdoc.FieldText, t.Text))
		} else {
			must = append(must, db.Match(domdoc.FieldText, t.Text))
		}
		if t.Boost > 1 {
			for _, f := range t.Fields {
				should = append(should, db.BoostedMatch(f, t.Text, t.Boost))
			}
		}
		for _, bf := range q.BoostedFields() {
			should = append(should, db.BoostedMatch(bf.Field, t.Text, bf.Boost))
		}
	}
	return must, should
}

// requiredFilters always starts with the view status rule of the index.
func requiredFilters(q *query.Query, idx *domidx.Descriptor) []db.Clause {
	statuses := idx.ViewStatusFilter()
	values := make([]any, len(statuses))
	for i, s := range statuses {
		values[i] = s
	}
	out := []db.Clause{db.Terms(domdoc.FieldViewStatus, values)}
	return append(out, clauses(q.Filters())...)
}

func clauses(s filter.Set) []db.Clause {
	if s.IsEmpty() {
		return nil
	}
	out := make([]db.Clause, 0, s.Len())
	for _, c := range s.Conditions() {
		out = append(out, db.Terms(c.Field(), c.Values()))
	}
	return out
}

func (b *Builder) highlight(idx *domidx.Descriptor) (*db.Highlight, error) {
	if len(idx.FulltextFields()) == 0 {
		return nil, nil
	}
	descs, err := b.resolver.ResolveAll(idx.Classes(), idx.FulltextFields())
	if err != nil {
		return nil, fmt.Errorf("resolve highlight fields of %s: %w", idx.Name(), err)
	}
	h := &db.Highlight{Fields: make(map[string]db.HighlightField, len(descs))}
	for _, d := range descs {
		h.Fields[d.Name] = db.HighlightField{Type: Highlighter}
	}
	return h, nil
}

// suggesters keys part-term suggesters by word position within their term, so
// a later multi-word term replaces an earlier one's suggesters at equal positions.
func suggesters(terms []query.Term) map[string]db.Suggester {
	if len(terms) == 0 {
		return nil
	}
	out := make(map[string]db.Suggester, len(terms))
	for i, t := range terms {
		out[fmt.Sprintf("%d-%s", i, suggestFullTerm)] = suggester(t.Text)
		if !strings.Contains(t.Text, " ") {
			continue
		}
		for j, word := range strings.Split(t.Text, " ") {
			if word == "" {
				continue
			}
			out[fmt.Sprintf("%d-%s", j, suggestPartTerm)] = suggester(word)
		}
	}
	return out
}

func suggester(text string) db.Suggester {
	return db.Suggester{Text: text, Term: db.SuggesterTerm{Field: domdoc.FieldText}}
}

func (b *Builder) aggregations(idx *domidx.Descriptor) map[string]db.Aggregation {
	facets := idx.Facets()
	if len(facets) == 0 {
		return nil
	}
	out := make(map[string]db.Aggregation, len(facets))
	for _, f := range facets {
		out[f.Title] = db.Aggregation{Terms: db.AggregationTerms{Field: b.facetField(idx, f)}}
	}
	return out
}

// facetField is the document key a facet aggregates over: the field as named
// by its declaring class, or the raw base class path when it does not resolve.
func (b *Builder) facetField(idx *domidx.Descriptor, f domidx.Facet) string {
	path := schema.ShortName(f.BaseClass) + "." + schema.NormalizePath(f.Field)
	if ds, err := b.resolver.Resolve(idx.Classes(), path); err == nil && len(ds) > 0 {
		return ds[0].Name
	}
	return path
}

func sortSpec(fields []query.SortField) []map[string]db.SortOrder {
	if len(fields) == 0 {
		return nil
	}
	out := make([]map[string]db.SortOrder, 0, len(fields))
	for _, s := range fields {
		out = append(out, map[string]db.SortOrder{s.Field: {Order: string(s.Order)}})
	}
	return out
}
