package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/db"
	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// finder resolves hits and facet buckets back to records (ISP).
type finder interface {
	Find(ctx context.Context, class string, id int64) (domrec.Record, error)
	FindFirstBy(ctx context.Context, classes []string, path string, value any) (domrec.Record, error)
}

// Mapper turns a raw engine response into a result.Response.
type Mapper struct {
	records  finder
	registry *schema.Registry
}

// NewMapper creates a Mapper.
func NewMapper(records finder, registry *schema.Registry) *Mapper {
	return &Mapper{records: records, registry: registry}
}

// Map builds the application result for one response. Hits and buckets whose
// record no longer exists are dropped; record lookup failures other than
// not-found abort the mapping.
func (m *Mapper) Map(ctx context.Context, res *db.SearchResponse, q *query.Query, idx *domidx.Descriptor) (*result.Response, error) {
	highlights := collectHighlights(res.Hits.Hits)

	matches, err := m.matches(ctx, res.Hits.Hits, highlights, q.Rows())
	if err != nil {
		return nil, err
	}
	facets, err := m.facets(ctx, res.Aggregations, idx.Facets())
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(idx.Facets()))
	for _, f := range idx.Facets() {
		titles = append(titles, f.Title)
	}
	suggestions, corrections := spellcheck(res.Suggest)
	corrected := correct(q.Terms(), corrections)
	collated := ""
	if corrected != nil {
		collated = strings.Join(corrected, " ")
	}

	return result.New(result.Params{
		Total:          res.Hits.Total.Value,
		Start:          q.Start(),
		Rows:           q.Rows(),
		Matches:        matches,
		Highlights:     highlights,
		Spellcheck:     suggestions,
		Collated:       collated,
		CorrectedTerms: corrected,
		FacetTitles:    titles,
		Facets:         facets,
	}), nil
}

// collectHighlights accumulates fragments per engine document id and field.
func collectHighlights(hits []db.Hit) map[string]map[string][]string {
	out := map[string]map[string][]string{}
	for _, h := range hits {
		if len(h.Highlight) == 0 {
			continue
		}
		byField := out[h.ID]
		if byField == nil {
			byField = map[string][]string{}
			out[h.ID] = byField
		}
		for field, frags := range h.Highlight {
			byField[field] = append(byField[field], frags...)
		}
	}
	return out
}

func (m *Mapper) matches(
	ctx context.Context, hits []db.Hit, highlights map[string]map[string][]string, rows int,
) ([]result.Match, error) {
	out := make([]result.Match, 0, min(len(hits), rows))
	for _, h := range hits {
		if len(out) == rows {
			break
		}
		class, id, ok := hitRecord(h)
		if !ok {
			continue
		}
		rec, err := m.records.Find(ctx, class, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve hit %s: %w", h.ID, err)
		}
		out = append(out, result.NewMatch(rec, h.ID, h.Score, result.Excerpt(highlights[h.ID])))
	}
	return out, nil
}

// hitRecord extracts class and id from a hit source, falling back to the composite id.
func hitRecord(h db.Hit) (string, int64, bool) {
	src, err := h.DecodeSource()
	if err != nil {
		return "", 0, false
	}
	if src.ClassName != "" && src.ObjectID > 0 {
		return src.ClassName, src.ObjectID, true
	}
	class, id, err := domrec.ParseIdentity(src.ID)
	if err != nil {
		return "", 0, false
	}
	return class, id, true
}

func (m *Mapper) facets(
	ctx context.Context, aggs map[string]db.AggregationResult, defs []domidx.Facet,
) (map[string][]result.Bucket, error) {
	out := map[string][]result.Bucket{}
	for _, f := range defs {
		agg, ok := aggs[f.Title]
		if !ok {
			continue
		}
		classes := m.registry.Descendants(f.BaseClass)
		path := schema.NormalizePath(f.Field)
		buckets := make([]result.Bucket, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			key := bucketKey(b.Key)
			rec, err := m.records.FindFirstBy(ctx, classes, path, key)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("resolve facet %s bucket %s: %w", f.Title, key, err)
			}
			buckets = append(buckets, result.Bucket{Record: rec, Key: key, Count: b.DocCount})
		}
		result.SortBuckets(buckets)
		out[f.Title] = buckets
	}
	return out, nil
}

// bucketKey renders an aggregation key. JSON numbers decode as float64 and
// integral ones print without an exponent.
func bucketKey(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case float64:
		if k == math.Trunc(k) && math.Abs(k) < 1e15 {
			return strconv.FormatInt(int64(k), 10)
		}
		return strconv.FormatFloat(k, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	default:
		return fmt.Sprint(k)
	}
}

// spellcheck flattens suggester output into unique (original, suggested) pairs,
// visiting suggester keys in sorted order. corrections maps each original token
// to its first suggestion.
func spellcheck(suggest map[string][]db.SuggestEntry) ([]result.Suggestion, map[string]string) {
	if len(suggest) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(suggest))
	for k := range suggest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		out         []result.Suggestion
		seen        = map[result.Suggestion]bool{}
		corrections = map[string]string{}
	)
	for _, k := range keys {
		for _, entry := range suggest[k] {
			for i, opt := range entry.Options {
				s := result.Suggestion{Original: entry.Text, Suggested: opt.Text}
				if i == 0 {
					if _, ok := corrections[entry.Text]; !ok {
						corrections[entry.Text] = opt.Text
					}
				}
				if seen[s] {
					continue
				}
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out, corrections
}

// correct rewrites each term word by word with its first suggestion.
// Returns nil when nothing would change.
func correct(terms []query.Term, corrections map[string]string) []string {
	if len(corrections) == 0 || len(terms) == 0 {
		return nil
	}
	changed := false
	texts := make([]string, 0, len(terms))
	for _, t := range terms {
		words := strings.Fields(t.Text)
		for i, w := range words {
			if c, ok := corrections[w]; ok && c != w {
				words[i] = c
				changed = true
			}
		}
		texts = append(texts, strings.Join(words, " "))
	}
	if !changed {
		return nil
	}
	return texts
}
