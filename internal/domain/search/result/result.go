// Package result holds the application-facing view of one search response.
package result

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain/record"
)

// ExcerptSeparator joins highlight fragments.
const ExcerptSeparator = " (...) "

// replacement artifacts stripped from excerpts
var excerptArtifacts = strings.NewReplacer("&#65533;", "", "\uFFFD", "")

// Match is a search hit resolved back to its domain record.
type Match struct {
	record  record.Record
	key     string
	score   float64
	excerpt string
}

// NewMatch creates a match for rec whose engine document id is key.
func NewMatch(rec record.Record, key string, score float64, excerpt string) Match {
	return Match{record: rec, key: key, score: score, excerpt: excerpt}
}

// Record returns the backing domain record.
func (m Match) Record() record.Record { return m.record }

// Key returns the engine document id.
func (m Match) Key() string { return m.key }

// Score returns the relevance score.
func (m Match) Score() float64 { return m.score }

// Excerpt returns the highlighted excerpt; it is never persisted.
func (m Match) Excerpt() string { return m.excerpt }

// Excerpt joins highlight fragments of a document, fields in name order.
func Excerpt(fragments map[string][]string) string {
	if len(fragments) == 0 {
		return ""
	}
	fields := make([]string, 0, len(fragments))
	for f := range fragments {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var parts []string
	for _, f := range fields {
		for _, frag := range fragments[f] {
			if frag != "" {
				parts = append(parts, frag)
			}
		}
	}
	return excerptArtifacts.Replace(strings.Join(parts, ExcerptSeparator))
}

// Page is one page of matches. TotalItems is the engine total and may exceed len(Items).
type Page struct {
	Items      []Match
	Start      int
	Length     int
	TotalItems int
}

// Bucket is one facet value resolved to a record, with its occurrence count.
type Bucket struct {
	Record record.Record
	Key    string
	Count  int
}

// Label returns the secondary sort key: the record title, else the bucket key.
func (b Bucket) Label() string {
	if t := b.Record.Title(); t != "" {
		return t
	}
	return b.Key
}

// SortBuckets orders buckets by count descending, then label ascending.
func SortBuckets(buckets []Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label() < buckets[j].Label()
	})
}

// Suggestion is an (original term, suggested term) pair.
type Suggestion struct {
	Original  string
	Suggested string
}

// Response is the read-only result of one search call.
type Response struct {
	total      int
	start      int
	rows       int
	matches    []Match
	highlights map[string]map[string][]string
	spellcheck []Suggestion
	collated   string
	corrected  []string
	facets     map[string][]Bucket
	facetOrder []string
}

// Params groups everything a Response is built from.
type Params struct {
	Total      int
	Start      int
	Rows       int
	Matches    []Match
	Highlights map[string]map[string][]string
	Spellcheck []Suggestion
	Collated   string
	// CorrectedTerms holds one corrected text per query term, aligned by position.
	CorrectedTerms []string
	// FacetTitles is the declaration order; titles missing from Facets are skipped.
	FacetTitles []string
	Facets      map[string][]Bucket
}

// New assembles a Response.
func New(p Params) *Response {
	r := &Response{
		total:      p.Total,
		start:      p.Start,
		rows:       p.Rows,
		matches:    p.Matches,
		highlights: p.Highlights,
		spellcheck: p.Spellcheck,
		collated:   p.Collated,
		corrected:  p.CorrectedTerms,
		facets:     map[string][]Bucket{},
	}
	if r.highlights == nil {
		r.highlights = map[string]map[string][]string{}
	}
	for _, title := range p.FacetTitles {
		buckets, ok := p.Facets[title]
		if !ok {
			continue
		}
		r.facets[title] = buckets
		r.facetOrder = append(r.facetOrder, title)
	}
	return r
}

// TotalItems returns the engine's total hit count.
func (r *Response) TotalItems() int { return r.total }

// Matches returns resolved matches; stale hits are already dropped.
func (r *Response) Matches() []Match { return r.matches }

// PaginatedMatches returns the page view with the engine total.
func (r *Response) PaginatedMatches() Page {
	return Page{Items: r.matches, Start: r.start, Length: r.rows, TotalItems: r.total}
}

// ExcerptMatches returns the matches that carry an excerpt.
func (r *Response) ExcerptMatches() []Match {
	var out []Match
	for _, m := range r.matches {
		if m.excerpt != "" {
			out = append(out, m)
		}
	}
	return out
}

// Highlights returns accumulated highlight fragments for engine document id key.
func (r *Response) Highlights(key string) map[string][]string { return r.highlights[key] }

// Spellcheck returns suggestion pairs; nil when the engine suggested nothing.
func (r *Response) Spellcheck() []Suggestion { return r.spellcheck }

// CollatedSpellcheck returns the full corrected query text, or "".
func (r *Response) CollatedSpellcheck() string { return r.collated }

// CorrectedTerms returns the corrected text of each query term, or nil when
// no correction applies.
func (r *Response) CorrectedTerms() []string { return r.corrected }

// FacetTitles returns the titles that have buckets, in declaration order.
func (r *Response) FacetTitles() []string { return r.facetOrder }

// Facet returns the sorted buckets of one facet.
func (r *Response) Facet(title string) []Bucket { return r.facets[title] }

// Facets returns all facets keyed by title.
func (r *Response) Facets() map[string][]Bucket { return r.facets }
