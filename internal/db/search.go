package db

import "encoding/json"

// Clause is one query DSL node, e.g. {"match": {...}}.
type Clause map[string]any

// MatchAll matches every document.
func MatchAll() Clause { return Clause{"match_all": map[string]any{}} }

// Match matches text against field.
func Match(field, text string) Clause {
	return Clause{"match": map[string]any{field: text}}
}

// BoostedMatch matches text against field with a boost weight.
func BoostedMatch(field, text string, boost float64) Clause {
	return Clause{"match": map[string]any{field: map[string]any{"query": text, "boost": boost}}}
}

// FuzzyMatch matches text against field with automatic fuzziness.
func FuzzyMatch(field, text string) Clause {
	return Clause{"match": map[string]any{field: map[string]any{"query": text, "fuzziness": "AUTO"}}}
}

// Term matches the exact, unanalyzed value of field.
func Term(field string, value any) Clause {
	return Clause{"term": map[string]any{field: value}}
}

// Terms matches field against any of values.
func Terms(field string, values []any) Clause {
	return Clause{"terms": map[string]any{field: values}}
}

// SearchRequest is a compiled search: target, pagination and body.
type SearchRequest struct {
	Index string     `json:"index"`
	From  int        `json:"from"`
	Size  int        `json:"size"`
	Body  SearchBody `json:"body"`
}

// SearchBody is the DSL body. Sections are omitted when empty and encode in this order.
type SearchBody struct {
	Query     *Query                 `json:"query,omitempty"`
	Highlight *Highlight             `json:"highlight,omitempty"`
	Suggest   map[string]Suggester   `json:"suggest,omitempty"`
	Aggs      map[string]Aggregation `json:"aggs,omitempty"`
	Sort      []map[string]SortOrder `json:"sort,omitempty"`
}

// Query wraps the top-level boolean query.
type Query struct {
	Bool BoolQuery `json:"bool"`
}

// BoolQuery is a boolean query: scored must, non-scoring filter, optional should.
type BoolQuery struct {
	Must   []Clause     `json:"must,omitempty"`
	Filter *FilterQuery `json:"filter,omitempty"`
	Should []Clause     `json:"should,omitempty"`
}

// FilterQuery is the non-scoring {"bool":{must,should}} filter context.
type FilterQuery struct {
	Bool FilterBool `json:"bool"`
}

// FilterBool holds required and optional filter clauses.
type FilterBool struct {
	Must   []Clause `json:"must,omitempty"`
	Should []Clause `json:"should,omitempty"`
}

// Highlight configures per-field highlighting.
type Highlight struct {
	Fields map[string]HighlightField `json:"fields"`
}

// HighlightField is the highlighter of one field.
type HighlightField struct {
	Type string `json:"type"`
}

// Suggester is a term suggester over some text.
type Suggester struct {
	Text string        `json:"text"`
	Term SuggesterTerm `json:"term"`
}

// SuggesterTerm names the field suggestions are drawn from.
type SuggesterTerm struct {
	Field string `json:"field"`
}

// Aggregation is a terms aggregation.
type Aggregation struct {
	Terms AggregationTerms `json:"terms"`
}

// AggregationTerms names the aggregated field.
type AggregationTerms struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
}

// SortOrder is the direction of one sort key.
type SortOrder struct {
	Order string `json:"order"`
}

// SearchResponse is the decoded engine reply.
type SearchResponse struct {
	Took         int                          `json:"took"`
	Hits         Hits                         `json:"hits"`
	Suggest      map[string][]SuggestEntry    `json:"suggest,omitempty"`
	Aggregations map[string]AggregationResult `json:"aggregations,omitempty"`
}

// Hits is the hit envelope.
type Hits struct {
	Total    HitsTotal `json:"total"`
	MaxScore *float64  `json:"max_score"`
	Hits     []Hit     `json:"hits"`
}

// HitsTotal is the total hit count.
type HitsTotal struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Hit is one returned document.
type Hit struct {
	Index     string              `json:"_index"`
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    json.RawMessage     `json:"_source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// HitSource is the subset of a document source needed to resolve a hit.
type HitSource struct {
	ID        string `json:"id"`
	ObjectID  int64  `json:"ObjectID"`
	ClassName string `json:"ClassName"`
}

// DecodeSource decodes the identifying fields of a hit source.
func (h Hit) DecodeSource() (HitSource, error) {
	var s HitSource
	if len(h.Source) == 0 {
		return s, nil
	}
	err := json.Unmarshal(h.Source, &s)
	return s, err
}

// SuggestEntry is the suggester reply for one token.
type SuggestEntry struct {
	Text    string          `json:"text"`
	Offset  int             `json:"offset"`
	Length  int             `json:"length"`
	Options []SuggestOption `json:"options"`
}

// SuggestOption is one suggested replacement.
type SuggestOption struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Freq  int     `json:"freq"`
}

// AggregationResult is a terms aggregation reply.
type AggregationResult struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is one aggregation value with its document count.
type Bucket struct {
	Key      any `json:"key"`
	DocCount int `json:"doc_count"`
}
