package chi

import (
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
)

// ErrorCode is a machine-readable error classification.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeIndexNotFound     ErrorCode = "index_not_found"
	CodeNotFound          ErrorCode = "not_found"
	CodeInvalidQuery      ErrorCode = "invalid_query"
	CodeUnknownField      ErrorCode = "unknown_field"
	CodeUnknownClass      ErrorCode = "unknown_class"
	CodeWriteFailed       ErrorCode = "write_failed"
	CodeEngineUnavailable ErrorCode = "engine_unavailable"
	CodeReconcileDisabled ErrorCode = "reconcile_disabled"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TermRequest is one search term.
type TermRequest struct {
	Text   string   `json:"text"`
	Fields []string `json:"fields,omitempty"`
	Boost  float64  `json:"boost,omitempty"`
	Fuzzy  bool     `json:"fuzzy,omitempty"`
}

// FilterRequest restricts Field to Value, a scalar or a list.
type FilterRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// BoostRequest boosts Field for every term.
type BoostRequest struct {
	Field string  `json:"field"`
	Boost float64 `json:"boost"`
}

// SortRequest is one sort key.
type SortRequest struct {
	Field string `json:"field"`
	Order string `json:"order,omitempty"`
}

// SearchRequest is the body of POST /indexes/{index}/search.
type SearchRequest struct {
	Terms         []TermRequest   `json:"terms"`
	Filters       []FilterRequest `json:"filters,omitempty"`
	OrFilters     []FilterRequest `json:"or_filters,omitempty"`
	BoostedFields []BoostRequest  `json:"boosted_fields,omitempty"`
	Sort          []SortRequest   `json:"sort,omitempty"`
	Start         int             `json:"start,omitempty"`
	Rows          int             `json:"rows,omitempty"`
	Highlight     bool            `json:"highlight,omitempty"`
}

// SearchParams are the query parameters of GET /indexes/{index}/search.
type SearchParams struct {
	Q         *string
	Start     *int
	Rows      *int
	Highlight *bool
	Fuzzy     *bool
}

// MatchResponse is one resolved hit.
type MatchResponse struct {
	ID         string              `json:"id"`
	ClassName  string              `json:"class_name"`
	ObjectID   int64               `json:"object_id"`
	Title      string              `json:"title,omitempty"`
	Key        string              `json:"key"`
	Score      float64             `json:"score"`
	Excerpt    string              `json:"excerpt,omitempty"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SuggestionResponse is one spelling suggestion.
type SuggestionResponse struct {
	Original  string `json:"original"`
	Suggested string `json:"suggested"`
}

// BucketResponse is one facet value with its count.
type BucketResponse struct {
	Key       string `json:"key"`
	Count     int    `json:"count"`
	ClassName string `json:"class_name,omitempty"`
	ObjectID  int64  `json:"object_id,omitempty"`
	Title     string `json:"title,omitempty"`
}

// FacetResponse holds the sorted buckets of one facet.
type FacetResponse struct {
	Title   string           `json:"title"`
	Buckets []BucketResponse `json:"buckets"`
}

// SearchResponse is the reply of both search routes.
type SearchResponse struct {
	TotalItems int                  `json:"total_items"`
	Start      int                  `json:"start"`
	Rows       int                  `json:"rows"`
	Matches    []MatchResponse      `json:"matches"`
	Spellcheck []SuggestionResponse `json:"spellcheck,omitempty"`
	Collated   string               `json:"collated,omitempty"`
	Facets     []FacetResponse      `json:"facets,omitempty"`
}

// SyncRequest is the body of POST /indexes/{index}/sync.
type SyncRequest struct {
	Class string  `json:"class"`
	IDs   []int64 `json:"ids"`
}

// SyncResponse reports what a sync did per identity.
type SyncResponse struct {
	Indexed []string          `json:"indexed"`
	Removed []string          `json:"removed"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// ReconcileResponse reports one ledger replay.
type ReconcileResponse struct {
	Index   string `json:"index"`
	Retried int    `json:"retried"`
	Cleared int    `json:"cleared"`
	Failed  int    `json:"failed"`
}

// LedgerResponse counts pending ledger entries per operation.
type LedgerResponse struct {
	Index   string           `json:"index"`
	Pending map[string]int64 `json:"pending"`
}

// HealthResponse is the reply of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResponseFrom(res *result.Response, highlight bool) SearchResponse {
	page := res.PaginatedMatches()
	out := SearchResponse{
		TotalItems: page.TotalItems,
		Start:      page.Start,
		Rows:       page.Length,
		Matches:    make([]MatchResponse, 0, len(page.Items)),
		Collated:   res.CollatedSpellcheck(),
	}
	for _, m := range page.Items {
		rec := m.Record()
		item := MatchResponse{
			ID:        rec.Identity(),
			ClassName: rec.ClassName(),
			ObjectID:  rec.ID(),
			Title:     rec.Title(),
			Key:       m.Key(),
			Score:     m.Score(),
			Excerpt:   m.Excerpt(),
		}
		if highlight {
			item.Highlights = res.Highlights(m.Key())
		}
		out.Matches = append(out.Matches, item)
	}
	for _, s := range res.Spellcheck() {
		out.Spellcheck = append(out.Spellcheck, SuggestionResponse{Original: s.Original, Suggested: s.Suggested})
	}
	for _, title := range res.FacetTitles() {
		buckets := res.Facet(title)
		f := FacetResponse{Title: title, Buckets: make([]BucketResponse, 0, len(buckets))}
		for _, b := range buckets {
			f.Buckets = append(f.Buckets, BucketResponse{
				Key:       b.Key,
				Count:     b.Count,
				ClassName: b.Record.ClassName(),
				ObjectID:  b.Record.ID(),
				Title:     b.Record.Title(),
			})
		}
		out.Facets = append(out.Facets, f)
	}
	return out
}
