package searchbridge

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Match is a single search hit resolved to its record.
type Match struct {
	ID         string // composite identity, e.g. "Page-1"
	ClassName  string
	ObjectID   int64
	Title      string
	Score      float64
	Excerpt    string
	Highlights map[string][]string // nil unless highlighting was requested
}

// Suggestion is a spellcheck pair.
type Suggestion struct {
	Original  string
	Suggested string
}

// Bucket is one facet value with its count.
type Bucket struct {
	Key       string
	Count     int
	ClassName string // empty when the value resolved to no record
	ObjectID  int64
	Title     string
}

// Facet is a titled list of buckets, sorted by count.
type Facet struct {
	Title   string
	Buckets []Bucket
}

// SearchResult is one page of a search.
type SearchResult struct {
	TotalItems int
	Start      int
	Rows       int
	Matches    []Match
	Spellcheck []Suggestion
	Collated   string
	Facets     []Facet
}

// SyncResult lists what one sync call changed.
type SyncResult struct {
	Indexed []string
	Removed []string
	Failed  map[string]string // identity -> cause
}
