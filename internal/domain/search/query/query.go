// Package query is the structured search request compiled into the engine DSL.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxTermLength is the maximum length of a single term text.
	MaxTermLength = 4096
	MaxTerms      = 16
	DefaultRows   = 10
	MaxRows       = 500
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid checks if the order is supported.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// SortField is one sort key.
type SortField struct {
	Field string
	Order Order
}

// Term is one search term.
type Term struct {
	Text   string
	Fields []string
	Boost  float64
	// Fuzzy is nil unless the term was added as fuzzy.
	Fuzzy *bool
}

// BoostedField is a query-time boost on one field.
type BoostedField struct {
	Field string
	Boost float64
}

// Query is one search request. The zero value is not usable; call New.
type Query struct {
	start         int
	rows          int
	terms         []Term
	filters       filter.Set
	orFilters     filter.Set
	boostedFields []BoostedField
	highlight     bool
	sort          []SortField
}

// New creates an empty query returning DefaultRows from offset zero.
func New() *Query {
	return &Query{rows: DefaultRows}
}

// Start returns the page offset.
func (q *Query) Start() int { return q.start }

// Rows returns the requested page size.
func (q *Query) Rows() int { return q.rows }

// Terms returns the terms in insertion order.
func (q *Query) Terms() []Term { return q.terms }

// Filters returns the required ("AND") filters.
func (q *Query) Filters() filter.Set { return q.filters }

// OrFilters returns the optional ("OR") filters.
func (q *Query) OrFilters() filter.Set { return q.orFilters }

// BoostedFields returns query-time field boosts in insertion order.
func (q *Query) BoostedFields() []BoostedField { return q.boostedFields }

// Highlight reports whether highlighting is requested.
func (q *Query) Highlight() bool { return q.highlight }

// Sort returns the sort keys in order.
func (q *Query) Sort() []SortField { return q.sort }

// SetStart sets the page offset.
func (q *Query) SetStart(start int) error {
	if start < 0 {
		return fmt.Errorf("start must be >= 0")
	}
	q.start = start
	return nil
}

// SetRows sets the page size. Zero resets to DefaultRows.
func (q *Query) SetRows(rows int) error {
	switch {
	case rows < 0:
		return fmt.Errorf("rows must be >= 0")
	case rows == 0:
		rows = DefaultRows
	case rows > MaxRows:
		return fmt.Errorf("rows too large (max %d)", MaxRows)
	}
	q.rows = rows
	return nil
}

// AddTerm appends a term. A boost above 1 with fields boosts the term on those fields.
func (q *Query) AddTerm(text string, fields []string, boost float64) error {
	return q.addTerm(Term{Text: text, Fields: slices.Clone(fields), Boost: boost})
}

// AddFuzzyTerm appends a term matched with engine-side fuzziness.
func (q *Query) AddFuzzyTerm(text string, fields []string, boost float64) error {
	fuzzy := true
	return q.addTerm(Term{Text: text, Fields: slices.Clone(fields), Boost: boost, Fuzzy: &fuzzy})
}

func (q *Query) addTerm(t Term) error {
	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" {
		return fmt.Errorf("term text is required")
	}
	if len(t.Text) > MaxTermLength {
		return fmt.Errorf("term too long (max %d chars)", MaxTermLength)
	}
	if len(q.terms) >= MaxTerms {
		return fmt.Errorf("too many terms (max %d)", MaxTerms)
	}
	if t.Fields == nil {
		t.Fields = []string{}
	}
	if t.Boost <= 0 {
		t.Boost = 1
	}
	q.terms = append(q.terms, t)
	return nil
}

// AddFilter requires field to match value (a scalar or a list).
func (q *Query) AddFilter(field string, value any) error {
	return q.filters.Add(field, value)
}

// AddOrFilter makes a match on field optional but scoring.
func (q *Query) AddOrFilter(field string, value any) error {
	return q.orFilters.Add(field, value)
}

// AddBoostedField boosts field for every term. Re-adding a field replaces its boost.
func (q *Query) AddBoostedField(field string, boost float64) error {
	if field == "" {
		return fmt.Errorf("boosted field is required")
	}
	if boost <= 0 {
		return fmt.Errorf("boost for %q must be > 0", field)
	}
	for i := range q.boostedFields {
		if q.boostedFields[i].Field == field {
			q.boostedFields[i].Boost = boost
			return nil
		}
	}
	q.boostedFields = append(q.boostedFields, BoostedField{Field: field, Boost: boost})
	return nil
}

// SetHighlight toggles highlighting.
func (q *Query) SetHighlight(on bool) { q.highlight = on }

// AddSort appends a sort key. An empty order means ascending.
func (q *Query) AddSort(field string, order Order) error {
	if field == "" {
		return fmt.Errorf("sort field is required")
	}
	if order == "" {
		order = Asc
	}
	if !order.IsValid() {
		return fmt.Errorf("invalid sort order: %q", order)
	}
	q.sort = append(q.sort, SortField{Field: field, Order: order})
	return nil
}

// WithTerms returns a copy of q whose terms are replaced by texts, keeping each
// original term's fields, boost and fuzziness by position.
func (q *Query) WithTerms(texts []string) *Query {
	c := *q
	c.terms = make([]Term, len(q.terms))
	copy(c.terms, q.terms)
	for i := range c.terms {
		if i < len(texts) && texts[i] != "" {
			c.terms[i].Text = texts[i]
		}
	}
	return &c
}
