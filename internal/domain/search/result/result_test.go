package result

import (
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/domain/record"
)

func titled(id int64, title string) record.Record {
	return record.Reconstruct("Tag", id, record.VisibilityUnset, "", map[string]any{"Title": title})
}

func TestSortBuckets_CountDescLabelAsc(t *testing.T) {
	buckets := []Bucket{
		{Record: titled(3, "C"), Count: 1},
		{Record: titled(2, "B"), Count: 5},
		{Record: titled(1, "A"), Count: 5},
	}
	SortBuckets(buckets)

	want := []string{"A", "B", "C"}
	for i, b := range buckets {
		if b.Label() != want[i] {
			t.Errorf("bucket[%d] = %s(%d), want %s", i, b.Label(), b.Count, want[i])
		}
	}
	if buckets[0].Count != 5 || buckets[2].Count != 1 {
		t.Errorf("counts = %d,%d,%d", buckets[0].Count, buckets[1].Count, buckets[2].Count)
	}
}

func TestBucket_LabelFallsBackToKey(t *testing.T) {
	b := Bucket{Record: record.Reconstruct("Tag", 9, record.VisibilityUnset, "", nil), Key: "9"}
	if b.Label() != "9" {
		t.Errorf("Label = %q", b.Label())
	}
}

func TestExcerpt(t *testing.T) {
	got := Excerpt(map[string][]string{
		"Page.Title":   {"<em>Test</em> title"},
		"Page.Content": {"one &#65533;frag", "two\uFFFD"},
	})
	want := "one frag (...) two (...) <em>Test</em> title"
	if got != want {
		t.Errorf("Excerpt = %q, want %q", got, want)
	}
	if Excerpt(nil) != "" {
		t.Error("empty excerpt expected")
	}
}

func TestResponse_PaginationUsesEngineTotal(t *testing.T) {
	r := New(Params{
		Total:   12,
		Start:   10,
		Rows:    10,
		Matches: []Match{NewMatch(titled(1, "A"), "k1", 1.2, "")},
	})
	p := r.PaginatedMatches()
	if p.TotalItems != r.TotalItems() || p.TotalItems != 12 {
		t.Errorf("TotalItems = %d / %d", p.TotalItems, r.TotalItems())
	}
	if p.Start != 10 || p.Length != 10 || len(p.Items) != 1 {
		t.Errorf("page = %+v", p)
	}
}

func TestResponse_FacetsKeepDeclarationOrder(t *testing.T) {
	r := New(Params{
		FacetTitles: []string{"B", "A", "Missing"},
		Facets: map[string][]Bucket{
			"A": {{Key: "1", Count: 1}},
			"B": {{Key: "2", Count: 2}},
		},
	})
	got := r.FacetTitles()
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("FacetTitles = %v", got)
	}
	if r.Facet("Missing") != nil {
		t.Error("missing facet should be nil")
	}
}

func TestResponse_ExcerptMatches(t *testing.T) {
	r := New(Params{Matches: []Match{
		NewMatch(titled(1, "A"), "k1", 1, "with excerpt"),
		NewMatch(titled(2, "B"), "k2", 1, ""),
	}})
	if got := r.ExcerptMatches(); len(got) != 1 || got[0].Key() != "k1" {
		t.Errorf("ExcerptMatches = %+v", got)
	}
	if r.Spellcheck() != nil {
		t.Error("spellcheck should be nil")
	}
}
