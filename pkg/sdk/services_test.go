package searchbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/searchbridge/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/searchbridge/internal/usecase/indexing"
)

// --- Search ---

func TestSearch_BuildsQuery(t *testing.T) {
	var got *query.Query
	mock := &mockSearchUC{
		searchFn: func(_ context.Context, index string, q *query.Query) (*result.Response, error) {
			if index != "content" {
				t.Errorf("index = %q, want content", index)
			}
			got = q
			return result.New(result.Params{}), nil
		},
	}
	c := testClient(t, mock, nil, nil)

	_, err := c.Search("content").
		Query("release  notes").
		FuzzyTerm("relase", "Title").
		Filter("Tags.ID", []int{1, 2}).
		OrFilter("ClassName", "Page").
		Boost("Title", 3).
		Sort("LastEdited", Desc).
		Highlight().
		Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	terms := got.Terms()
	if len(terms) != 3 {
		t.Fatalf("terms = %d, want 3", len(terms))
	}
	if terms[0].Text != "release" || terms[1].Text != "notes" {
		t.Errorf("terms = %+v", terms)
	}
	if terms[2].Fuzzy == nil || !*terms[2].Fuzzy || terms[2].Fields[0] != "Title" {
		t.Errorf("fuzzy term = %+v", terms[2])
	}
	if vals, ok := got.Filters().Get("Tags.ID"); !ok || len(vals) != 2 {
		t.Errorf("filter values = %v", vals)
	}
	if got.OrFilters().Len() != 1 {
		t.Errorf("or filters = %d, want 1", got.OrFilters().Len())
	}
	if got.BoostedFields()[0].Boost != 3 {
		t.Errorf("boosted = %+v", got.BoostedFields())
	}
	if s := got.Sort(); len(s) != 1 || s[0].Order != query.Desc {
		t.Errorf("sort = %+v", s)
	}
	if !got.Highlight() || got.Rows() != 10 {
		t.Errorf("highlight = %v rows = %d", got.Highlight(), got.Rows())
	}
}

func TestSearch_Page(t *testing.T) {
	var got *query.Query
	mock := &mockSearchUC{
		searchFn: func(_ context.Context, _ string, q *query.Query) (*result.Response, error) {
			got = q
			return result.New(result.Params{}), nil
		},
	}
	c := testClient(t, mock, nil, nil)

	if _, err := c.Search("content").Page(20, 5).Do(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Start() != 20 || got.Rows() != 5 {
		t.Errorf("start = %d rows = %d", got.Start(), got.Rows())
	}
	if len(got.Terms()) != 0 {
		t.Errorf("terms = %v, want none", got.Terms())
	}
}

func TestSearch_InvalidCallSkipsEngine(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *SearchBuilder) *SearchBuilder
	}{
		{"negative start", func(b *SearchBuilder) *SearchBuilder { return b.Page(-1, 10) }},
		{"rows above max", func(b *SearchBuilder) *SearchBuilder { return b.Page(0, query.MaxRows+1) }},
		{"empty term", func(b *SearchBuilder) *SearchBuilder { return b.Term("  ") }},
		{"zero boost", func(b *SearchBuilder) *SearchBuilder { return b.Boost("Title", 0) }},
		{"bad order", func(b *SearchBuilder) *SearchBuilder { return b.Sort("Title", Order("up")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSearchUC{
				searchFn: func(context.Context, string, *query.Query) (*result.Response, error) {
					t.Fatal("engine must not be called")
					return nil, nil
				},
			}
			c := testClient(t, mock, nil, nil)
			_, err := tt.build(c.Search("content")).Query("ok").Do(context.Background())
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("err = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestSearch_ErrorPropagates(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(context.Context, string, *query.Query) (*result.Response, error) {
			return nil, domain.ErrIndexNotFound
		},
	}
	c := testClient(t, mock, nil, nil)
	_, err := c.Search("missing").Do(context.Background())
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestSearch_ResponseMapping(t *testing.T) {
	page := mustRecord(t, "Page", 1, "Home")
	tag := mustRecord(t, "Tag", 2, "news")
	res := result.New(result.Params{
		Total:       7,
		Start:       0,
		Rows:        10,
		Matches:     []result.Match{result.NewMatch(page, "k1", 1.5, "<em>Home</em>")},
		Highlights:  map[string]map[string][]string{"k1": {"Title": {"<em>Home</em>"}}},
		Spellcheck:  []result.Suggestion{{Original: "hom", Suggested: "home"}},
		Collated:    "home",
		FacetTitles: []string{"Tags"},
		Facets:      map[string][]result.Bucket{"Tags": {{Record: tag, Key: "2", Count: 4}}},
	})
	mock := &mockSearchUC{
		searchFn: func(context.Context, string, *query.Query) (*result.Response, error) { return res, nil },
	}
	c := testClient(t, mock, nil, nil)

	out, err := c.Search("content").Query("hom").Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalItems != 7 || len(out.Matches) != 1 {
		t.Fatalf("out = %+v", out)
	}
	m := out.Matches[0]
	if m.ID != "Page-1" || m.ClassName != "Page" || m.ObjectID != 1 || m.Title != "Home" || m.Score != 1.5 {
		t.Errorf("match = %+v", m)
	}
	if m.Highlights != nil {
		t.Error("highlights must be omitted unless requested")
	}
	if len(out.Spellcheck) != 1 || out.Spellcheck[0].Suggested != "home" || out.Collated != "home" {
		t.Errorf("spellcheck = %+v collated = %q", out.Spellcheck, out.Collated)
	}
	if len(out.Facets) != 1 || out.Facets[0].Buckets[0].Title != "news" || out.Facets[0].Buckets[0].Count != 4 {
		t.Errorf("facets = %+v", out.Facets)
	}

	out, err = c.Search("content").Query("hom").Highlight().Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Matches[0].Highlights["Title"]; len(got) != 1 {
		t.Errorf("highlights = %v", out.Matches[0].Highlights)
	}
}

// --- Records ---

func TestRecords_Sync(t *testing.T) {
	mock := &mockIndexingUC{
		syncFn: func(_ context.Context, idx *domidx.Descriptor, class string, ids []int64) (indexinguc.SyncResult, error) {
			if idx.Name() != "content" || class != "Page" || len(ids) != 2 {
				t.Errorf("idx = %s class = %s ids = %v", idx.Name(), class, ids)
			}
			return indexinguc.SyncResult{Indexed: []string{"Page-1"}, Removed: []string{"Page-2"}}, nil
		},
	}
	c := testClient(t, nil, mock, nil)

	res, err := c.Records("content").Sync(context.Background(), "Page", 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Indexed) != 1 || len(res.Removed) != 1 {
		t.Errorf("res = %+v", res)
	}
}

func TestRecords_SyncPartialFailure(t *testing.T) {
	mock := &mockIndexingUC{
		syncFn: func(context.Context, *domidx.Descriptor, string, []int64) (indexinguc.SyncResult, error) {
			return indexinguc.SyncResult{
				Indexed: []string{"Page-1"},
				Failed:  map[string]string{"Page-2": "mapper_parsing_exception"},
			}, domain.ErrWriteFailed
		},
	}
	c := testClient(t, nil, mock, nil)

	res, err := c.Records("content").Sync(context.Background(), "Page", 1, 2)
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("err = %v, want ErrWriteFailed", err)
	}
	if len(res.Indexed) != 1 || res.Failed["Page-2"] == "" {
		t.Errorf("res = %+v", res)
	}
}

func TestRecords_UnknownIndex(t *testing.T) {
	c := testClient(t, nil, &mockIndexingUC{}, nil)
	if _, err := c.Records("missing").Sync(context.Background(), "Page", 1); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("sync err = %v", err)
	}
	if err := c.Records("missing").Remove(context.Background(), "Page", 1); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("remove err = %v", err)
	}
}

func TestRecords_Remove(t *testing.T) {
	var identity string
	mock := &mockIndexingUC{
		removeFn: func(_ context.Context, _ *domidx.Descriptor, id string) error {
			identity = id
			return nil
		},
	}
	c := testClient(t, nil, mock, nil)

	if err := c.Records("content").Remove(context.Background(), "BlogPost", 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity != "BlogPost-9" {
		t.Errorf("identity = %q, want BlogPost-9", identity)
	}
}

// --- Health ---

func TestHealth(t *testing.T) {
	mock := &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			healthuc.ComponentEngine:  healthuc.CheckOK,
			healthuc.ComponentRecords: healthuc.CheckError,
		},
	}}
	c := testClient(t, nil, nil, mock)

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Healthy() {
		t.Errorf("status = %q", h.Status)
	}
	if h.Checks["records"] != "error" || h.Checks["engine"] != "ok" {
		t.Errorf("checks = %v", h.Checks)
	}
}
