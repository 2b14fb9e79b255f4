package db

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestMappingBuilder_Simple(t *testing.T) {
	m := NewMapping().
		Keyword("ClassName").
		Long("ObjectID").
		Text("SiteTree.Title").
		MustBuild()

	if len(m.Properties) != 3 {
		t.Fatalf("properties = %d, want 3", len(m.Properties))
	}
	if m.Properties["ObjectID"].Type != TypeLong {
		t.Errorf("ObjectID = %+v", m.Properties["ObjectID"])
	}
	if got := m.String(); got != "MAPPING ClassName:keyword ObjectID:long SiteTree.Title:text" {
		t.Errorf("String = %q", got)
	}
}

func TestMappingBuilder_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *MappingBuilder
	}{
		{"empty", NewMapping()},
		{"no name", NewMapping().Text("")},
		{"no type", NewMapping().Field("x", "")},
		{"conflict", NewMapping().Text("x").Keyword("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMappingBuilder_SameTypeTwiceIsFine(t *testing.T) {
	if _, err := NewMapping().Text("x").Text("x").Build(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBulkRequest_Body(t *testing.T) {
	req := &BulkRequest{Actions: []BulkAction{
		{Index: "idx", ID: "a", Document: map[string]any{"id": "Page-1"}},
		{Index: "idx", ID: "b", Document: map[string]any{"id": "Page-2"}},
	}}
	body, err := req.Body()
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	want := []string{
		`{"index":{"_index":"idx","_id":"a"}}`,
		`{"id":"Page-1"}`,
		`{"index":{"_index":"idx","_id":"b"}}`,
		`{"id":"Page-2"}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %d, want %d: %q", len(lines), len(want), body)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
	}
}

func TestBulkResponse_Failures(t *testing.T) {
	raw := `{"errors":true,"items":[
		{"index":{"_id":"a","status":201}},
		{"index":{"_id":"b","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad date"}}}
	]}`
	var res BulkResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		t.Fatal(err)
	}
	f := res.Failures()
	if len(f) != 1 || f["b"] != "mapper_parsing_exception: bad date" {
		t.Errorf("Failures = %v", f)
	}
	var nilRes *BulkResponse
	if nilRes.Failures() != nil {
		t.Error("nil response should have no failures")
	}
}

func TestSearchBody_SectionOrder(t *testing.T) {
	body := SearchBody{
		Query: &Query{Bool: BoolQuery{Must: []Clause{MatchAll()}}},
		Sort:  []map[string]SortOrder{{"Title": {Order: "asc"}}},
		Aggs:  map[string]Aggregation{"T": {Terms: AggregationTerms{Field: "Page.T"}}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"query":{"bool":{"must":[{"match_all":{}}]}},"aggs":{"T":{"terms":{"field":"Page.T"}}},"sort":[{"Title":{"order":"asc"}}]}`
	if string(raw) != want {
		t.Errorf("body = %s\nwant %s", raw, want)
	}
}

func TestClauses(t *testing.T) {
	tests := []struct {
		name string
		c    Clause
		want string
	}{
		{"match", Match("_text", "x"), `{"match":{"_text":"x"}}`},
		{"boosted", BoostedMatch("SiteTree.Title", "x", 2), `{"match":{"SiteTree.Title":{"boost":2,"query":"x"}}}`},
		{"fuzzy", FuzzyMatch("_text", "x"), `{"match":{"_text":{"fuzziness":"AUTO","query":"x"}}}`},
		{"term", Term("id", "Page-1"), `{"term":{"id":"Page-1"}}`},
		{"terms", Terms("ViewStatus", []any{"null", "LoggedIn"}), `{"terms":{"ViewStatus":["null","LoggedIn"]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := json.Marshal(tt.c)
			if string(raw) != tt.want {
				t.Errorf("got %s, want %s", raw, tt.want)
			}
		})
	}
}

func TestResponseError_Is(t *testing.T) {
	notFound := &ResponseError{Status: 404, Type: "index_not_found_exception"}
	if !errors.Is(error(notFound), ErrIndexNotFound) {
		t.Error("expected ErrIndexNotFound")
	}
	wrapped := &Error{Op: OpSearch, Err: &ResponseError{Status: 503}}
	if !errors.Is(wrapped, ErrUnavailable) {
		t.Error("expected ErrUnavailable through db.Error")
	}
	if errors.Is(wrapped, ErrIndexExists) {
		t.Error("unexpected ErrIndexExists")
	}
	if !strings.Contains(wrapped.Error(), "search: engine status 503") {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
