package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/searchbridge/internal/db"
	"github.com/kailas-cloud/searchbridge/internal/domain"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/query"
)

func newTestRepo(t *testing.T, s store, f finder) *Repo {
	t.Helper()
	reg := testRegistry(t)
	return New(s, NewBuilder(schema.NewResolver(reg), 0), NewMapper(f, reg))
}

func TestSearch_BuildsExecutesAndMaps(t *testing.T) {
	var got *db.SearchRequest
	s := &mockStore{searchFn: func(_ context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
		got = req
		return decodeResponse(t, hitsResponse), nil
	}}
	f := &mockFinder{records: map[string]domrec.Record{
		"Page-1": testRecord(t, "Page", 1, nil),
	}}
	q := query.New()
	_ = q.AddTerm("test", nil, 1)

	res, err := newTestRepo(t, s, f).Search(context.Background(), testIndex(t, domidx.Definition{}), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Index != "content" || got.Size != 20 {
		t.Errorf("request = %+v", got)
	}
	if res.TotalItems() != 42 || len(res.Matches()) != 1 {
		t.Errorf("total %d, matches %d", res.TotalItems(), len(res.Matches()))
	}
}

func TestSearch_BuildErrorSkipsEngine(t *testing.T) {
	s := &mockStore{searchFn: func(context.Context, *db.SearchRequest) (*db.SearchResponse, error) {
		t.Fatal("engine must not be called")
		return nil, nil
	}}
	q := query.New()
	q.SetHighlight(true)
	_, err := newTestRepo(t, s, &mockFinder{}).Search(
		context.Background(), testIndex(t, domidx.Definition{FulltextFields: []string{"Nope"}}), q)
	if !errors.Is(err, domain.ErrUnknownField) {
		t.Errorf("err = %v", err)
	}
}

func TestExecute_NilResponse(t *testing.T) {
	s := &mockStore{searchFn: func(context.Context, *db.SearchRequest) (*db.SearchResponse, error) {
		return nil, nil
	}}
	res, err := newTestRepo(t, s, &mockFinder{}).Execute(context.Background(), &db.SearchRequest{Index: "content"})
	if err != nil || res == nil {
		t.Fatalf("Execute = %v, %v", res, err)
	}
}

func TestExecute_RequiresIndex(t *testing.T) {
	_, err := newTestRepo(t, &mockStore{}, &mockFinder{}).Execute(context.Background(), &db.SearchRequest{})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("err = %v", err)
	}
}

func TestExecute_ErrorMapping(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing index", &db.Error{Op: db.OpSearch, Err: &db.ResponseError{Status: 404, Type: "index_not_found_exception"}}, domain.ErrIndexNotFound},
		{"unavailable", &db.Error{Op: db.OpSearch, Err: &db.ResponseError{Status: 503}}, domain.ErrEngineUnavailable},
		{"bad request", &db.Error{Op: db.OpSearch, Err: &db.ResponseError{Status: 400, Reason: "parse"}}, domain.ErrInvalidQuery},
		{"other", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockStore{searchFn: func(context.Context, *db.SearchRequest) (*db.SearchResponse, error) {
				return nil, tt.err
			}}
			_, err := newTestRepo(t, s, &mockFinder{}).Execute(context.Background(), &db.SearchRequest{Index: "content"})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
