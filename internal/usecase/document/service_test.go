package document

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/searchbridge/internal/domain"
	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
)

func newTestFactory(t *testing.T) (*Factory, *schema.Registry) {
	t.Helper()
	reg, err := schema.NewRegistry([]schema.ClassDef{
		{
			Name:    "SiteTree",
			Fields:  map[string]string{"Title": "Varchar", "Content": "HTMLText", "LastEdited": "DBDatetime"},
			HasMany: map[string]string{"Tags": "Tag"},
		},
		{Name: "Page", Parent: "SiteTree", Fields: map[string]string{"Summary": "Text"}},
		{Name: "Tag", Fields: map[string]string{"Title": "Varchar"}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return New(schema.NewResolver(reg), reg), reg
}

func testIndex(t *testing.T, def domidx.Definition) *domidx.Descriptor {
	t.Helper()
	def.Name = "content"
	if len(def.Classes) == 0 {
		def.Classes = []string{"SiteTree"}
	}
	idx, err := domidx.New(def)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}
	return idx
}

func record(t *testing.T, class string, id int64, show domrec.Visibility, attrs map[string]any) domrec.Record {
	t.Helper()
	r, err := domrec.New(class, id, show, "", attrs)
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	return r
}

func TestBuildItems_VisibilityTriState(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{FulltextFields: []string{"Title"}})
	recs := []domrec.Record{
		record(t, "Page", 1, domrec.VisibilityUnset, map[string]any{"Title": "unset"}),
		record(t, "Page", 2, domrec.VisibilityEnabled, map[string]any{"Title": "enabled"}),
		record(t, "Page", 3, domrec.VisibilityDisabled, map[string]any{"Title": "disabled"}),
	}

	docs, err := f.BuildItems(idx, idx.FulltextFields(), recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].Identity() != "Page-1" || docs[1].Identity() != "Page-2" {
		t.Errorf("identities = %s, %s", docs[0].Identity(), docs[1].Identity())
	}
}

func TestBuildItems_DefaultFields(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{FulltextFields: []string{"Title"}})
	rec, _ := domrec.New("Page", 7, domrec.VisibilityUnset, "LoggedIn", map[string]any{"Title": "Hello"})

	docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := docs[0]
	if d[domdoc.FieldID] != "Page-7" || d[domdoc.FieldObjectID] != int64(7) || d[domdoc.FieldClassName] != "Page" {
		t.Errorf("identity fields = %v", d)
	}
	if d.UniqueKey() != domdoc.UniqueKey("Page-7") {
		t.Errorf("unique key = %s", d.UniqueKey())
	}
	if !reflect.DeepEqual(d[domdoc.FieldClassHierarchy], []string{"SiteTree", "Page"}) {
		t.Errorf("hierarchy = %v", d[domdoc.FieldClassHierarchy])
	}
	if d[domdoc.FieldViewStatus] != "LoggedIn" {
		t.Errorf("view status = %v", d[domdoc.FieldViewStatus])
	}
}

func TestBuildItems_FieldKeysAndText(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{FulltextFields: []string{"Title", "Page_Summary", "Tags.Title"}})
	rec := record(t, "Page", 1, domrec.VisibilityUnset, map[string]any{
		"Title":   "Home",
		"Summary": "Welcome",
		"Tags":    []any{map[string]any{"Title": "news"}, map[string]any{"Title": "blog"}},
	})

	docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := docs[0]
	if d["SiteTree.Title"] != "Home" || d["Page.Summary"] != "Welcome" {
		t.Errorf("doc = %v", d)
	}
	if !reflect.DeepEqual(d["SiteTree.Tags.Title"], []any{"news", "blog"}) {
		t.Errorf("tags = %v", d["SiteTree.Tags.Title"])
	}
	if d[domdoc.FieldText] != "Welcome, news, blog, Home" {
		t.Errorf("_text = %q", d[domdoc.FieldText])
	}
}

func TestBuildItems_PolymorphicApplicability(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{FulltextFields: []string{"Page.Summary", "Title"}})
	base := record(t, "SiteTree", 1, domrec.VisibilityUnset, map[string]any{"Title": "Root", "Summary": "not a page field"})

	docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := docs[0]["Page.Summary"]; ok {
		t.Error("Page.Summary must not apply to SiteTree")
	}
	if docs[0]["SiteTree.Title"] != "Root" {
		t.Errorf("doc = %v", docs[0])
	}
}

func TestBuildItems_MissingValueIsOmitted(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{FulltextFields: []string{"Title", "Content"}})
	rec := record(t, "Page", 1, domrec.VisibilityUnset, map[string]any{"Title": "Only title", "Content": nil})

	docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := docs[0]["SiteTree.Content"]; ok {
		t.Errorf("doc = %v", docs[0])
	}
}

func TestBuildItems_UnknownFieldAbortsBatch(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{})
	_, err := f.BuildItems(idx, []string{"Nope"}, []domrec.Record{record(t, "Page", 1, domrec.VisibilityUnset, nil)})
	if !errors.Is(err, domain.ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}

func TestBuildItems_DateNormalization(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{FulltextFields: []string{"LastEdited"}})
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"sql datetime", "2024-03-01 10:20:30", "2024-03-01T10:20:30Z"},
		{"time value", time.Date(2024, 3, 1, 12, 20, 30, 0, time.FixedZone("x", 2*3600)), "2024-03-01T10:20:30Z"},
		{"already canonical", "2024-03-01T10:20:30Z", "2024-03-01T10:20:30Z"},
		{"unparseable", "yesterday", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(t, "Page", 1, domrec.VisibilityUnset, map[string]any{"LastEdited": tt.value})
			docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{rec})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := docs[0]["SiteTree.LastEdited"]; got != tt.want {
				t.Errorf("LastEdited = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildItems_CopyFieldsKeepText(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{
		FulltextFields: []string{"Title", "Content"},
		CopyFields:     map[string][]string{"_titles": {"Title"}},
	})
	rec := record(t, "Page", 1, domrec.VisibilityUnset, map[string]any{"Title": "Home", "Content": "Body"})

	docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0][domdoc.FieldText] != "Body, Home" {
		t.Errorf("_text = %v", docs[0][domdoc.FieldText])
	}
	if docs[0]["_titles"] != "Home" {
		t.Errorf("_titles = %v", docs[0]["_titles"])
	}
}

func TestBuildItems_SubclassIndexWritesInheritedFieldOnce(t *testing.T) {
	f, _ := newTestFactory(t)
	idx := testIndex(t, domidx.Definition{
		Classes:        []string{"SiteTree", "Page"},
		FulltextFields: []string{"Title"},
	})
	rec := record(t, "Page", 1, domrec.VisibilityUnset, map[string]any{"Title": "Hello"})

	docs, err := f.BuildItems(idx, idx.FulltextFields(), []domrec.Record{rec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := docs[0]
	if _, ok := d["Page.Title"]; ok {
		t.Errorf("inherited field written under the subclass: %v", d)
	}
	if d["SiteTree.Title"] != "Hello" || d[domdoc.FieldText] != "Hello" {
		t.Errorf("doc = %v", d)
	}
}

func TestBuildItems_Empty(t *testing.T) {
	f, _ := newTestFactory(t)
	docs, err := f.BuildItems(testIndex(t, domidx.Definition{}), nil, nil)
	if err != nil || len(docs) != 0 {
		t.Errorf("BuildItems = %v, %v", docs, err)
	}
}
