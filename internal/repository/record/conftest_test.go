package record

import (
	"context"
	"testing"

	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
)

func testRecord(t *testing.T, class string, id int64, attrs map[string]any) domrec.Record {
	t.Helper()
	r, err := domrec.New(class, id, domrec.VisibilityUnset, "", attrs)
	if err != nil {
		t.Fatalf("record.New: %v", err)
	}
	return r
}

// countingSource counts point lookups reaching the wrapped source.
type countingSource struct {
	Source
	finds   int
	findsBy int
}

func (c *countingSource) Find(ctx context.Context, class string, id int64) (domrec.Record, error) {
	c.finds++
	return c.Source.Find(ctx, class, id)
}

func (c *countingSource) FindFirstBy(ctx context.Context, classes []string, path string, value any) (domrec.Record, error) {
	c.findsBy++
	return c.Source.FindFirstBy(ctx, classes, path, value)
}
