package record

import (
	"context"
	"os"
	"testing"
	"time"
)

// Runs against a real database when SEARCHBRIDGE_TEST_DATABASE_URL is set.
func TestPostgres_Integration(t *testing.T) {
	url := os.Getenv("SEARCHBRIDGE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SEARCHBRIDGE_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := Open(ctx, url, PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, Schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := sqlDB.ExecContext(ctx, `DELETE FROM search_records WHERE class_name IN ('ITPage', 'ITTag')`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	_, err = sqlDB.ExecContext(ctx, `
		INSERT INTO search_records (class_name, id, show_in_search, view_status, attributes) VALUES
		('ITPage', 1, NULL, 'null', '{"Title":"Home","TestObject":{"ID":7},"Tags":[{"Title":"go"},{"Title":"news"}]}'),
		('ITPage', 2, false, 'LoggedIn', '{"Title":"Hidden"}'),
		('ITTag', 7, true, 'null', '{"Title":"Go"}')`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	p := NewPostgres(sqlDB)
	r, err := p.Find(ctx, "ITPage", 1)
	if err != nil || r.Title() != "Home" {
		t.Fatalf("Find = %v, %v", r.Title(), err)
	}
	if _, err := p.Find(ctx, "ITPage", 99); !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}

	byAttr, err := p.FindFirstBy(ctx, []string{"ITPage"}, "TestObject.ID", 7)
	if err != nil || byAttr.ID() != 1 {
		t.Errorf("FindFirstBy attr = %v, %v", byAttr.Identity(), err)
	}
	byMany, err := p.FindFirstBy(ctx, []string{"ITPage"}, "Tags.Title", "news")
	if err != nil || byMany.ID() != 1 {
		t.Errorf("FindFirstBy has_many = %v, %v", byMany.Identity(), err)
	}
	byID, err := p.FindFirstBy(ctx, []string{"ITTag"}, "ID", 7)
	if err != nil || byID.Title() != "Go" {
		t.Errorf("FindFirstBy id = %v, %v", byID.Identity(), err)
	}

	lo, hi, ok, err := p.IDRange(ctx, []string{"ITPage"})
	if err != nil || !ok || lo != 1 || hi != 2 {
		t.Errorf("IDRange = %d %d %v %v", lo, hi, ok, err)
	}
	recs, err := p.ListByIDRange(ctx, []string{"ITPage", "ITTag"}, 1, 10)
	if err != nil || len(recs) != 3 {
		t.Errorf("ListByIDRange = %d, %v", len(recs), err)
	}
	many, err := p.FindMany(ctx, "ITPage", []int64{1, 2, 3})
	if err != nil || len(many) != 2 {
		t.Errorf("FindMany = %d, %v", len(many), err)
	}
}
