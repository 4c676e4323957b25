package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func setupTestDB(t testing.TB) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

func testRecord(id string) RenderRecord {
	return RenderRecord{
		Identifier: id,
		Title:      "Artist Song",
		Views:      "1.2M views",
		Duration:   "3:45",
		CoverURL:   "https://img/" + id + ".jpg",
		CachePath:  "cache/" + id + "_FHD.png",
		RenderMs:   420,
		RenderedAt: time.Unix(1_700_000_000, 0),
	}
}

func TestNewDatabase(t *testing.T) {
	db := setupTestDB(t)

	if _, err := os.Stat(db.Path()); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "ledger.db")
	if _, err := New(context.Background(), dbPath); err == nil {
		t.Fatal("expected error when parent directory does not exist")
	}
}

func TestNewDatabaseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := db.RecordRender(context.Background(), testRecord("abc")); err != nil {
		t.Fatalf("RecordRender() error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	db, err = New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()

	if _, err := db.GetRender(context.Background(), "abc"); err != nil {
		t.Errorf("record should survive reopen: %v", err)
	}
}

func TestRecordAndGetRender(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	want := testRecord("abc")
	if err := db.RecordRender(ctx, want); err != nil {
		t.Fatalf("RecordRender() error: %v", err)
	}

	got, err := db.GetRender(ctx, "abc")
	if err != nil {
		t.Fatalf("GetRender() error: %v", err)
	}

	want.RenderCount = 1
	if !got.RenderedAt.Equal(want.RenderedAt) {
		t.Errorf("RenderedAt = %v, want %v", got.RenderedAt, want.RenderedAt)
	}
	got.RenderedAt = want.RenderedAt
	if got != want {
		t.Errorf("GetRender() = %+v, want %+v", got, want)
	}
}

func TestRecordRenderUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := testRecord("abc")
	first.Placeholder = true
	first.Title = "Unsupported Title"
	if err := db.RecordRender(ctx, first); err != nil {
		t.Fatalf("RecordRender() error: %v", err)
	}

	second := testRecord("abc")
	second.Title = "Real Title"
	if err := db.RecordRender(ctx, second); err != nil {
		t.Fatalf("RecordRender() error: %v", err)
	}

	got, err := db.GetRender(ctx, "abc")
	if err != nil {
		t.Fatalf("GetRender() error: %v", err)
	}
	if got.Title != "Real Title" || got.Placeholder {
		t.Errorf("record not replaced: %+v", got)
	}
	if got.RenderCount != 2 {
		t.Errorf("RenderCount = %d, want 2", got.RenderCount)
	}
}

func TestRecordRenderDefaultsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := testRecord("abc")
	rec.RenderedAt = time.Time{}
	before := time.Now().Add(-time.Second)
	if err := db.RecordRender(ctx, rec); err != nil {
		t.Fatalf("RecordRender() error: %v", err)
	}

	got, err := db.GetRender(ctx, "abc")
	if err != nil {
		t.Fatalf("GetRender() error: %v", err)
	}
	if got.RenderedAt.Before(before) {
		t.Errorf("RenderedAt = %v, expected about now", got.RenderedAt)
	}
}

func TestGetRenderNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRender(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRenders(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		rec := testRecord(id)
		rec.RenderedAt = time.Unix(int64(1_700_000_000+i*60), 0)
		if err := db.RecordRender(ctx, rec); err != nil {
			t.Fatalf("RecordRender(%s) error: %v", id, err)
		}
	}

	got, err := db.ListRenders(ctx, 2)
	if err != nil {
		t.Fatalf("ListRenders() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Identifier != "c" || got[1].Identifier != "b" {
		t.Errorf("order = %s, %s; want c, b", got[0].Identifier, got[1].Identifier)
	}

	empty := setupTestDB(t)
	none, err := empty.ListRenders(ctx, 10)
	if err != nil {
		t.Fatalf("ListRenders() on empty ledger error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records, got %d", len(none))
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if stats := db.GetStats(); stats.TotalRenders != 0 {
		t.Errorf("empty ledger TotalRenders = %d", stats.TotalRenders)
	}

	records := []RenderRecord{testRecord("a"), testRecord("b"), testRecord("c")}
	records[1].Placeholder = true
	records[2].Live = true
	records[2].Duration = "Live"
	for _, rec := range records {
		if err := db.RecordRender(ctx, rec); err != nil {
			t.Fatalf("RecordRender() error: %v", err)
		}
	}

	stats := db.GetStats()
	if stats.TotalRenders != 3 || stats.PlaceholderRenders != 1 || stats.LiveRenders != 1 {
		t.Errorf("GetStats() = %+v, want 3/1/1", stats)
	}
}

func TestDatabaseConcurrency(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if err := db.RecordRender(ctx, testRecord(id)); err != nil {
				t.Errorf("RecordRender(%s) error: %v", id, err)
			}
			if _, err := db.GetRender(ctx, id); err != nil {
				t.Errorf("GetRender(%s) error: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if stats := db.GetStats(); stats.TotalRenders != 10 {
		t.Errorf("TotalRenders = %d, want 10", stats.TotalRenders)
	}
}

func TestRecordQuery(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"successful query", nil},
		{"failed query", errors.New("test error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic for either status label.
			recordQuery("test_operation", time.Now(), tt.err)
		})
	}
}
