package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deepfates/silicon/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLitePutGet(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := &models.DocumentRecord{
		Path:       "notes/a.md",
		ModifiedAt: 12345,
		Embedding:  []float32{0.123456, -0.5, 1},
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "notes/a.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Path != rec.Path || got.ModifiedAt != rec.ModifiedAt {
		t.Errorf("got %+v", got)
	}
	if len(got.Embedding) != 3 {
		t.Fatalf("embedding length: %d", len(got.Embedding))
	}
	for i := range rec.Embedding {
		if got.Embedding[i] != rec.Embedding[i] {
			t.Errorf("embedding %d: got %v, want %v", i, got.Embedding[i], rec.Embedding[i])
		}
	}
	if got.Neighbors != nil {
		t.Errorf("expected nil neighbors, got %v", got.Neighbors)
	}
}

func TestSQLiteGetNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	if _, err := s.Get(context.Background(), "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSQLitePutReplacesWholeRecord(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	first := &models.DocumentRecord{
		Path:       "a.md",
		ModifiedAt: 1,
		Embedding:  []float32{1, 0},
		Neighbors:  []models.Neighbor{{Path: "b.md", Similarity: 0.9}},
	}
	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Re-embed: new stamp and vector, neighbors cleared.
	second := &models.DocumentRecord{Path: "a.md", ModifiedAt: 2, Embedding: []float32{0, 1}}
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "a.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModifiedAt != 2 || got.Embedding[0] != 0 || got.Embedding[1] != 1 {
		t.Errorf("got %+v", got)
	}
	if got.Neighbors != nil {
		t.Errorf("stale neighbors survived replacement: %v", got.Neighbors)
	}
}

func TestSQLiteNeighborsNilVsEmpty(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &models.DocumentRecord{Path: "nil.md", ModifiedAt: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, &models.DocumentRecord{
		Path: "empty.md", ModifiedAt: 1, Neighbors: []models.Neighbor{},
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, &models.DocumentRecord{
		Path: "full.md", ModifiedAt: 1,
		Neighbors: []models.Neighbor{{Path: "nil.md", Similarity: 0.75}},
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	nilRec, _ := s.Get(ctx, "nil.md")
	if nilRec.Neighbors != nil {
		t.Errorf("nil neighbors round-tripped as %v", nilRec.Neighbors)
	}
	emptyRec, _ := s.Get(ctx, "empty.md")
	if emptyRec.Neighbors == nil || len(emptyRec.Neighbors) != 0 {
		t.Errorf("empty neighbors round-tripped as %v", emptyRec.Neighbors)
	}
	fullRec, _ := s.Get(ctx, "full.md")
	if len(fullRec.Neighbors) != 1 || fullRec.Neighbors[0].Path != "nil.md" || fullRec.Neighbors[0].Similarity != 0.75 {
		t.Errorf("neighbors round-tripped as %v", fullRec.Neighbors)
	}
}

func TestSQLiteDelete(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, &models.DocumentRecord{Path: "a.md", ModifiedAt: 1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "a.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	// Deleting an absent record is not an error.
	if err := s.Delete(ctx, "a.md"); err != nil {
		t.Errorf("Delete absent: %v", err)
	}
}

func TestSQLitePathsAndScanOrder(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, p := range []string{"c.md", "a.md", "b.md"} {
		if err := s.Put(ctx, &models.DocumentRecord{Path: p, ModifiedAt: 1, Embedding: []float32{1}}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	paths, err := s.Paths(ctx)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	want := []string{"a.md", "b.md", "c.md"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths: %v", paths)
		}
	}

	var scanned []string
	err = s.Scan(ctx, func(rec *models.DocumentRecord) error {
		scanned = append(scanned, rec.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	for i := range want {
		if scanned[i] != want[i] {
			t.Fatalf("scan order: %v", scanned)
		}
	}
}

func TestSQLiteScanStopsOnCallbackError(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	for _, p := range []string{"a.md", "b.md"} {
		if err := s.Put(ctx, &models.DocumentRecord{Path: p, ModifiedAt: 1}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	sentinel := errors.New("stop")
	calls := 0
	err := s.Scan(ctx, func(rec *models.DocumentRecord) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("got %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after error", calls)
	}
}

func TestSQLiteCount(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	count, err := s.Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("empty count: %d, %v", count, err)
	}
	for _, p := range []string{"a.md", "b.md"} {
		if err := s.Put(ctx, &models.DocumentRecord{Path: p, ModifiedAt: 1}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	count, err = s.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("count: %d, %v", count, err)
	}
}

func TestSQLiteCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	if err := s.Put(context.Background(), &models.DocumentRecord{Path: "a.md", ModifiedAt: 1}); err != nil {
		t.Errorf("Put: %v", err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	rec := &models.DocumentRecord{Path: "a.md", ModifiedAt: 7, Embedding: []float32{0.5}}
	if err := s.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModifiedAt != 7 || got.Embedding[0] != 0.5 {
		t.Errorf("got %+v", got)
	}
}
