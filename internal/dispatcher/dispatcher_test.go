package dispatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/storage"
)

func newTestCache(t *testing.T) *storage.Cache {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return storage.NewCache(nil)
}

func TestEnsureIndexedTriggersBackgroundIndexOnMiss(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "a.py"), "def f():\n    pass\n")

	cache := newTestCache(t)
	d := New(cache, nil, nil, nil)

	err := d.EnsureIndexed(repo)
	if err == nil {
		t.Fatal("expected not-indexed error on first call")
	}
	if code, _ := errors.Code(err); code != errors.CodeNotIndexed {
		t.Fatalf("expected CodeNotIndexed, got %v", code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !d.tracker.IsIndexing(repo) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if d.tracker.IsIndexing(repo) {
		t.Fatal("background index did not complete in time")
	}

	db, err := cache.Open(repo)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	indexed, err := db.IsRepoIndexed(repo)
	if err != nil {
		t.Fatalf("is repo indexed: %v", err)
	}
	if !indexed {
		t.Fatal("expected repo to be indexed after background job completes")
	}
}

func TestTriggerBackgroundIndexDoesNotDoubleStart(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "a.rb"), "def hi\nend\n")

	cache := newTestCache(t)
	d := New(cache, nil, nil, nil)

	d.TriggerBackgroundIndex(repo)
	d.TriggerBackgroundIndex(repo) // must not panic or double-complete the same handle
}

func TestIndexRepositoryReturnsStats(t *testing.T) {
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, "a.rs"), "fn add(a: i32, b: i32) -> i32 { a + b }\n")

	cache := newTestCache(t)
	d := New(cache, nil, nil, nil)

	stats, err := d.IndexRepository(repo)
	if err != nil {
		t.Fatalf("index_repository: %v", err)
	}
	if stats.FilesNew != 1 {
		t.Fatalf("want 1 new file, got %+v", stats)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
