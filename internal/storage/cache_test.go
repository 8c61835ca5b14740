package storage

import (
	"path/filepath"
	"testing"
)

func sandboxCacheDir(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(t.TempDir(), "cache"))
}

func TestCacheOpenAndListIndexedRepos(t *testing.T) {
	sandboxCacheDir(t)
	cache := NewCache(nil)

	db, err := cache.Open("/repo/one")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.EnsureRepo("/repo/one"); err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	db.Close()

	repos, err := cache.ListIndexedRepos()
	if err != nil {
		t.Fatalf("list repos: %v", err)
	}
	if len(repos) != 1 || repos[0].AbsPath != "/repo/one" {
		t.Fatalf("expected one repo /repo/one, got %+v", repos)
	}
}

func TestCacheListIndexedReposEmptyBeforeAnyIndex(t *testing.T) {
	sandboxCacheDir(t)
	cache := NewCache(nil)

	repos, err := cache.ListIndexedRepos()
	if err != nil {
		t.Fatalf("list repos: %v", err)
	}
	if len(repos) != 0 {
		t.Fatalf("expected no repos, got %+v", repos)
	}
}

func TestCacheDeleteRepoIndex(t *testing.T) {
	sandboxCacheDir(t)
	cache := NewCache(nil)

	db, err := cache.Open("/repo/two")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.EnsureRepo("/repo/two"); err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	db.Close()

	if err := cache.DeleteRepoIndex("/repo/two"); err != nil {
		t.Fatalf("delete repo index: %v", err)
	}

	repos, err := cache.ListIndexedRepos()
	if err != nil {
		t.Fatalf("list repos: %v", err)
	}
	if len(repos) != 0 {
		t.Fatalf("expected no repos after delete, got %+v", repos)
	}
}

func TestCacheDeleteAllRepoIndexes(t *testing.T) {
	sandboxCacheDir(t)
	cache := NewCache(nil)

	for _, p := range []string{"/repo/a", "/repo/b", "/repo/c"} {
		db, err := cache.Open(p)
		if err != nil {
			t.Fatalf("open %s: %v", p, err)
		}
		if _, err := db.EnsureRepo(p); err != nil {
			t.Fatalf("ensure repo %s: %v", p, err)
		}
		db.Close()
	}

	deleted, errs := cache.DeleteAllRepoIndexes()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}

	repos, err := cache.ListIndexedRepos()
	if err != nil {
		t.Fatalf("list repos: %v", err)
	}
	if len(repos) != 0 {
		t.Fatalf("expected no repos after delete-all, got %+v", repos)
	}
}
