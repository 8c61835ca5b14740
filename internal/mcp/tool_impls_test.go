package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rijuma/ctxhelpr/internal/dispatcher"
	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/storage"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache := storage.NewCache(nil)
	d := dispatcher.New(cache, nil, nil, nil)
	return Deps{Cache: cache, Dispatcher: d}
}

func writeFixture(t *testing.T, repo string) {
	t.Helper()
	content := `// Adds two numbers
function add(a: number, b: number): number {
  return a + b;
}
`
	if err := os.WriteFile(filepath.Join(repo, "simple.ts"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestIndexRepositoryThenGetOverview(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo)
	deps := newTestDeps(t)
	handlers := NewToolHandlers(deps)

	if _, err := handlers["index_repository"](map[string]interface{}{"path": repo}); err != nil {
		t.Fatalf("index_repository: %v", err)
	}

	result, err := handlers["get_overview"](map[string]interface{}{"path": repo})
	if err != nil {
		t.Fatalf("get_overview: %v", err)
	}
	if result == nil {
		t.Fatal("expected a non-nil overview")
	}
}

func TestGetFileSymbolsBeforeIndexReturnsNotIndexed(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo)
	deps := newTestDeps(t)
	handlers := NewToolHandlers(deps)

	_, err := handlers["get_file_symbols"](map[string]interface{}{"path": repo, "file": "simple.ts"})
	if err == nil {
		t.Fatal("expected not-indexed error before index_repository runs")
	}
	if code, _ := errors.Code(err); code != errors.CodeNotIndexed {
		t.Fatalf("expected CodeNotIndexed, got %v", code)
	}
}

func TestSearchSymbolsFindsIndexedSymbol(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo)
	deps := newTestDeps(t)
	handlers := NewToolHandlers(deps)

	if _, err := handlers["index_repository"](map[string]interface{}{"path": repo}); err != nil {
		t.Fatalf("index_repository: %v", err)
	}
	result, err := handlers["search_symbols"](map[string]interface{}{"path": repo, "query": "add"})
	if err != nil {
		t.Fatalf("search_symbols: %v", err)
	}
	hitsMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	hits, ok := hitsMap["hits"].([]storage.SearchHit)
	if !ok || len(hits) == 0 {
		t.Fatalf("expected at least one search hit, got %+v", hitsMap["hits"])
	}
}

func TestGetSymbolDetailUnknownIDErrors(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo)
	deps := newTestDeps(t)
	handlers := NewToolHandlers(deps)

	if _, err := handlers["index_repository"](map[string]interface{}{"path": repo}); err != nil {
		t.Fatalf("index_repository: %v", err)
	}
	_, err := handlers["get_symbol_detail"](map[string]interface{}{"path": repo, "symbol_id": float64(999999)})
	if err == nil {
		t.Fatal("expected symbol-not-found error")
	}
	if code, _ := errors.Code(err); code != errors.CodeSymbolNotFound {
		t.Fatalf("expected CodeSymbolNotFound, got %v", code)
	}
}

func TestDeleteReposRemovesIndex(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo)
	deps := newTestDeps(t)
	handlers := NewToolHandlers(deps)

	if _, err := handlers["index_repository"](map[string]interface{}{"path": repo}); err != nil {
		t.Fatalf("index_repository: %v", err)
	}
	result, err := handlers["delete_repos"](map[string]interface{}{"paths": []interface{}{repo}})
	if err != nil {
		t.Fatalf("delete_repos: %v", err)
	}
	resp, ok := result.(map[string]interface{})
	if !ok || resp["deleted"] != 1 {
		t.Fatalf("expected deleted=1, got %+v", result)
	}
}

func TestListReposAfterIndexing(t *testing.T) {
	repo := t.TempDir()
	writeFixture(t, repo)
	deps := newTestDeps(t)
	handlers := NewToolHandlers(deps)

	if _, err := handlers["index_repository"](map[string]interface{}{"path": repo}); err != nil {
		t.Fatalf("index_repository: %v", err)
	}
	result, err := handlers["list_repos"](map[string]interface{}{})
	if err != nil {
		t.Fatalf("list_repos: %v", err)
	}
	resp, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	repos, ok := resp["repos"].([]storage.IndexedRepo)
	if !ok || len(repos) != 1 {
		t.Fatalf("expected exactly 1 listed repo, got %+v", resp["repos"])
	}
}
