package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	repo := t.TempDir()

	cfg, err := Load(repo)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Default()
	if cfg.Output.TruncateSignatures != want.Output.TruncateSignatures ||
		cfg.Search.MaxResults != want.Search.MaxResults ||
		cfg.Indexer.MaxFileSize != want.Indexer.MaxFileSize {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadLocalOverridesGlobal(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	if err := os.MkdirAll(filepath.Join(configHome, "ctxhelpr"), 0o755); err != nil {
		t.Fatalf("mkdir global config dir: %v", err)
	}
	writeFile(t, filepath.Join(configHome, "ctxhelpr", "config.json"), `{"search": {"max_results": 30}}`)
	repo := t.TempDir()
	localPath := filepath.Join(repo, ".ctxhelpr.json")
	writeFile(t, localPath, `{"search": {"max_results": 50}, "indexer": {"ignore": ["*.gen.go"]}}`)

	cfg, err := Load(repo)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.MaxResults != 50 {
		t.Fatalf("want overridden max_results=50, got %d", cfg.Search.MaxResults)
	}
	if len(cfg.Indexer.Ignore) != 1 || cfg.Indexer.Ignore[0] != "*.gen.go" {
		t.Fatalf("want overridden ignore list, got %+v", cfg.Indexer.Ignore)
	}
	if cfg.Indexer.MaxFileSize != Default().Indexer.MaxFileSize {
		t.Fatalf("expected untouched sibling field to keep its default, got %d", cfg.Indexer.MaxFileSize)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, ".ctxhelpr.json"), `{"search": {"max_results": 10, "bogus": true}}`)

	if _, err := Load(repo); err == nil {
		t.Fatal("expected schema validation error for unknown field")
	}
}

func TestLoadAllowsJSONCComments(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	repo := t.TempDir()
	writeFile(t, filepath.Join(repo, ".ctxhelpr.json"), "{\n  // a comment\n  \"search\": { \"max_results\": 5 },\n}\n")

	cfg, err := Load(repo)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.MaxResults != 5 {
		t.Fatalf("want max_results=5, got %d", cfg.Search.MaxResults)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
