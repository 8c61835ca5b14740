package ignore

import (
	"os"
	"testing"
)

func TestBuiltinDirAndSuffix(t *testing.T) {
	if !IsBuiltinIgnoredDir("node_modules") {
		t.Fatal("expected node_modules to be builtin-ignored")
	}
	if IsBuiltinIgnoredDir("src") {
		t.Fatal("did not expect src to be builtin-ignored")
	}
	if !HasBuiltinIgnoredSuffix("bundle.min.js") {
		t.Fatal("expected .min.js suffix to be ignored")
	}
	if HasBuiltinIgnoredSuffix("bundle.js") {
		t.Fatal("did not expect plain .js to be ignored")
	}
}

func TestUserPatternSemantics(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.generated.go", "internal/foo.generated.go", true},
		{"*.generated.go", "internal/foo.go", false},
		{"generated/", "generated/schema.go", true},
		{"generated/", "internal/generated/schema.go", true},
		{"generated/", "internal/other/schema.go", false},
		{"config.json", "config.json", true},
		{"config.json", "internal/config.json", true},
		{"config.json", "internal/myconfig.json", false},
	}
	for _, c := range cases {
		got := matchUserPattern(c.pattern, c.path)
		if got != c.want {
			t.Errorf("matchUserPattern(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestMatcherGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/.gitignore", "generated/\n*.log\n")
	m := New(dir, nil)
	if !m.Match("generated/schema.go") {
		t.Fatal("expected generated/ subtree to be ignored via .gitignore")
	}
	if !m.Match("debug.log") {
		t.Fatal("expected *.log to be ignored via .gitignore")
	}
	if m.Match("main.go") {
		t.Fatal("did not expect main.go to be ignored")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
