// Package ignore implements the indexer's file-skipping rules: the
// built-in directory/suffix ignore sets, repo .gitignore matching, and
// user-supplied ignore pattern semantics (spec §4.4).
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// builtinDirs are directory names skipped anywhere in the walked tree,
// grounded on brian-lai-repo-search's isIgnoredDir set, trimmed to the
// names spec §4.4 names explicitly.
var builtinDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".venv":        true,
	"vendor":       true,
	".next":        true,
	".nuxt":        true,
	"coverage":     true,
	".cache":       true,
}

// builtinSuffixes are file-name suffixes skipped regardless of any user
// configuration (spec §4.4 step 4).
var builtinSuffixes = []string{".min.js", ".min.mjs", ".min.cjs", ".min.css"}

// IsBuiltinIgnoredDir reports whether name (a single path component) is
// one of the always-skipped directory names.
func IsBuiltinIgnoredDir(name string) bool { return builtinDirs[name] }

// HasBuiltinIgnoredSuffix reports whether name ends in one of the
// always-skipped file suffixes.
func HasBuiltinIgnoredSuffix(name string) bool {
	for _, suffix := range builtinSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Matcher evaluates a repo's combined ignore rules: user-configured
// glob/suffix/prefix patterns, plus the repo's own .gitignore if
// present.
type Matcher struct {
	userPatterns []string
	gitignore    *gitignore.GitIgnore
}

// New constructs a Matcher for repoRoot with the given user patterns
// (spec §6 config indexer.ignore). A missing .gitignore is not an
// error; it simply contributes no rules.
func New(repoRoot string, userPatterns []string) *Matcher {
	m := &Matcher{userPatterns: userPatterns}
	gitignorePath := filepath.Join(repoRoot, ".gitignore")
	if content, err := os.ReadFile(gitignorePath); err == nil {
		var lines []string
		for _, line := range strings.Split(string(content), "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			m.gitignore = gitignore.CompileIgnoreLines(lines...)
		}
	}
	return m
}

// Match reports whether relPath (forward-slash, relative to repo root)
// should be skipped.
func (m *Matcher) Match(relPath string) bool {
	if m.gitignore != nil && m.gitignore.MatchesPath(relPath) {
		return true
	}
	for _, pattern := range m.userPatterns {
		if matchUserPattern(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchUserPattern implements spec §4.4's exact pattern semantics:
//   - "*<suffix>"  matches when relPath ends with <suffix>
//   - "<prefix>/"  matches when relPath, or any "/"-delimited segment of
//     it, starts with <prefix>
//   - anything else matches as an exact filename, optionally preceded
//     by "/" (i.e. an exact path-segment match anywhere in relPath)
//
// A pattern containing unescaped glob metacharacters beyond a single
// leading "*" falls back to doublestar glob matching, since the config
// schema also accepts conventional globs (spec §4.8 domain stack).
func matchUserPattern(pattern, relPath string) bool {
	switch {
	case strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*"):
		return strings.HasSuffix(relPath, pattern[1:])
	case strings.HasSuffix(pattern, "/"):
		prefix := strings.TrimSuffix(pattern, "/")
		if strings.HasPrefix(relPath, prefix) {
			return true
		}
		for _, seg := range strings.Split(relPath, "/") {
			if strings.HasPrefix(seg, prefix) {
				return true
			}
		}
		return strings.Contains(relPath, "/"+prefix+"/") || strings.HasPrefix(relPath, prefix+"/")
	case strings.ContainsAny(pattern, "*?["):
		ok, err := doublestar.Match(pattern, relPath)
		return err == nil && ok
	default:
		if relPath == pattern {
			return true
		}
		return strings.HasSuffix(relPath, "/"+pattern)
	}
}
