// Package indexer implements the full- and incremental-indexing
// pipelines of spec §4.4: walk, extract, and persist a repository's
// symbol and reference graph.
package indexer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/hashutil"
	"github.com/rijuma/ctxhelpr/internal/ignore"
	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/storage"
	"github.com/rijuma/ctxhelpr/internal/symbols"
)

// Stats is the response shape for index_repository (spec §4.4).
type Stats struct {
	FilesNew       int
	FilesChanged   int
	FilesUnchanged int
	FilesDeleted   int
	FilesSkipped   int
	FilesTotal     int
}

// Options configures one indexing run (spec §6 indexer config).
type Options struct {
	IgnorePatterns []string
	MaxFileSize    int64
}

const defaultMaxFileSize = 1048576

// Index performs a full index of absRepoPath into db: canonicalize,
// walk, diff against existing file rows, parse changed files, and
// reconcile deletions (spec §4.4 steps 1-9).
func Index(absRepoPath string, db *storage.DB, opts Options, logger *logging.Logger) (Stats, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	var stats Stats

	repoPath, err := canonicalize(absRepoPath)
	if err != nil {
		return stats, errors.NewIOError(absRepoPath, err)
	}

	repoID, err := db.EnsureRepo(repoPath)
	if err != nil {
		return stats, err
	}

	existing, err := db.ExistingFiles(repoID)
	if err != nil {
		return stats, err
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}
	matcher := ignore.New(repoPath, opts.IgnorePatterns)

	seen := map[string]bool{}

	err = db.WithTx(func(tx *sql.Tx) error {
		walkErr := filepath.WalkDir(repoPath, func(fullPath string, d os.DirEntry, err error) error {
			if err != nil {
				logger.Warn("walk error", map[string]interface{}{"path": fullPath, "error": err.Error()})
				return nil
			}
			if d.IsDir() {
				if fullPath != repoPath && ignore.IsBuiltinIgnoredDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			relPath, relErr := filepath.Rel(repoPath, fullPath)
			if relErr != nil || relPath == "" || relPath == "." {
				stats.FilesSkipped++
				return nil
			}
			relPath = filepath.ToSlash(relPath)

			if ignore.HasBuiltinIgnoredSuffix(d.Name()) {
				return nil
			}
			extractor, ok := symbols.ForPath(fullPath)
			if !ok {
				return nil
			}
			if matcher.Match(relPath) {
				return nil
			}

			info, statErr := d.Info()
			if statErr != nil {
				logger.Warn("stat failed", map[string]interface{}{"path": fullPath, "error": statErr.Error()})
				stats.FilesSkipped++
				return nil
			}
			if info.Size() > maxSize {
				stats.FilesSkipped++
				return nil
			}

			seen[relPath] = true
			changed, err := indexOneFile(tx, repoID, repoPath, relPath, extractor, existing, logger)
			if err != nil {
				return err
			}
			switch changed {
			case fileNew:
				stats.FilesNew++
			case fileChanged:
				stats.FilesChanged++
			case fileUnchanged:
				stats.FilesUnchanged++
			case fileSkipped:
				stats.FilesSkipped++
			}
			return nil
		})
		if walkErr != nil {
			return walkErr
		}

		for relPath, f := range existing {
			if seen[relPath] {
				continue
			}
			if err := storage.DeleteFile(tx, f.ID); err != nil {
				return err
			}
			stats.FilesDeleted++
		}

		if err := storage.ResolveReferences(tx, repoID); err != nil {
			return err
		}
		return storage.UpdateLastIndexedAt(tx, repoID)
	})
	if err != nil {
		return stats, err
	}

	stats.FilesTotal = stats.FilesNew + stats.FilesChanged + stats.FilesUnchanged
	return stats, nil
}

type fileChangeKind int

const (
	fileUnchanged fileChangeKind = iota
	fileNew
	fileChanged
	fileSkipped
)

// indexOneFile reads, hashes, and (if changed) re-extracts one file,
// mutating the existing map to mark it as seen/consumed.
func indexOneFile(tx *sql.Tx, repoID int64, repoPath, relPath string, extractor symbols.Extractor,
	existing map[string]storage.ExistingFile, logger *logging.Logger) (fileChangeKind, error) {

	fullPath := filepath.Join(repoPath, filepath.FromSlash(relPath))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		logger.Warn("read failed", map[string]interface{}{"path": fullPath, "error": err.Error()})
		return fileSkipped, nil
	}

	hash := hashutil.SHA256Hex(data)
	prior, hadPrior := existing[relPath]
	delete(existing, relPath)

	if hadPrior && prior.ContentHash == hash {
		return fileUnchanged, nil
	}

	symbolForest, err := extractor.Extract(data)
	if err != nil {
		logger.Warn("parse failed, skipping file", map[string]interface{}{"path": fullPath, "error": err.Error()})
		return fileSkipped, nil
	}

	fileID, err := storage.UpsertFile(tx, repoID, relPath, hash, string(extractor.Language()))
	if err != nil {
		return fileSkipped, err
	}

	if err := storage.ClearFileSymbols(tx, fileID); err != nil {
		return fileSkipped, err
	}
	for _, sym := range symbolForest {
		if _, err := storage.InsertSymbolTree(tx, repoID, fileID, relPath, nil, sym); err != nil {
			return fileSkipped, err
		}
	}

	if hadPrior {
		return fileChanged, nil
	}
	return fileNew, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(resolved) {
		return "", fmt.Errorf("repository path is not valid UTF-8: %q", resolved)
	}
	return resolved, nil
}
