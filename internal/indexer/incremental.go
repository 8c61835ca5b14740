package indexer

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/rijuma/ctxhelpr/internal/ignore"
	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/storage"
	"github.com/rijuma/ctxhelpr/internal/symbols"
)

// UpdateFiles re-indexes exactly the given relative paths (spec §4.4's
// incremental entry point): no directory walk, no deletion
// reconciliation beyond what the caller already determined.
func UpdateFiles(absRepoPath string, relPaths []string, db *storage.DB, opts Options, logger *logging.Logger) (Stats, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	var stats Stats

	repoPath, err := canonicalize(absRepoPath)
	if err != nil {
		return stats, err
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

	err = db.WithTx(func(tx *sql.Tx) error {
		for _, relPath := range relPaths {
			relPath = filepath.ToSlash(relPath)
			base := filepath.Base(relPath)

			if ignore.HasBuiltinIgnoredSuffix(base) || matcher.Match(relPath) {
				stats.FilesSkipped++
				continue
			}
			extractor, ok := symbols.ForPath(relPath)
			if !ok {
				stats.FilesSkipped++
				continue
			}

			fullPath := filepath.Join(repoPath, filepath.FromSlash(relPath))
			info, statErr := os.Stat(fullPath)
			if statErr != nil {
				stats.FilesSkipped++
				continue
			}
			if info.Size() > maxSize {
				stats.FilesSkipped++
				continue
			}

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

// DeleteFilesByRelPaths removes the given files' rows (cascading to
// their symbols and refs) in one transaction, for watcher-triggered
// deletions (spec §4.4).
func DeleteFilesByRelPaths(absRepoPath string, relPaths []string, db *storage.DB) (int, error) {
	repoPath, err := canonicalize(absRepoPath)
	if err != nil {
		return 0, err
	}
	repoID, err := db.EnsureRepo(repoPath)
	if err != nil {
		return 0, err
	}
	existing, err := db.ExistingFiles(repoID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	err = db.WithTx(func(tx *sql.Tx) error {
		for _, relPath := range relPaths {
			f, ok := existing[filepath.ToSlash(relPath)]
			if !ok {
				continue
			}
			if err := storage.DeleteFile(tx, f.ID); err != nil {
				return err
			}
			deleted++
		}
		return storage.ResolveReferences(tx, repoID)
	})
	return deleted, err
}
