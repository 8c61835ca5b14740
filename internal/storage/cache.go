package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/logging"
	"github.com/rijuma/ctxhelpr/internal/paths"
)

// Cache owns the set of per-repo DB files under the platform cache
// directory (spec §6 on-disk layout).
type Cache struct {
	logger *logging.Logger
}

// NewCache returns a Cache using logger for diagnostics (nil is
// permitted, falling back to a no-op logger).
func NewCache(logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Cache{logger: logger}
}

// Open opens (creating if needed) the DB file for absRepoPath.
func (c *Cache) Open(absRepoPath string) (*DB, error) {
	dbPath, err := paths.RepoDBPath(absRepoPath)
	if err != nil {
		return nil, errors.NewIOError(absRepoPath, err)
	}
	return Open(dbPath, c.logger)
}

// IndexedRepo is one entry returned by ListIndexedRepos.
type IndexedRepo struct {
	AbsPath       string
	LastIndexedAt *string
}

// ListIndexedRepos scans the cache directory for repo database files,
// opening each far enough to read its abs_path/last_indexed_at and
// silently skipping any file that isn't a valid ctxhelpr database
// (spec §4.2 list_indexed_repos).
func (c *Cache) ListIndexedRepos() ([]IndexedRepo, error) {
	dir, err := paths.CacheDir()
	if err != nil {
		return nil, errors.NewIOError("", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError(dir, err)
	}

	var out []IndexedRepo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		dbPath := filepath.Join(dir, entry.Name())
		db, err := Open(dbPath, c.logger)
		if err != nil {
			c.logger.Warn("skipping invalid index database", map[string]interface{}{"path": dbPath, "error": err.Error()})
			continue
		}
		repos, err := readAllRepos(db)
		db.Close()
		if err != nil {
			c.logger.Warn("skipping unreadable index database", map[string]interface{}{"path": dbPath, "error": err.Error()})
			continue
		}
		out = append(out, repos...)
	}
	return out, nil
}

func readAllRepos(db *DB) ([]IndexedRepo, error) {
	rows, err := db.conn.Query(`SELECT abs_path, last_indexed_at FROM repositories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexedRepo
	for rows.Next() {
		var r IndexedRepo
		var lastIndexed *string
		if err := rows.Scan(&r.AbsPath, &lastIndexed); err != nil {
			return nil, err
		}
		r.LastIndexedAt = lastIndexed
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRepoIndex removes the DB file (plus -shm/-wal companions) for
// absRepoPath.
func (c *Cache) DeleteRepoIndex(absRepoPath string) error {
	dbPath, err := paths.RepoDBPath(absRepoPath)
	if err != nil {
		return errors.NewIOError(absRepoPath, err)
	}
	return deleteDBFiles(dbPath)
}

// DeleteAllRepoIndexes removes every per-repo DB file under the cache
// directory.
func (c *Cache) DeleteAllRepoIndexes() (int, []error) {
	dir, err := paths.CacheDir()
	if err != nil {
		return 0, []error{errors.NewIOError("", err)}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []error{errors.NewIOError(dir, err)}
	}

	var deleted int
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		if err := deleteDBFiles(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errs
}

func deleteDBFiles(dbPath string) error {
	for _, suffix := range []string{"", "-shm", "-wal"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return errors.NewIOError(dbPath+suffix, err)
		}
	}
	return nil
}
