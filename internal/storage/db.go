// Package storage implements the per-repository SQLite index: schema,
// migrations, FTS5 search, and the query/mutation contracts of spec §4.2.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/rijuma/ctxhelpr/internal/logging"
)

// DB wraps a SQLite connection for one repository's index, with
// transaction helpers and pragmas tuned for a single-writer workload.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	path   string
}

// Open opens or creates the SQLite database at path, running schema
// initialization or migration as needed.
func Open(path string, logger *logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	existed := fileExists(path)

	conn, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1) // single-writer: SQLite serializes writes anyway

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-32000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: path}

	if !existed {
		logger.Info("creating new index database", map[string]interface{}{"path": path})
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	} else {
		if err := db.migrate(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn exposes the underlying *sql.DB for callers that need raw access
// (e.g. the cache layer probing is_repo_indexed without opening a Tx).
func (db *DB) Conn() *sql.DB { return db.conn }

// Path returns the on-disk database file path.
func (db *DB) Path() string { return db.path }

// WithTx runs fn inside a transaction, rolling back on error or panic
// (spec §4.2/§5: SQL writes serialize via SQLite's own locking, never
// interleaved with another writer). The connection's `_txlock=immediate`
// DSN option (set in Open) makes db.conn.Begin() issue BEGIN IMMEDIATE
// under the hood, so the write lock is acquired up front rather than
// on first write.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec("PRAGMA query_only=OFF"); err != nil {
		// not fatal; some builds of modernc.org/sqlite don't need this
		_ = err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("rollback failed", map[string]interface{}{"error": err.Error(), "rollback_error": rbErr.Error()})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
