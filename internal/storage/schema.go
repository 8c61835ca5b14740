package storage

import (
	"database/sql"
	"fmt"

	"github.com/rijuma/ctxhelpr/internal/tokenize"
)

// currentSchemaVersion is bumped whenever migrate adds a migration step.
// Spec §4.2: the name_tokens column migration brings a database to
// schema_version=2.
const currentSchemaVersion = 2

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createCoreTables(tx); err != nil {
			return err
		}
		if err := createFTSSchema(tx); err != nil {
			return err
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

func createCoreTables(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS repositories (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			abs_path        TEXT UNIQUE NOT NULL,
			created_at      TEXT NOT NULL,
			last_indexed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			repo_id         INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			rel_path        TEXT NOT NULL,
			content_hash    TEXT NOT NULL,
			language        TEXT NOT NULL,
			last_indexed_at TEXT NOT NULL,
			UNIQUE(repo_id, rel_path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_repo ON files(repo_id)`,
		`CREATE TABLE IF NOT EXISTS symbols (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			repo_id          INTEGER NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
			file_id          INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			parent_symbol_id INTEGER REFERENCES symbols(id) ON DELETE CASCADE,
			name             TEXT NOT NULL,
			kind             TEXT NOT NULL,
			signature        TEXT,
			doc_comment      TEXT,
			start_line       INTEGER NOT NULL,
			end_line         INTEGER NOT NULL,
			file_rel_path    TEXT NOT NULL,
			name_tokens      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_repo_name ON symbols(repo_id, name)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id)`,
		`CREATE TABLE IF NOT EXISTS refs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			from_symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
			to_name        TEXT NOT NULL,
			kind           TEXT NOT NULL,
			line           INTEGER NOT NULL,
			to_symbol_id   INTEGER REFERENCES symbols(id) ON DELETE SET NULL,
			UNIQUE(from_symbol_id, to_name, kind, line)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_from ON refs(from_symbol_id)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_to_symbol ON refs(to_symbol_id)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_to_name ON refs(to_name)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create core schema: %w", err)
		}
	}
	return nil
}

// createFTSSchema creates the symbols_fts external-content virtual table
// (keyed directly off symbols.id, spec §3) plus the sync triggers.
func createFTSSchema(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
			name,
			name_tokens,
			signature,
			doc_comment,
			kind,
			content='symbols',
			content_rowid='id'
		)
	`)
	if err != nil {
		return fmt.Errorf("create symbols_fts: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS symbols_fts_ai AFTER INSERT ON symbols BEGIN
			INSERT INTO symbols_fts(rowid, name, name_tokens, signature, doc_comment, kind)
			VALUES (new.id, new.name, new.name_tokens, new.signature, new.doc_comment, new.kind);
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbols_fts_au AFTER UPDATE ON symbols BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, name, name_tokens, signature, doc_comment, kind)
			VALUES ('delete', old.id, old.name, old.name_tokens, old.signature, old.doc_comment, old.kind);
			INSERT INTO symbols_fts(rowid, name, name_tokens, signature, doc_comment, kind)
			VALUES (new.id, new.name, new.name_tokens, new.signature, new.doc_comment, new.kind);
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbols_fts_ad AFTER DELETE ON symbols BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, name, name_tokens, signature, doc_comment, kind)
			VALUES ('delete', old.id, old.name, old.name_tokens, old.signature, old.doc_comment, old.kind);
		END`,
	}
	for _, trigger := range triggers {
		if _, err := tx.Exec(trigger); err != nil {
			return fmt.Errorf("create fts trigger: %w", err)
		}
	}
	return nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec(`
		INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, fmt.Sprintf("%d", version))
	return err
}

func (db *DB) schemaVersion() (int, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM metadata WHERE key='schema_version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var version int
	if _, err := fmt.Sscanf(value, "%d", &version); err != nil {
		return 0, err
	}
	return version, nil
}

// migrate brings an existing database up to currentSchemaVersion. The
// only migration this spec defines is the v1->v2 step: add name_tokens,
// backfill it for existing rows, and rebuild the FTS index (spec §4.2,
// §9 "FTS5 sync").
func (db *DB) migrate() error {
	if err := createCoreTables0(db); err != nil {
		return err
	}
	version, err := db.schemaVersion()
	if err != nil {
		return err
	}
	if version >= currentSchemaVersion {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		if err := migrateAddNameTokens(tx); err != nil {
			return err
		}
		if err := createFTSSchema(tx); err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO symbols_fts(symbols_fts) VALUES('rebuild')"); err != nil {
			return fmt.Errorf("rebuild fts: %w", err)
		}
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

// createCoreTables0 ensures core tables exist even on a pre-v1-tracked
// database (defensive: a database file with no metadata row at all).
func createCoreTables0(db *DB) error {
	return db.WithTx(createCoreTables)
}

func migrateAddNameTokens(tx *sql.Tx) error {
	hasColumn, err := columnExists(tx, "symbols", "name_tokens")
	if err != nil {
		return err
	}
	if !hasColumn {
		if _, err := tx.Exec(`ALTER TABLE symbols ADD COLUMN name_tokens TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add name_tokens column: %w", err)
		}
	}

	rows, err := tx.Query(`SELECT id, name FROM symbols WHERE name_tokens = ''`)
	if err != nil {
		return fmt.Errorf("select symbols to backfill: %w", err)
	}
	type pending struct {
		id   int64
		name string
	}
	var toBackfill []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.name); err != nil {
			rows.Close()
			return err
		}
		toBackfill = append(toBackfill, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	stmt, err := tx.Prepare(`UPDATE symbols SET name_tokens = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range toBackfill {
		if _, err := stmt.Exec(tokenize.Identifier(p.name), p.id); err != nil {
			return fmt.Errorf("backfill name_tokens for symbol %d: %w", p.id, err)
		}
	}
	return nil
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
