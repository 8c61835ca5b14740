package storage

import (
	"strings"
)

// SearchHit is one ranked result from search_symbols (spec §4.2).
type SearchHit struct {
	SymbolID    int64
	Name        string
	Kind        string
	Signature   string
	DocComment  string
	FileRelPath string
	StartLine   int
	Rank        float64
}

// SearchSymbols passes query straight through as an FTS5 MATCH
// expression against the synthesized index, ordered by bm25 rank
// ascending (best first), limited to limit rows (spec §4.2, §6: query
// is FTS5 syntax — callers supply their own operators, e.g. a trailing
// `*` for a prefix match).
func (db *DB) SearchSymbols(repoID int64, query string, limit int) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT s.id, s.name, s.kind, COALESCE(s.signature,''), COALESCE(s.doc_comment,''), s.file_rel_path, s.start_line,
			bm25(symbols_fts, 1.0, 0.5, 0.8, 0.3, 0.2) as r
		FROM symbols_fts f
		JOIN symbols s ON s.id = f.rowid
		WHERE symbols_fts MATCH ? AND s.repo_id = ?
		ORDER BY r
		LIMIT ?
	`, query, repoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.SymbolID, &h.Name, &h.Kind, &h.Signature, &h.DocComment, &h.FileRelPath, &h.StartLine, &h.Rank); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Rebuild forces a full FTS index rebuild from the symbols table.
func (db *DB) Rebuild() error {
	_, err := db.conn.Exec("INSERT INTO symbols_fts(symbols_fts) VALUES('rebuild')")
	return err
}
