package storage

import (
	"database/sql"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rijuma/ctxhelpr/internal/errors"
	"github.com/rijuma/ctxhelpr/internal/symbols"
	"github.com/rijuma/ctxhelpr/internal/tokenize"
)

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// EnsureRepo idempotently returns the repository row id for absPath,
// creating it if absent (spec §4.2 ensure_repo).
func (db *DB) EnsureRepo(absPath string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM repositories WHERE abs_path = ?`, absPath).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, errors.NewStorageError("ensure_repo: query existing", err)
	}

	res, err := db.conn.Exec(`INSERT INTO repositories (abs_path, created_at) VALUES (?, ?)`, absPath, nowRFC3339())
	if err != nil {
		return 0, errors.NewStorageError("ensure_repo: insert", err)
	}
	return res.LastInsertId()
}

// IsRepoIndexed reports whether a repository row exists and has a
// non-null last_indexed_at (spec §9 Open Question 2: the sole signal).
func (db *DB) IsRepoIndexed(absPath string) (bool, error) {
	var lastIndexed sql.NullString
	err := db.conn.QueryRow(`SELECT last_indexed_at FROM repositories WHERE abs_path = ?`, absPath).Scan(&lastIndexed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStorageError("is_repo_indexed", err)
	}
	return lastIndexed.Valid, nil
}

// ExistingFile is the (id, content_hash) pair indexer.go diffs new
// filesystem state against.
type ExistingFile struct {
	ID          int64
	ContentHash string
}

// ExistingFiles loads repo_id's current rel_path -> (file_id, hash) map.
func (db *DB) ExistingFiles(repoID int64) (map[string]ExistingFile, error) {
	rows, err := db.conn.Query(`SELECT rel_path, id, content_hash FROM files WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, errors.NewStorageError("existing_files", err)
	}
	defer rows.Close()

	out := map[string]ExistingFile{}
	for rows.Next() {
		var relPath string
		var f ExistingFile
		if err := rows.Scan(&relPath, &f.ID, &f.ContentHash); err != nil {
			return nil, errors.NewStorageError("existing_files scan", err)
		}
		out[relPath] = f
	}
	return out, rows.Err()
}

// UpsertFile inserts or updates the files row for (repoID, relPath),
// returning its id.
func UpsertFile(tx *sql.Tx, repoID int64, relPath, contentHash, language string) (int64, error) {
	now := nowRFC3339()
	_, err := tx.Exec(`
		INSERT INTO files (repo_id, rel_path, content_hash, language, last_indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, rel_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			language = excluded.language,
			last_indexed_at = excluded.last_indexed_at
	`, repoID, relPath, contentHash, language, now)
	if err != nil {
		return 0, fmt.Errorf("upsert_file: %w", err)
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM files WHERE repo_id = ? AND rel_path = ?`, repoID, relPath).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert_file: reselect id: %w", err)
	}
	return id, nil
}

// ClearFileSymbols deletes every symbol (and, via cascade, every
// outgoing ref) owned by fileID, in preparation for re-inserting a
// file's fresh extraction result.
func ClearFileSymbols(tx *sql.Tx, fileID int64) error {
	_, err := tx.Exec(`DELETE FROM symbols WHERE file_id = ?`, fileID)
	if err != nil {
		return fmt.Errorf("clear_file_symbols: %w", err)
	}
	return nil
}

// InsertSymbolTree recursively inserts sym and its descendants,
// computing name_tokens per spec §4.1, and inserts all of sym's
// references with to_symbol_id left NULL for later resolution.
func InsertSymbolTree(tx *sql.Tx, repoID, fileID int64, relPath string, parentID *int64, sym *symbols.Symbol) (int64, error) {
	nameTokens := tokenize.Identifier(sym.Name)

	res, err := tx.Exec(`
		INSERT INTO symbols (repo_id, file_id, parent_symbol_id, name, kind, signature, doc_comment,
			start_line, end_line, file_rel_path, name_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, repoID, fileID, parentID, sym.Name, string(sym.Kind), nullableString(sym.Signature), nullableString(sym.DocComment),
		sym.StartLine, sym.EndLine, relPath, nameTokens)
	if err != nil {
		return 0, fmt.Errorf("insert_symbol_tree: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert_symbol_tree: last insert id: %w", err)
	}

	for _, ref := range sym.References {
		if err := InsertRef(tx, id, ref.ToName, string(ref.Kind), ref.Line); err != nil {
			return 0, err
		}
	}

	for _, child := range sym.Children {
		if _, err := InsertSymbolTree(tx, repoID, fileID, relPath, &id, child); err != nil {
			return 0, err
		}
	}

	return id, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// InsertRef inserts one unresolved reference edge, silently deduplicating
// on (from_symbol_id, to_name, kind, line) per spec §4.2.
func InsertRef(tx *sql.Tx, fromSymbolID int64, toName, kind string, line int) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO refs (from_symbol_id, to_name, kind, line, to_symbol_id)
		VALUES (?, ?, ?, ?, NULL)
	`, fromSymbolID, toName, kind, line)
	if err != nil {
		return fmt.Errorf("insert_ref: %w", err)
	}
	return nil
}

// DeleteFile removes a file row; ON DELETE CASCADE removes its symbols
// and, transitively, their refs (spec §4.2 delete_file).
func DeleteFile(tx *sql.Tx, fileID int64) error {
	_, err := tx.Exec(`DELETE FROM files WHERE id = ?`, fileID)
	if err != nil {
		return fmt.Errorf("delete_file: %w", err)
	}
	return nil
}

// ResolveReferences resolves every NULL to_symbol_id ref belonging to a
// symbol in repoID. A `this.X` reference first tries a match scoped to
// the nearest enclosing class/struct/interface ancestor of its owning
// symbol, falling back to the generic exact-name match (spec §4.2,
// §9 Open Question 1 records the tie-break: lowest matching symbol id).
func ResolveReferences(tx *sql.Tx, repoID int64) error {
	rows, err := tx.Query(`
		SELECT r.id, r.to_name, s.id
		FROM refs r
		JOIN symbols s ON s.id = r.from_symbol_id
		WHERE r.to_symbol_id IS NULL AND s.repo_id = ?
	`, repoID)
	if err != nil {
		return fmt.Errorf("resolve_references: select pending: %w", err)
	}
	type pending struct {
		refID      int64
		toName     string
		fromSymbol int64
	}
	var items []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.refID, &p.toName, &p.fromSymbol); err != nil {
			rows.Close()
			return fmt.Errorf("resolve_references: scan: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	updateStmt, err := tx.Prepare(`UPDATE refs SET to_symbol_id = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer updateStmt.Close()

	for _, p := range items {
		name := p.toName
		var enclosingClassID *int64
		if strings.HasPrefix(name, "this.") {
			name = strings.TrimPrefix(name, "this.")
			enclosingClassID = findEnclosingClass(tx, p.fromSymbol)
		}

		var matchID int64
		var matchErr error
		if enclosingClassID != nil {
			matchErr = tx.QueryRow(`
				SELECT id FROM symbols
				WHERE repo_id = ? AND name = ? AND parent_symbol_id = ?
				ORDER BY id ASC LIMIT 1
			`, repoID, name, *enclosingClassID).Scan(&matchID)
		}
		if enclosingClassID == nil || matchErr == sql.ErrNoRows {
			matchErr = tx.QueryRow(`
				SELECT id FROM symbols
				WHERE repo_id = ? AND name = ?
				ORDER BY id ASC LIMIT 1
			`, repoID, name).Scan(&matchID)
		}
		if matchErr != nil {
			continue // no match found; ref stays unresolved
		}
		if _, err := updateStmt.Exec(matchID, p.refID); err != nil {
			return fmt.Errorf("resolve_references: update: %w", err)
		}
	}
	return nil
}

// findEnclosingClass walks parent_symbol_id upward from symbolID looking
// for the nearest ancestor whose kind is class/struct/interface/trait.
func findEnclosingClass(tx *sql.Tx, symbolID int64) *int64 {
	current := symbolID
	for {
		var parentID sql.NullInt64
		var kind string
		err := tx.QueryRow(`SELECT parent_symbol_id, kind FROM symbols WHERE id = ?`, current).Scan(&parentID, &kind)
		if err != nil {
			return nil
		}
		if isClassLikeKind(kind) {
			id := current
			return &id
		}
		if !parentID.Valid {
			return nil
		}
		current = parentID.Int64
	}
}

func isClassLikeKind(kind string) bool {
	switch kind {
	case string(symbols.KindClass), string(symbols.KindStruct), string(symbols.KindInterface), string(symbols.KindTrait):
		return true
	}
	return false
}

// UpdateLastIndexedAt stamps a repo's last_indexed_at (spec §4.4 step 8).
func UpdateLastIndexedAt(tx *sql.Tx, repoID int64) error {
	_, err := tx.Exec(`UPDATE repositories SET last_indexed_at = ? WHERE id = ?`, nowRFC3339(), repoID)
	return err
}

// --- Query contracts (spec §4.2) ---

var entrypointNames = []string{"main", "index", "app", "server"}

// GetOverview implements get_overview.
func (db *DB) GetOverview(repoID int64) (Overview, error) {
	var ov Overview

	langRows, err := db.conn.Query(`
		SELECT language, COUNT(*) FROM files WHERE repo_id = ?
		GROUP BY language ORDER BY COUNT(*) DESC
	`, repoID)
	if err != nil {
		return ov, errors.NewStorageError("get_overview: languages", err)
	}
	for langRows.Next() {
		var lc LanguageCount
		if err := langRows.Scan(&lc.Language, &lc.Count); err != nil {
			langRows.Close()
			return ov, errors.NewStorageError("get_overview: scan language", err)
		}
		ov.LanguageCounts = append(ov.LanguageCounts, lc)
	}
	langRows.Close()
	if err := langRows.Err(); err != nil {
		return ov, errors.NewStorageError("get_overview: languages iter", err)
	}

	fileRows, err := db.conn.Query(`SELECT rel_path FROM files WHERE repo_id = ?`, repoID)
	if err != nil {
		return ov, errors.NewStorageError("get_overview: dir files", err)
	}
	fileCounts := map[string]int{}
	for fileRows.Next() {
		var relPath string
		if err := fileRows.Scan(&relPath); err != nil {
			fileRows.Close()
			return ov, errors.NewStorageError("get_overview: scan dir file", err)
		}
		fileCounts[path.Dir(relPath)]++
	}
	fileRows.Close()
	if err := fileRows.Err(); err != nil {
		return ov, errors.NewStorageError("get_overview: dir files iter", err)
	}

	dirRows, err := db.conn.Query(`
		SELECT file_rel_path, COUNT(*) AS c FROM symbols WHERE repo_id = ?
		GROUP BY file_rel_path
	`, repoID)
	if err != nil {
		return ov, errors.NewStorageError("get_overview: dirs", err)
	}
	symbolCounts := map[string]int{}
	for dirRows.Next() {
		var relPath string
		var count int
		if err := dirRows.Scan(&relPath, &count); err != nil {
			dirRows.Close()
			return ov, errors.NewStorageError("get_overview: scan dir", err)
		}
		symbolCounts[path.Dir(relPath)] += count
	}
	dirRows.Close()
	if err := dirRows.Err(); err != nil {
		return ov, errors.NewStorageError("get_overview: dirs iter", err)
	}
	ov.TopDirs = topDirCounts(fileCounts, symbolCounts, 20)

	largeRows, err := db.conn.Query(`
		SELECT id, repo_id, file_id, parent_symbol_id, name, kind, COALESCE(signature,''), COALESCE(doc_comment,''),
			start_line, end_line, file_rel_path, name_tokens
		FROM symbols
		WHERE repo_id = ? AND kind IN (?, ?, ?, ?, ?)
		ORDER BY (end_line - start_line) DESC
		LIMIT 10
	`, repoID, string(symbols.KindClass), string(symbols.KindInterface), string(symbols.KindStruct), string(symbols.KindEnum), string(symbols.KindTrait))
	if err != nil {
		return ov, errors.NewStorageError("get_overview: largest symbols", err)
	}
	ov.LargestSymbols, err = scanSymbolRows(largeRows)
	if err != nil {
		return ov, err
	}

	entryRows, err := db.conn.Query(`
		SELECT id, repo_id, file_id, parent_symbol_id, name, kind, COALESCE(signature,''), COALESCE(doc_comment,''),
			start_line, end_line, file_rel_path, name_tokens
		FROM symbols
		WHERE repo_id = ? AND name IN (?, ?, ?, ?)
		LIMIT 5
	`, repoID, entrypointNames[0], entrypointNames[1], entrypointNames[2], entrypointNames[3])
	if err != nil {
		return ov, errors.NewStorageError("get_overview: entrypoints", err)
	}
	ov.EntrypointHits, err = scanSymbolRows(entryRows)
	if err != nil {
		return ov, err
	}

	return ov, nil
}

func topDirCounts(fileCounts, symbolCounts map[string]int, limit int) []DirCount {
	dirs := map[string]bool{}
	for dir := range fileCounts {
		dirs[dir] = true
	}
	for dir := range symbolCounts {
		dirs[dir] = true
	}

	var out []DirCount
	for dir := range dirs {
		out = append(out, DirCount{Dir: dir, FileCount: fileCounts[dir], SymbolCount: symbolCounts[dir]})
	}
	// simple insertion sort by symbol count desc; dir counts are small (<=hundreds)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].SymbolCount > out[j-1].SymbolCount; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func scanSymbolRows(rows *sql.Rows) ([]SymbolRow, error) {
	defer rows.Close()
	var out []SymbolRow
	for rows.Next() {
		var s SymbolRow
		var parentID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.RepoID, &s.FileID, &parentID, &s.Name, &s.Kind, &s.Signature, &s.DocComment,
			&s.StartLine, &s.EndLine, &s.FileRelPath, &s.NameTokens); err != nil {
			return nil, errors.NewStorageError("scan symbol row", err)
		}
		if parentID.Valid {
			id := parentID.Int64
			s.ParentSymbolID = &id
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetFileSymbols implements get_file_symbols: every symbol in relPath,
// ordered by start_line.
func (db *DB) GetFileSymbols(repoID int64, relPath string) ([]SymbolRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, repo_id, file_id, parent_symbol_id, name, kind, COALESCE(signature,''), COALESCE(doc_comment,''),
			start_line, end_line, file_rel_path, name_tokens
		FROM symbols
		WHERE repo_id = ? AND file_rel_path = ?
		ORDER BY start_line ASC
	`, repoID, relPath)
	if err != nil {
		return nil, errors.NewStorageError("get_file_symbols", err)
	}
	return scanSymbolRows(rows)
}

// GetSymbolDetail implements get_symbol_detail, erroring if symbolID
// does not exist.
func (db *DB) GetSymbolDetail(symbolID int64) (SymbolRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, repo_id, file_id, parent_symbol_id, name, kind, COALESCE(signature,''), COALESCE(doc_comment,''),
			start_line, end_line, file_rel_path, name_tokens
		FROM symbols WHERE id = ?
	`, symbolID)
	var s SymbolRow
	var parentID sql.NullInt64
	err := row.Scan(&s.ID, &s.RepoID, &s.FileID, &parentID, &s.Name, &s.Kind, &s.Signature, &s.DocComment,
		&s.StartLine, &s.EndLine, &s.FileRelPath, &s.NameTokens)
	if err == sql.ErrNoRows {
		return SymbolRow{}, errors.NewSymbolNotFoundError(symbolID)
	}
	if err != nil {
		return SymbolRow{}, errors.NewStorageError("get_symbol_detail", err)
	}
	if parentID.Valid {
		id := parentID.Int64
		s.ParentSymbolID = &id
	}
	return s, nil
}

// GetReferences implements get_references: incoming refs to symbolID,
// joined to the from-symbol, ordered by from-file then line.
func (db *DB) GetReferences(symbolID int64) ([]ReferenceWithFrom, error) {
	rows, err := db.conn.Query(`
		SELECT r.id, r.from_symbol_id, r.to_name, r.kind, r.line, r.to_symbol_id,
			s.id, s.repo_id, s.file_id, s.parent_symbol_id, s.name, s.kind, COALESCE(s.signature,''), COALESCE(s.doc_comment,''),
			s.start_line, s.end_line, s.file_rel_path, s.name_tokens
		FROM refs r
		JOIN symbols s ON s.id = r.from_symbol_id
		WHERE r.to_symbol_id = ?
		ORDER BY s.file_rel_path ASC, r.line ASC
	`, symbolID)
	if err != nil {
		return nil, errors.NewStorageError("get_references", err)
	}
	defer rows.Close()

	var out []ReferenceWithFrom
	for rows.Next() {
		var rf ReferenceWithFrom
		var toSymbolID, parentID sql.NullInt64
		if err := rows.Scan(&rf.Ref.ID, &rf.Ref.FromSymbolID, &rf.Ref.ToName, &rf.Ref.Kind, &rf.Ref.Line, &toSymbolID,
			&rf.FromSymbol.ID, &rf.FromSymbol.RepoID, &rf.FromSymbol.FileID, &parentID, &rf.FromSymbol.Name, &rf.FromSymbol.Kind,
			&rf.FromSymbol.Signature, &rf.FromSymbol.DocComment, &rf.FromSymbol.StartLine, &rf.FromSymbol.EndLine,
			&rf.FromSymbol.FileRelPath, &rf.FromSymbol.NameTokens); err != nil {
			return nil, errors.NewStorageError("get_references: scan", err)
		}
		if toSymbolID.Valid {
			id := toSymbolID.Int64
			rf.Ref.ToSymbolID = &id
		}
		if parentID.Valid {
			id := parentID.Int64
			rf.FromSymbol.ParentSymbolID = &id
		}
		out = append(out, rf)
	}
	return out, rows.Err()
}

// GetDependencies implements get_dependencies: outgoing refs from
// symbolID, ordered by kind then target name.
func (db *DB) GetDependencies(symbolID int64) ([]RefRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, from_symbol_id, to_name, kind, line, to_symbol_id
		FROM refs
		WHERE from_symbol_id = ?
		ORDER BY kind ASC, to_name ASC
	`, symbolID)
	if err != nil {
		return nil, errors.NewStorageError("get_dependencies", err)
	}
	defer rows.Close()

	var out []RefRow
	for rows.Next() {
		var r RefRow
		var toSymbolID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.FromSymbolID, &r.ToName, &r.Kind, &r.Line, &toSymbolID); err != nil {
			return nil, errors.NewStorageError("get_dependencies: scan", err)
		}
		if toSymbolID.Valid {
			id := toSymbolID.Int64
			r.ToSymbolID = &id
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetIndexStatus implements get_index_status / index_status.
func (db *DB) GetIndexStatus(absPath string) (IndexStatus, error) {
	var status IndexStatus
	status.RepoPath = absPath

	var repoID int64
	var lastIndexed sql.NullString
	err := db.conn.QueryRow(`SELECT id, last_indexed_at FROM repositories WHERE abs_path = ?`, absPath).Scan(&repoID, &lastIndexed)
	if err == sql.ErrNoRows {
		return status, errors.NewNotIndexedError(absPath)
	}
	if err != nil {
		return status, errors.NewStorageError("get_index_status", err)
	}
	if lastIndexed.Valid {
		v := lastIndexed.String
		status.LastIndexedAt = &v
	}

	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM files WHERE repo_id = ?`, repoID).Scan(&status.TotalFiles); err != nil {
		return status, errors.NewStorageError("get_index_status: files", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM symbols WHERE repo_id = ?`, repoID).Scan(&status.TotalSymbols); err != nil {
		return status, errors.NewStorageError("get_index_status: symbols", err)
	}
	if err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM refs r JOIN symbols s ON s.id = r.from_symbol_id WHERE s.repo_id = ?
	`, repoID).Scan(&status.TotalRefs); err != nil {
		return status, errors.NewStorageError("get_index_status: refs", err)
	}

	rows, err := db.conn.Query(`SELECT language, COUNT(*) FROM files WHERE repo_id = ? GROUP BY language ORDER BY COUNT(*) DESC`, repoID)
	if err != nil {
		return status, errors.NewStorageError("get_index_status: languages", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lc LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return status, errors.NewStorageError("get_index_status: scan language", err)
		}
		status.LanguageCounts = append(status.LanguageCounts, lc)
	}
	return status, rows.Err()
}

// RepoIDForPath looks up a repository's row id by absolute path.
func (db *DB) RepoIDForPath(absPath string) (int64, bool, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM repositories WHERE abs_path = ?`, absPath).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.NewStorageError("repo_id_for_path", err)
	}
	return id, true, nil
}
