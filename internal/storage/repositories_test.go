package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rijuma/ctxhelpr/internal/symbols"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedFile(t *testing.T, db *DB, repoID int64, relPath, lang string) int64 {
	t.Helper()
	var fileID int64
	err := db.WithTx(func(tx *sql.Tx) error {
		id, err := UpsertFile(tx, repoID, relPath, "hash1", lang)
		fileID = id
		return err
	})
	if err != nil {
		t.Fatalf("seed file: %v", err)
	}
	return fileID
}

func TestEnsureRepoIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	id1, err := db.EnsureRepo("/repo/a")
	if err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	id2, err := db.EnsureRepo("/repo/a")
	if err != nil {
		t.Fatalf("ensure repo again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id, got %d and %d", id1, id2)
	}
}

func TestIsRepoIndexedFalseUntilStamped(t *testing.T) {
	db := openTestDB(t)
	repoID, err := db.EnsureRepo("/repo/a")
	if err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	indexed, err := db.IsRepoIndexed("/repo/a")
	if err != nil {
		t.Fatalf("is indexed: %v", err)
	}
	if indexed {
		t.Fatal("expected not indexed before last_indexed_at is stamped")
	}

	if err := db.WithTx(func(tx *sql.Tx) error { return UpdateLastIndexedAt(tx, repoID) }); err != nil {
		t.Fatalf("stamp: %v", err)
	}
	indexed, err = db.IsRepoIndexed("/repo/a")
	if err != nil {
		t.Fatalf("is indexed: %v", err)
	}
	if !indexed {
		t.Fatal("expected indexed after stamping last_indexed_at")
	}
}

func TestInsertSymbolTreeAndResolveReferences(t *testing.T) {
	db := openTestDB(t)
	repoID, err := db.EnsureRepo("/repo/a")
	if err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	fileID := seedFile(t, db, repoID, "server.ts", "typescript")

	class := &symbols.Symbol{
		Name: "Server", Kind: symbols.KindClass, StartLine: 1, EndLine: 5,
		Children: []*symbols.Symbol{
			{
				Name: "start", Kind: symbols.KindMethod, StartLine: 2, EndLine: 4,
				References: []symbols.Reference{{ToName: "this.listen", Kind: symbols.RefCall, Line: 3}},
			},
			{Name: "listen", Kind: symbols.KindMethod, StartLine: 5, EndLine: 5},
		},
	}

	err = db.WithTx(func(tx *sql.Tx) error {
		if _, err := InsertSymbolTree(tx, repoID, fileID, "server.ts", nil, class); err != nil {
			return err
		}
		return ResolveReferences(tx, repoID)
	})
	if err != nil {
		t.Fatalf("insert+resolve: %v", err)
	}

	symbolsOut, err := db.GetFileSymbols(repoID, "server.ts")
	if err != nil {
		t.Fatalf("get file symbols: %v", err)
	}
	if len(symbolsOut) != 3 {
		t.Fatalf("want 3 symbols (class + 2 methods), got %d: %+v", len(symbolsOut), symbolsOut)
	}

	var startID, listenID int64
	for _, s := range symbolsOut {
		switch s.Name {
		case "start":
			startID = s.ID
		case "listen":
			listenID = s.ID
		}
	}
	if startID == 0 || listenID == 0 {
		t.Fatalf("expected to find start and listen symbols, got %+v", symbolsOut)
	}

	deps, err := db.GetDependencies(startID)
	if err != nil {
		t.Fatalf("get dependencies: %v", err)
	}
	if len(deps) != 1 || deps[0].ToSymbolID == nil || *deps[0].ToSymbolID != listenID {
		t.Fatalf("expected start's this.listen ref resolved to listen's id, got %+v", deps)
	}

	refs, err := db.GetReferences(listenID)
	if err != nil {
		t.Fatalf("get references: %v", err)
	}
	if len(refs) != 1 || refs[0].FromSymbol.ID != startID {
		t.Fatalf("expected listen's incoming ref to come from start, got %+v", refs)
	}
}

func TestGetSymbolDetailUnknownIDErrors(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetSymbolDetail(999999)
	if err == nil {
		t.Fatal("expected error for unknown symbol id")
	}
}

func TestGetOverviewGroupsLanguagesAndEntrypoints(t *testing.T) {
	db := openTestDB(t)
	repoID, err := db.EnsureRepo("/repo/a")
	if err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	fileID := seedFile(t, db, repoID, "main.go.ts", "typescript")

	mainFn := &symbols.Symbol{Name: "main", Kind: symbols.KindFn, StartLine: 1, EndLine: 10}
	err = db.WithTx(func(tx *sql.Tx) error {
		_, err := InsertSymbolTree(tx, repoID, fileID, "main.go.ts", nil, mainFn)
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	overview, err := db.GetOverview(repoID)
	if err != nil {
		t.Fatalf("get overview: %v", err)
	}
	if len(overview.LanguageCounts) != 1 || overview.LanguageCounts[0].Language != "typescript" {
		t.Fatalf("expected one typescript language row, got %+v", overview.LanguageCounts)
	}
	found := false
	for _, s := range overview.EntrypointHits {
		if s.Name == "main" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected main to appear in entrypoint hits, got %+v", overview.EntrypointHits)
	}
}

func TestDeleteFileCascadesSymbolsAndRefs(t *testing.T) {
	db := openTestDB(t)
	repoID, err := db.EnsureRepo("/repo/a")
	if err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	fileID := seedFile(t, db, repoID, "a.py", "python")

	fn := &symbols.Symbol{Name: "f", Kind: symbols.KindFn, StartLine: 1, EndLine: 2}
	var symID int64
	err = db.WithTx(func(tx *sql.Tx) error {
		id, err := InsertSymbolTree(tx, repoID, fileID, "a.py", nil, fn)
		symID = id
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := db.WithTx(func(tx *sql.Tx) error { return DeleteFile(tx, fileID) }); err != nil {
		t.Fatalf("delete file: %v", err)
	}

	if _, err := db.GetSymbolDetail(symID); err == nil {
		t.Fatal("expected symbol to be gone after cascading file delete")
	}
}
