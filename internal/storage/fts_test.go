package storage

import (
	"database/sql"
	"testing"

	"github.com/rijuma/ctxhelpr/internal/symbols"
)

func seedSearchFixture(t *testing.T, db *DB) int64 {
	t.Helper()
	repoID, err := db.EnsureRepo("/repo/search")
	if err != nil {
		t.Fatalf("ensure repo: %v", err)
	}
	fileID := seedFile(t, db, repoID, "util.ts", "typescript")

	fns := []*symbols.Symbol{
		{Name: "parseConfig", Kind: symbols.KindFn, Signature: "parseConfig(path: string): Config", StartLine: 1, EndLine: 5},
		{Name: "UserRepository", Kind: symbols.KindClass, StartLine: 7, EndLine: 20},
		{Name: "MAX_RETRIES", Kind: symbols.KindConst, StartLine: 22, EndLine: 22},
	}
	err = db.WithTx(func(tx *sql.Tx) error {
		for _, fn := range fns {
			if _, err := InsertSymbolTree(tx, repoID, fileID, "util.ts", nil, fn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed symbols: %v", err)
	}
	if err := db.Rebuild(); err != nil {
		t.Fatalf("rebuild fts: %v", err)
	}
	return repoID
}

func TestSearchSymbolsBarewordMatchesExactToken(t *testing.T) {
	db := openTestDB(t)
	repoID := seedSearchFixture(t, db)

	hits, err := db.SearchSymbols(repoID, "parseConfig", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "parseConfig" {
		t.Fatalf("expected exactly one hit for parseConfig, got %+v", hits)
	}
}

func TestSearchSymbolsPrefixOperatorMatchesViaNameTokens(t *testing.T) {
	db := openTestDB(t)
	repoID := seedSearchFixture(t, db)

	hits, err := db.SearchSymbols(repoID, "repo*", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.Name == "UserRepository" {
			found = true
		}
	}
	if !found {
		t.Fatalf(`expected "repo*" to match UserRepository via name_tokens, got %+v`, hits)
	}
}

func TestSearchSymbolsMatchesSnakeCaseSubtoken(t *testing.T) {
	db := openTestDB(t)
	repoID := seedSearchFixture(t, db)

	hits, err := db.SearchSymbols(repoID, "retries", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "MAX_RETRIES" {
		t.Fatalf(`expected "retries" to match MAX_RETRIES via name_tokens, got %+v`, hits)
	}
}

func TestSearchSymbolsEmptyQueryReturnsNoHits(t *testing.T) {
	db := openTestDB(t)
	repoID := seedSearchFixture(t, db)

	hits, err := db.SearchSymbols(repoID, "   ", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if hits != nil {
		t.Fatalf("expected nil hits for blank query, got %+v", hits)
	}
}
