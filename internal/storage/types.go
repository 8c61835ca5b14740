package storage

// Repository is the persisted row for one indexed repository root.
type Repository struct {
	ID            int64
	AbsPath       string
	CreatedAt     string
	LastIndexedAt *string
}

// FileRow is the persisted row for one source file.
type FileRow struct {
	ID            int64
	RepoID        int64
	RelPath       string
	ContentHash   string
	Language      string
	LastIndexedAt string
}

// SymbolRow is the persisted, flattened form of a symbols.Symbol.
type SymbolRow struct {
	ID             int64
	RepoID         int64
	FileID         int64
	ParentSymbolID *int64
	Name           string
	Kind           string
	Signature      string
	DocComment     string
	StartLine      int
	EndLine        int
	FileRelPath    string
	NameTokens     string
}

// RefRow is the persisted form of a reference edge.
type RefRow struct {
	ID           int64
	FromSymbolID int64
	ToName       string
	Kind         string
	Line         int
	ToSymbolID   *int64
}

// Overview is the response shape for get_overview (spec §4.2).
type Overview struct {
	LanguageCounts []LanguageCount
	TopDirs        []DirCount
	LargestSymbols []SymbolRow
	EntrypointHits []SymbolRow
}

// LanguageCount is one row of the get_overview language histogram.
type LanguageCount struct {
	Language string
	Count    int
}

// DirCount is one row of get_overview's top-20-directories-by-symbol-count,
// carrying both the file and symbol counts for that directory.
type DirCount struct {
	Dir         string
	FileCount   int
	SymbolCount int
}

// IndexStatus is the response shape for get_index_status / index_status.
type IndexStatus struct {
	RepoPath       string
	TotalFiles     int
	TotalSymbols   int
	TotalRefs      int
	LanguageCounts []LanguageCount
	LastIndexedAt  *string
}

// ReferenceWithFrom joins a ref row to its owning (from) symbol, the shape
// returned by get_references.
type ReferenceWithFrom struct {
	Ref        RefRow
	FromSymbol SymbolRow
}
