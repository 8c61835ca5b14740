// Package symbols extracts symbol and reference trees from source files
// using tree-sitter concrete syntax trees (spec §4.3).
package symbols

// Kind enumerates the symbol kinds the storage layer persists.
type Kind string

const (
	KindFn        Kind = "fn"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
	KindTrait     Kind = "trait"
	KindMod       Kind = "mod"
	KindConst     Kind = "const"
	KindVar       Kind = "var"
	KindImpl      Kind = "impl"
	KindSection   Kind = "section"
)

// RefKind enumerates reference edge kinds.
type RefKind string

const (
	RefCall       RefKind = "call"
	RefImport     RefKind = "import"
	RefTypeRef    RefKind = "type_ref"
	RefExtends    RefKind = "extends"
	RefImplements RefKind = "implements"
)

// Reference is a directed, possibly-unresolved edge from the owning
// symbol to another name.
type Reference struct {
	ToName string
	Kind   RefKind
	Line   int // 1-based
}

// Symbol is one node of the tree extracted from a file. Children form a
// tree within the file; References are outgoing edges from this symbol.
type Symbol struct {
	Name       string
	Kind       Kind
	Signature  string
	DocComment string
	StartLine  int
	EndLine    int
	Children   []*Symbol
	References []Reference
}

// Language is the detected-language tag recorded on the File row.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangMarkdown   Language = "markdown"
)

// Extractor is implemented by each language's symbol extractor.
type Extractor interface {
	// Language returns the language tag recorded for files this
	// extractor owns.
	Language() Language
	// Extensions returns the file extensions (without leading dot) this
	// extractor owns.
	Extensions() []string
	// Extract parses source and returns the top-level symbol forest.
	Extract(source []byte) ([]*Symbol, error)
}
