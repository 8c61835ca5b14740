package mcp

// Tool describes one entry in the tools/list response: name,
// human description, and a JSON-Schema-shaped input contract (spec
// §6's tool-call surface; names and parameters frozen for
// compatibility).
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func strProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func intProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

// GetToolDefinitions returns the ten tools spec §6 names, in table
// order.
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "index_repository",
			Description: "Index (or re-index) a repository and return index stats. Awaits any in-flight background index for the same path, then runs synchronously.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"path": strProp("absolute path to the repository root")},
				"required":   []string{"path"},
			},
		},
		{
			Name:        "get_overview",
			Description: "Return a repository overview: language histogram, top directories by symbol count, largest container symbols, and entrypoint hits.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       strProp("absolute path to the repository root"),
					"max_tokens": intProp("optional response size budget"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "get_file_symbols",
			Description: "Return every symbol in one file, ordered by start line.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       strProp("absolute path to the repository root"),
					"file":       strProp("file path relative to the repository root"),
					"max_tokens": intProp("optional response size budget"),
				},
				"required": []string{"path", "file"},
			},
		},
		{
			Name:        "get_symbol_detail",
			Description: "Return one symbol plus its outgoing calls, incoming callers, and type references.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       strProp("absolute path to the repository root"),
					"symbol_id":  intProp("symbol id returned by an earlier call"),
					"max_tokens": intProp("optional response size budget"),
				},
				"required": []string{"path", "symbol_id"},
			},
		},
		{
			Name:        "search_symbols",
			Description: "Full-text search over symbol names, signatures, and doc comments, ranked best-first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       strProp("absolute path to the repository root"),
					"query":      strProp("FTS5 query syntax"),
					"max_tokens": intProp("optional response size budget"),
				},
				"required": []string{"path", "query"},
			},
		},
		{
			Name:        "get_references",
			Description: "Return all incoming references to a symbol, ordered by from-file then line.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       strProp("absolute path to the repository root"),
					"symbol_id":  intProp("symbol id returned by an earlier call"),
					"max_tokens": intProp("optional response size budget"),
				},
				"required": []string{"path", "symbol_id"},
			},
		},
		{
			Name:        "get_dependencies",
			Description: "Return all outgoing references from a symbol, ordered by kind then target name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       strProp("absolute path to the repository root"),
					"symbol_id":  intProp("symbol id returned by an earlier call"),
					"max_tokens": intProp("optional response size budget"),
				},
				"required": []string{"path", "symbol_id"},
			},
		},
		{
			Name:        "index_status",
			Description: "Return index totals and a language histogram for a repository.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"path": strProp("absolute path to the repository root")},
				"required":   []string{"path"},
			},
		},
		{
			Name:        "list_repos",
			Description: "List every repository recorded in an index database, with its last-indexed time (null if never completed).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"max_tokens": intProp("optional response size budget")},
			},
		},
		{
			Name:        "delete_repos",
			Description: "Delete one or more repositories' indexes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "absolute paths of repositories to remove from the index",
					},
				},
				"required": []string{"paths"},
			},
		},
	}
}
