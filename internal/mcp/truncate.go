package mcp

import (
	"encoding/json"

	"github.com/rijuma/ctxhelpr/internal/config"
	"github.com/rijuma/ctxhelpr/internal/storage"
)

// truncateString cuts s to at most n runes, appending an ellipsis
// marker when it had to cut. n<=0 means "no limit".
func truncateString(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func truncateSymbolRow(s *storage.SymbolRow, cfg config.Config) {
	s.Signature = truncateString(s.Signature, cfg.Output.TruncateSignatures)
	s.DocComment = truncateString(s.DocComment, cfg.Output.TruncateDocComments)
}

func truncateSymbolRows(rows []storage.SymbolRow, cfg config.Config) {
	for i := range rows {
		truncateSymbolRow(&rows[i], cfg)
	}
}

// approxTokens estimates token count the way most tokenizers land in
// practice for source-adjacent text: about 4 bytes per token.
func approxTokens(data []byte) int {
	return (len(data) + 3) / 4
}

// applyMaxTokens enforces the output.max_tokens budget (spec §6):
// requestMaxTokens overrides the repo's configured default when set.
// A response over budget is replaced with a truncated JSON preview
// plus a flag so the caller knows to narrow its query.
func applyMaxTokens(payload interface{}, requestMaxTokens *int, cfg config.Config) interface{} {
	limit := cfg.Output.MaxTokens
	if requestMaxTokens != nil {
		limit = requestMaxTokens
	}
	if limit == nil || *limit <= 0 {
		return payload
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return payload
	}
	if approxTokens(data) <= *limit {
		return payload
	}

	maxBytes := *limit * 4
	if maxBytes > len(data) {
		maxBytes = len(data)
	}
	return map[string]interface{}{
		"truncated":  true,
		"max_tokens": *limit,
		"preview":    string(data[:maxBytes]),
	}
}
