// Package tokenize splits programming identifiers into the subwords a
// human would say, for use as FTS index terms (spec §4.1).
package tokenize

import "strings"

// Identifier splits name into lowercased space-separated subwords and
// appends the lowercased original identifier as a trailing extra token
// (unless it already equals the joined tokens). Empty names return "".
func Identifier(name string) string {
	if name == "" {
		return ""
	}

	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch r {
		case '_', '-', '.', ' ':
			flush()
			continue
		}

		if isUpper(r) {
			prevLower := i > 0 && isLower(runes[i-1])
			nextLower := i+1 < len(runes) && isLower(runes[i+1])
			if prevLower || nextLower {
				flush()
			}
		}

		current.WriteRune(toLower(r))
	}
	flush()

	joined := strings.Join(words, " ")
	lowerOriginal := strings.ToLower(name)

	if joined == lowerOriginal {
		return joined
	}
	if joined == "" {
		return lowerOriginal
	}
	return joined + " " + lowerOriginal
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

func toLower(r rune) rune {
	if isUpper(r) {
		return r + ('a' - 'A')
	}
	return r
}
