package symbols

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// jsDocComment returns the text of a JSDoc block (/** ... */) immediately
// preceding node, with the surrounding /** */ and leading " * " markers
// stripped, or "" if there is none.
func jsDocComment(node *sitter.Node, source []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := nodeText(prev, source)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return stripBlockCommentMarkers(text)
}

func stripBlockCommentMarkers(text string) string {
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")
	lines := strings.Split(text, "\n")
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// rustDocComment walks backward over a contiguous run of `///` line
// comments immediately preceding node and returns their joined, stripped
// text, or "" if there is none.
func rustDocComment(node *sitter.Node, source []byte) string {
	var lines []string
	cur := node.PrevSibling()
	for cur != nil && cur.Type() == "line_comment" {
		text := nodeText(cur, source)
		if !strings.HasPrefix(text, "///") {
			break
		}
		lines = append([]string{strings.TrimSpace(strings.TrimPrefix(text, "///"))}, lines...)
		cur = cur.PrevSibling()
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// rubyDocComment walks backward over a contiguous run of `#` comments
// immediately preceding node and returns their joined, stripped text.
func rubyDocComment(node *sitter.Node, source []byte) string {
	var lines []string
	cur := node.PrevSibling()
	for cur != nil && cur.Type() == "comment" {
		text := nodeText(cur, source)
		lines = append([]string{strings.TrimSpace(strings.TrimPrefix(text, "#"))}, lines...)
		cur = cur.PrevSibling()
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// pythonDocstring returns the text of the first statement of body if it
// is a triple-quoted string expression statement, with the quotes
// stripped, or "" otherwise.
func pythonDocstring(body *sitter.Node, source []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	strNode := first.NamedChild(0)
	if strNode == nil || strNode.Type() != "string" {
		return ""
	}
	text := nodeText(strNode, source)
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(text, q) {
			text = strings.TrimPrefix(text, q)
			text = strings.TrimSuffix(text, q)
			return strings.TrimSpace(text)
		}
	}
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}
