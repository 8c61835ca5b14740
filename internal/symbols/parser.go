package symbols

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// parse runs a tree-sitter parse of source against the given grammar and
// returns the resulting *sitter.Tree; callers take the root node from it.
func parse(lang *sitter.Language, source []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return p.ParseCtx(context.Background(), nil, source)
}

func tsGrammar() *sitter.Language    { return typescript.GetLanguage() }
func pyGrammar() *sitter.Language    { return python.GetLanguage() }
func rustGrammar() *sitter.Language  { return rust.GetLanguage() }
func rubyGrammar() *sitter.Language  { return ruby.GetLanguage() }

// childByType returns the first direct child of node whose type is
// contained in types, or nil.
func childByType(node *sitter.Node, types ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		if _, ok := set[c.Type()]; ok {
			return c
		}
	}
	return nil
}

func fieldText(node *sitter.Node, field string, source []byte) string {
	c := node.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return string(source[c.StartByte():c.EndByte()])
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkPreOrder visits every node in node's subtree (node included),
// calling visit(n, parent). The teacher's extractor walks trees the same
// way: a pre-order traversal with explicit parent tracking rather than a
// mutable cursor.
func walkPreOrder(node *sitter.Node, visit func(n, parent *sitter.Node)) {
	var walk func(n, parent *sitter.Node)
	walk = func(n, parent *sitter.Node) {
		if n == nil {
			return
		}
		visit(n, parent)
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), n)
		}
	}
	walk(node, nil)
}

// findNodes collects every descendant node (node included) whose type is
// in types, pre-order.
func findNodes(node *sitter.Node, types ...string) []*sitter.Node {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	var out []*sitter.Node
	walkPreOrder(node, func(n, _ *sitter.Node) {
		if _, ok := set[n.Type()]; ok {
			out = append(out, n)
		}
	})
	return out
}

func lineOf(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Row) + 1
}

func endLineOf(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.EndPoint().Row) + 1
}
