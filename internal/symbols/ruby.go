package symbols

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

type rubyExtractor struct{}

// NewRubyExtractor returns the extractor for .rb files.
func NewRubyExtractor() Extractor { return rubyExtractor{} }

func (rubyExtractor) Language() Language   { return LangRuby }
func (rubyExtractor) Extensions() []string { return []string{"rb"} }

func (e rubyExtractor) Extract(source []byte) ([]*Symbol, error) {
	tree, err := parse(rubyGrammar(), source)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	return e.extractBody(root, source), nil
}

func (e rubyExtractor) extractBody(node *sitter.Node, source []byte) []*Symbol {
	var out []*Symbol
	for i := 0; i < int(node.NamedChildCount()); i++ {
		stmt := node.NamedChild(i)
		if sym := e.extractStatement(stmt, source); sym != nil {
			out = append(out, sym)
		}
	}
	return out
}

func (e rubyExtractor) extractStatement(node *sitter.Node, source []byte) *Symbol {
	switch node.Type() {
	case "method":
		return e.extractMethod(node, source)
	case "singleton_method":
		return e.extractSingletonMethod(node, source)
	case "class":
		return e.extractClass(node, source)
	case "module":
		return e.extractModule(node, source)
	case "assignment":
		return e.extractConstAssignment(node, source)
	default:
		return nil
	}
}

func (e rubyExtractor) extractMethod(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	params := fieldText(node, "parameters", source)
	body := node.ChildByFieldName("body")
	return &Symbol{
		Name:       name,
		Kind:       KindMethod,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  strings.TrimSpace(params),
		DocComment: rubyDocComment(node, source),
		References: e.collectBodyRefs(body, source),
	}
}

// extractSingletonMethod renders `def self.name` as `obj.name`, per
// spec §4.3 ("rendered obj.name").
func (e rubyExtractor) extractSingletonMethod(node *sitter.Node, source []byte) *Symbol {
	obj := fieldText(node, "object", source)
	name := fieldText(node, "name", source)
	params := fieldText(node, "parameters", source)
	body := node.ChildByFieldName("body")
	return &Symbol{
		Name:       obj + "." + name,
		Kind:       KindMethod,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  strings.TrimSpace(params),
		DocComment: rubyDocComment(node, source),
		References: e.collectBodyRefs(body, source),
	}
}

func (e rubyExtractor) extractClass(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindClass, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: rubyDocComment(node, source)}

	if super := node.ChildByFieldName("superclass"); super != nil {
		sym.References = append(sym.References, Reference{ToName: strings.TrimPrefix(nodeText(super, source), "< "), Kind: RefExtends, Line: lineOf(super)})
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if ref := e.classScopeIncludeRef(stmt, source); ref != nil {
			sym.References = append(sym.References, *ref)
			continue
		}
		if child := e.extractStatement(stmt, source); child != nil {
			sym.Children = append(sym.Children, child)
		}
	}
	return sym
}

// classScopeIncludeRef recognizes a class-body-level `include Foo` or
// `extend Foo` call, which the spec treats as an extends reference.
func (e rubyExtractor) classScopeIncludeRef(node *sitter.Node, source []byte) *Reference {
	if node.Type() != "call" {
		return nil
	}
	call := node
	method := call.ChildByFieldName("method")
	if method == nil {
		return nil
	}
	methodName := nodeText(method, source)
	if methodName != "include" && methodName != "extend" {
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return &Reference{ToName: nodeText(args.NamedChild(0), source), Kind: RefExtends, Line: lineOf(call)}
}

func (e rubyExtractor) extractModule(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindMod, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: rubyDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	sym.Children = e.extractBody(body, source)
	return sym
}

// extractConstAssignment recognizes `FOO = ...` (uppercase-starting
// identifier) at class/module/top-level scope.
func (e rubyExtractor) extractConstAssignment(node *sitter.Node, source []byte) *Symbol {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "constant" {
		return nil
	}
	name := nodeText(left, source)
	if len(name) == 0 || !unicode.IsUpper(rune(name[0])) {
		return nil
	}
	return &Symbol{Name: name, Kind: KindConst, StartLine: lineOf(node), EndLine: endLineOf(node)}
}

func (e rubyExtractor) collectBodyRefs(body *sitter.Node, source []byte) []Reference {
	if body == nil {
		return nil
	}
	var refs []Reference
	walkPreOrder(body, func(n, _ *sitter.Node) {
		if n.Type() != "call" {
			return
		}
		method := n.ChildByFieldName("method")
		if method == nil {
			return
		}
		methodName := nodeText(method, source)
		if methodName == "require" || methodName == "require_relative" {
			args := n.ChildByFieldName("arguments")
			if args != nil && args.NamedChildCount() > 0 {
				target := strings.Trim(nodeText(args.NamedChild(0), source), `"'`)
				refs = append(refs, Reference{ToName: target, Kind: RefImport, Line: lineOf(n)})
			}
			return
		}
		refs = append(refs, Reference{ToName: e.callTargetName(n, method, source), Kind: RefCall, Line: lineOf(n)})
	})
	return dedupRefs(refs)
}

func (e rubyExtractor) callTargetName(call, method *sitter.Node, source []byte) string {
	recv := call.ChildByFieldName("receiver")
	if recv != nil {
		return nodeText(recv, source) + "." + nodeText(method, source)
	}
	return nodeText(method, source)
}
