package symbols

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type pythonExtractor struct{}

// NewPythonExtractor returns the extractor for .py/.pyi files.
func NewPythonExtractor() Extractor { return pythonExtractor{} }

func (pythonExtractor) Language() Language   { return LangPython }
func (pythonExtractor) Extensions() []string { return []string{"py", "pyi"} }

var screamingSnakeRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func (e pythonExtractor) Extract(source []byte) ([]*Symbol, error) {
	tree, err := parse(pyGrammar(), source)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()

	var out []*Symbol
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if sym := e.extractStatement(stmt, source); sym != nil {
			out = append(out, sym)
		}
	}
	return out, nil
}

// extractStatement handles one top-level or class-body statement,
// unwrapping decorators to the inner def per spec §4.3.
func (e pythonExtractor) extractStatement(node *sitter.Node, source []byte) *Symbol {
	switch node.Type() {
	case "decorated_definition":
		inner := node.ChildByFieldName("definition")
		if inner == nil {
			inner = childByType(node, "function_definition", "class_definition")
		}
		return e.extractStatement(inner, source)
	case "function_definition":
		return e.extractFunction(node, source)
	case "class_definition":
		return e.extractClass(node, source)
	case "expression_statement":
		return e.extractConstAssignment(node, source)
	default:
		return nil
	}
}

func (e pythonExtractor) extractFunction(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	params := fieldText(node, "parameters", source)
	ret := fieldText(node, "return_type", source)
	body := node.ChildByFieldName("body")
	sym := &Symbol{
		Name:       name,
		Kind:       KindFn,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  strings.TrimSpace(params + " " + ret),
		DocComment: pythonDocstring(body, source),
		References: e.collectBodyRefs(body, source),
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "function_definition" || stmt.Type() == "decorated_definition" {
			if child := e.extractStatement(stmt, source); child != nil {
				sym.Children = append(sym.Children, child)
			}
		}
	}
	return sym
}

func (e pythonExtractor) extractClass(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	body := node.ChildByFieldName("body")
	sym := &Symbol{
		Name:       name,
		Kind:       KindClass,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		DocComment: pythonDocstring(body, source),
	}

	if super := node.ChildByFieldName("superclasses"); super != nil {
		for i := 0; i < int(super.NamedChildCount()); i++ {
			base := super.NamedChild(i)
			if base.Type() == "identifier" {
				sym.References = append(sym.References, Reference{ToName: nodeText(base, source), Kind: RefExtends, Line: lineOf(super)})
			}
		}
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if child := e.extractStatement(stmt, source); child != nil {
			sym.Children = append(sym.Children, child)
		}
	}
	return sym
}

// extractConstAssignment recognizes module/class-level SCREAMING_SNAKE_CASE
// assignments as const symbols.
func (e pythonExtractor) extractConstAssignment(node *sitter.Node, source []byte) *Symbol {
	assign := node.NamedChild(0)
	if assign == nil || (assign.Type() != "assignment" && assign.Type() != "augmented_assignment") {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	name := nodeText(left, source)
	if !screamingSnakeRe.MatchString(name) {
		return nil
	}
	return &Symbol{
		Name:      name,
		Kind:      KindConst,
		StartLine: lineOf(node),
		EndLine:   endLineOf(node),
		Signature: fieldText(assign, "type", source),
	}
}

func (e pythonExtractor) collectBodyRefs(body *sitter.Node, source []byte) []Reference {
	if body == nil {
		return nil
	}
	var refs []Reference
	walkPreOrder(body, func(n, _ *sitter.Node) {
		if n.Type() != "call" {
			return
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return
		}
		refs = append(refs, Reference{ToName: e.callTargetName(fn, source), Kind: RefCall, Line: lineOf(n)})
	})
	return dedupRefs(refs)
}

func (e pythonExtractor) callTargetName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, source)
	case "attribute":
		obj := fn.ChildByFieldName("object")
		attr := fn.ChildByFieldName("attribute")
		return nodeText(obj, source) + "." + nodeText(attr, source)
	default:
		return nodeText(fn, source)
	}
}
