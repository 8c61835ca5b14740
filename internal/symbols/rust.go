package symbols

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type rustExtractor struct{}

// NewRustExtractor returns the extractor for .rs files.
func NewRustExtractor() Extractor { return rustExtractor{} }

func (rustExtractor) Language() Language   { return LangRust }
func (rustExtractor) Extensions() []string { return []string{"rs"} }

func (e rustExtractor) Extract(source []byte) ([]*Symbol, error) {
	tree, err := parse(rustGrammar(), source)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	return e.extractItems(root, source), nil
}

func (e rustExtractor) extractItems(node *sitter.Node, source []byte) []*Symbol {
	var out []*Symbol
	for i := 0; i < int(node.NamedChildCount()); i++ {
		item := node.NamedChild(i)
		if sym := e.extractItem(item, source); sym != nil {
			out = append(out, sym)
		}
	}
	return out
}

func (e rustExtractor) extractItem(node *sitter.Node, source []byte) *Symbol {
	switch node.Type() {
	case "function_item":
		return e.extractFunction(node, source)
	case "struct_item":
		return e.extractStruct(node, source)
	case "enum_item":
		return e.extractEnum(node, source)
	case "trait_item":
		return e.extractTrait(node, source)
	case "impl_item":
		return e.extractImpl(node, source)
	case "mod_item":
		return e.extractMod(node, source)
	case "type_item":
		return e.extractTypeAlias(node, source)
	case "const_item", "static_item":
		return e.extractConst(node, source)
	default:
		return nil
	}
}

func (e rustExtractor) extractFunction(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	params := fieldText(node, "parameters", source)
	ret := fieldText(node, "return_type", source)
	body := node.ChildByFieldName("body")
	return &Symbol{
		Name:       name,
		Kind:       KindFn,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  strings.TrimSpace(params + " -> " + ret),
		DocComment: rustDocComment(node, source),
		References: e.collectBodyRefs(body, source),
	}
}

func (e rustExtractor) extractStruct(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindStruct, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: rustDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		sym.Children = append(sym.Children, &Symbol{
			Name:      fieldText(field, "name", source),
			Kind:      KindVar,
			StartLine: lineOf(field),
			EndLine:   lineOf(field),
			Signature: fieldText(field, "type", source),
		})
	}
	return sym
}

func (e rustExtractor) extractEnum(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindEnum, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: rustDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		variant := body.NamedChild(i)
		if variant.Type() != "enum_variant" {
			continue
		}
		sym.Children = append(sym.Children, &Symbol{
			Name:      fieldText(variant, "name", source),
			Kind:      KindConst,
			StartLine: lineOf(variant),
			EndLine:   endLineOf(variant),
		})
	}
	return sym
}

func (e rustExtractor) extractTrait(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindTrait, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: rustDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "function_signature_item" && member.Type() != "function_item" {
			continue
		}
		sym.Children = append(sym.Children, &Symbol{
			Name:      fieldText(member, "name", source),
			Kind:      KindMethod,
			StartLine: lineOf(member),
			EndLine:   endLineOf(member),
			Signature: strings.TrimSpace(fieldText(member, "parameters", source) + " -> " + fieldText(member, "return_type", source)),
			DocComment: rustDocComment(member, source),
		})
	}
	return sym
}

// extractImpl names the symbol `Type` for an inherent impl, or
// `Trait for Type` for a trait impl, per spec §4.3.
func (e rustExtractor) extractImpl(node *sitter.Node, source []byte) *Symbol {
	typeNode := node.ChildByFieldName("type")
	traitNode := node.ChildByFieldName("trait")
	name := fieldText(node, "type", source)
	if traitNode != nil {
		name = nodeText(traitNode, source) + " for " + nodeText(typeNode, source)
	}
	sym := &Symbol{Name: name, Kind: KindImpl, StartLine: lineOf(node), EndLine: endLineOf(node)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		item := body.NamedChild(i)
		switch item.Type() {
		case "function_item":
			m := e.extractFunction(item, source)
			m.Kind = KindMethod
			sym.Children = append(sym.Children, m)
		case "const_item":
			sym.Children = append(sym.Children, e.extractConst(item, source))
		case "type_item":
			sym.Children = append(sym.Children, e.extractTypeAlias(item, source))
		}
	}
	return sym
}

func (e rustExtractor) extractMod(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindMod, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: rustDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	sym.Children = e.extractItems(body, source)
	return sym
}

func (e rustExtractor) extractTypeAlias(node *sitter.Node, source []byte) *Symbol {
	return &Symbol{
		Name:       fieldText(node, "name", source),
		Kind:       KindType,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  fieldText(node, "type", source),
		DocComment: rustDocComment(node, source),
	}
}

func (e rustExtractor) extractConst(node *sitter.Node, source []byte) *Symbol {
	return &Symbol{
		Name:       fieldText(node, "name", source),
		Kind:       KindConst,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  fieldText(node, "type", source),
		DocComment: rustDocComment(node, source),
	}
}

func (e rustExtractor) collectBodyRefs(body *sitter.Node, source []byte) []Reference {
	if body == nil {
		return nil
	}
	var refs []Reference
	walkPreOrder(body, func(n, _ *sitter.Node) {
		switch n.Type() {
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return
			}
			refs = append(refs, Reference{ToName: e.callTargetName(fn, source), Kind: RefCall, Line: lineOf(n)})
		case "macro_invocation":
			mac := n.ChildByFieldName("macro")
			if mac != nil {
				refs = append(refs, Reference{ToName: nodeText(mac, source) + "!", Kind: RefCall, Line: lineOf(n)})
			}
		}
	})
	return dedupRefs(refs)
}

func (e rustExtractor) callTargetName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, source)
	case "field_expression":
		val := fn.ChildByFieldName("value")
		field := fn.ChildByFieldName("field")
		return nodeText(val, source) + "." + nodeText(field, source)
	case "scoped_identifier":
		return nodeText(fn, source)
	default:
		return nodeText(fn, source)
	}
}
