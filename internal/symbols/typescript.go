package symbols

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type typeScriptExtractor struct{}

// NewTypeScriptExtractor returns the extractor for TS/JS/JSX/MJS/CJS files.
func NewTypeScriptExtractor() Extractor { return typeScriptExtractor{} }

func (typeScriptExtractor) Language() Language { return LangTypeScript }
func (typeScriptExtractor) Extensions() []string {
	return []string{"ts", "tsx", "js", "jsx", "mjs", "cjs"}
}

var testWrapperNames = map[string]bool{
	"describe": true, "test": true, "it": true, "fp": true,
	"beforeEach": true, "afterEach": true, "beforeAll": true, "afterAll": true,
}

func (e typeScriptExtractor) Extract(source []byte) ([]*Symbol, error) {
	tree, err := parse(tsGrammar(), source)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()

	var out []*Symbol
	var importRefs []Reference
	var testRefs []Reference
	var importStartLine, importEndLine int

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			refs := e.extractImportRefs(stmt, source)
			if importStartLine == 0 || lineOf(stmt) < importStartLine {
				importStartLine = lineOf(stmt)
			}
			if endLineOf(stmt) > importEndLine {
				importEndLine = endLineOf(stmt)
			}
			importRefs = append(importRefs, refs...)
		case "expression_statement":
			if sym := e.extractTestAggregate(stmt, source); sym != nil {
				testRefs = append(testRefs, sym.References...)
			}
		default:
			if sym := e.extractTopLevel(stmt, source); sym != nil {
				out = append(out, sym)
			}
		}
	}

	if len(importRefs) > 0 {
		out = append([]*Symbol{{
			Name:       "_imports",
			Kind:       KindMod,
			StartLine:  importStartLine,
			EndLine:    importEndLine,
			References: dedupRefs(importRefs),
		}}, out...)
	}

	if len(testRefs) > 0 {
		out = append(out, &Symbol{
			Name:       "_tests",
			Kind:       KindFn,
			StartLine:  1,
			EndLine:    endLineOf(root),
			References: dedupRefs(testRefs),
		})
	}

	return out, nil
}

func dedupRefs(refs []Reference) []Reference {
	seen := map[string]bool{}
	var out []Reference
	for _, r := range refs {
		key := r.ToName + "|" + string(r.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func (e typeScriptExtractor) extractImportRefs(stmt *sitter.Node, source []byte) []Reference {
	var refs []Reference
	line := lineOf(stmt)
	clause := stmt.ChildByFieldName("import_clause")
	if clause == nil {
		clause = childByType(stmt, "import_clause")
	}
	if clause == nil {
		return refs
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			refs = append(refs, Reference{ToName: nodeText(child, source), Kind: RefImport, Line: line})
		case "namespace_import":
			if id := child.NamedChild(0); id != nil {
				refs = append(refs, Reference{ToName: nodeText(id, source), Kind: RefImport, Line: line})
			}
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				name := nodeText(nameNode, source)
				if aliasNode != nil {
					name = nodeText(aliasNode, source)
				}
				refs = append(refs, Reference{ToName: name, Kind: RefImport, Line: line})
			}
		}
	}
	return refs
}

// extractTestAggregate recognizes a top-level expression statement whose
// call target is a known test-wrapper name, and returns a symbol holding
// the deduplicated refs collected by walking the callback body. The
// returned symbol is discarded by the caller except for its References.
func (e typeScriptExtractor) extractTestAggregate(stmt *sitter.Node, source []byte) *Symbol {
	call := stmt.NamedChild(0)
	if call == nil || call.Type() != "call_expression" {
		return nil
	}
	if !e.isTestWrapperCall(call, source) {
		return nil
	}
	var refs []Reference
	e.walkTestWrapper(call, source, &refs)
	return &Symbol{References: refs}
}

func (e typeScriptExtractor) isTestWrapperCall(call *sitter.Node, source []byte) bool {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	return testWrapperNames[nodeText(fn, source)]
}

// walkTestWrapper walks a test-wrapper call's callback argument, collecting
// normal call refs and recursing into any nested wrapper-pattern calls.
func (e typeScriptExtractor) walkTestWrapper(call *sitter.Node, source []byte, refs *[]Reference) {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "arrow_function", "function_expression", "function":
			body := arg.ChildByFieldName("body")
			walkPreOrder(body, func(n, _ *sitter.Node) {
				if n.Type() != "call_expression" {
					return
				}
				e.collectCallRef(n, source, refs)
				if e.isTestWrapperCall(n, source) {
					e.walkTestWrapper(n, source, refs)
				}
			})
		}
	}
}

func (e typeScriptExtractor) collectCallRef(call *sitter.Node, source []byte, refs *[]Reference) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	name := e.callTargetName(fn, source)
	if name != "" {
		*refs = append(*refs, Reference{ToName: name, Kind: RefCall, Line: lineOf(call)})
	}
}

func (e typeScriptExtractor) callTargetName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, source)
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		return nodeText(obj, source) + "." + nodeText(prop, source)
	default:
		return nodeText(fn, source)
	}
}

// extractTopLevel handles one top-level declaration, unwrapping export
// statements per spec §4.3.
func (e typeScriptExtractor) extractTopLevel(node *sitter.Node, source []byte) *Symbol {
	switch node.Type() {
	case "export_statement":
		return e.extractExport(node, source)
	case "function_declaration", "generator_function_declaration":
		return e.extractFunction(node, source)
	case "class_declaration":
		return e.extractClass(node, source)
	case "interface_declaration":
		return e.extractInterface(node, source)
	case "type_alias_declaration":
		return e.extractTypeAlias(node, source)
	case "enum_declaration":
		return e.extractEnum(node, source)
	case "lexical_declaration", "variable_declaration":
		syms := e.extractBindings(node, source)
		if len(syms) == 0 {
			return nil
		}
		// extractTopLevel returns a single symbol, so multiple bindings in
		// one const/let statement (const a = 1, b = 2) collapse under one
		// synthetic parent.
		if len(syms) == 1 {
			return syms[0]
		}
		return &Symbol{Name: "_bindings", Kind: KindMod, StartLine: lineOf(node), EndLine: endLineOf(node), Children: syms}
	case "ambient_declaration":
		if mod := childByType(node, "module", "internal_module"); mod != nil {
			return e.extractDeclareModule(mod, source)
		}
		return nil
	case "module", "internal_module":
		return e.extractDeclareModule(node, source)
	default:
		return nil
	}
}

func (e typeScriptExtractor) extractExport(node *sitter.Node, source []byte) *Symbol {
	// export default <expr>
	if node.ChildByFieldName("value") != nil && hasChildOfText(node, source, "default") {
		return e.extractExportDefault(node, source)
	}

	// export * from './m'
	if star := childByType(node, "*"); star != nil {
		src := node.ChildByFieldName("source")
		target := "?"
		if src != nil {
			target = stripQuotes(nodeText(src, source))
		}
		return &Symbol{
			Name:      "* from " + target,
			Kind:      KindMod,
			StartLine: lineOf(node),
			EndLine:   endLineOf(node),
		}
	}

	// export { A, B as C } from './m'
	if clause := childByType(node, "export_clause"); clause != nil {
		return e.extractNamedExports(node, clause, source)
	}

	// export <declaration>
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration",
			"interface_declaration", "type_alias_declaration", "enum_declaration",
			"lexical_declaration", "variable_declaration":
			return e.extractTopLevel(child, source)
		}
	}
	return nil
}

func hasChildOfText(node *sitter.Node, source []byte, text string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c != nil && nodeText(c, source) == text {
			return true
		}
	}
	return false
}

func (e typeScriptExtractor) extractExportDefault(node *sitter.Node, source []byte) *Symbol {
	expr := node.ChildByFieldName("value")
	if expr == nil {
		expr = node.NamedChild(node.NamedChildCount() - 1)
	}
	sym := &Symbol{Name: "default", Kind: KindFn, StartLine: lineOf(node), EndLine: endLineOf(node)}

	var refs []Reference
	walkPreOrder(expr, func(n, _ *sitter.Node) {
		if n.Type() != "call_expression" {
			return
		}
		e.collectCallRef(n, source, &refs)
		// one extra level of nested callback arguments of any contained call
		args := n.ChildByFieldName("arguments")
		if args == nil {
			return
		}
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() != "arrow_function" && arg.Type() != "function_expression" && arg.Type() != "function" {
				continue
			}
			body := arg.ChildByFieldName("body")
			walkPreOrder(body, func(m, _ *sitter.Node) {
				if m.Type() == "call_expression" {
					e.collectCallRef(m, source, &refs)
				}
			})
		}
	})
	sym.References = dedupRefs(refs)
	return sym
}

func (e typeScriptExtractor) extractNamedExports(node, clause *sitter.Node, source []byte) *Symbol {
	srcNode := node.ChildByFieldName("source")
	var module string
	if srcNode != nil {
		module = stripQuotes(nodeText(srcNode, source))
	}

	var children []*Symbol
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != "export_specifier" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		aliasNode := spec.ChildByFieldName("alias")
		original := nodeText(nameNode, source)
		display := original
		if aliasNode != nil {
			display = nodeText(aliasNode, source)
		}
		sym := &Symbol{Name: display, Kind: KindVar, StartLine: lineOf(spec), EndLine: lineOf(spec)}
		if module != "" {
			sym.References = []Reference{{ToName: original, Kind: RefImport, Line: lineOf(spec)}}
		}
		children = append(children, sym)
	}

	if len(children) == 1 {
		return children[0]
	}
	return &Symbol{Name: "_exports", Kind: KindMod, StartLine: lineOf(node), EndLine: endLineOf(node), Children: children}
}

func (e typeScriptExtractor) extractDeclareModule(node *sitter.Node, source []byte) *Symbol {
	nameNode := node.ChildByFieldName("name")
	name := stripQuotes(nodeText(nameNode, source))
	sym := &Symbol{Name: name, Kind: KindMod, StartLine: lineOf(node), EndLine: endLineOf(node)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if child := e.extractTopLevel(body.NamedChild(i), source); child != nil {
			sym.Children = append(sym.Children, child)
		}
	}
	return sym
}

func (e typeScriptExtractor) extractFunction(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{
		Name:       name,
		Kind:       KindFn,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  e.signature(node, source),
		DocComment: jsDocComment(node, source),
	}
	body := node.ChildByFieldName("body")
	sym.References = e.collectBodyRefs(body, source)
	return sym
}

func (e typeScriptExtractor) signature(node *sitter.Node, source []byte) string {
	params := fieldText(node, "parameters", source)
	ret := fieldText(node, "return_type", source)
	return strings.TrimSpace(params + " " + ret)
}

// collectBodyRefs performs the common "full recursive walk of a body
// node" rule: call/new/instanceof references.
func (e typeScriptExtractor) collectBodyRefs(body *sitter.Node, source []byte) []Reference {
	if body == nil {
		return nil
	}
	var refs []Reference
	walkPreOrder(body, func(n, _ *sitter.Node) {
		switch n.Type() {
		case "call_expression":
			e.collectCallRef(n, source, &refs)
		case "new_expression":
			ctor := n.ChildByFieldName("constructor")
			if ctor != nil {
				refs = append(refs, Reference{ToName: e.callTargetName(ctor, source), Kind: RefCall, Line: lineOf(n)})
			}
		case "binary_expression":
			op := n.ChildByFieldName("operator")
			if op != nil && nodeText(op, source) == "instanceof" {
				right := n.ChildByFieldName("right")
				if right != nil {
					refs = append(refs, Reference{ToName: nodeText(right, source), Kind: RefTypeRef, Line: lineOf(n)})
				}
			}
		}
	})
	return refs
}

func (e typeScriptExtractor) extractClass(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{
		Name:       name,
		Kind:       KindClass,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		DocComment: jsDocComment(node, source),
	}

	if heritage := childByType(node, "class_heritage"); heritage != nil {
		for i := 0; i < int(heritage.NamedChildCount()); i++ {
			clause := heritage.NamedChild(i)
			switch clause.Type() {
			case "extends_clause":
				for j := 0; j < int(clause.NamedChildCount()); j++ {
					target := clause.NamedChild(j)
					if target.Type() == "identifier" || target.Type() == "type_identifier" {
						sym.References = append(sym.References, Reference{ToName: nodeText(target, source), Kind: RefExtends, Line: lineOf(clause)})
					}
				}
			case "implements_clause":
				for j := 0; j < int(clause.NamedChildCount()); j++ {
					target := clause.NamedChild(j)
					if target.Type() == "identifier" || target.Type() == "type_identifier" {
						sym.References = append(sym.References, Reference{ToName: nodeText(target, source), Kind: RefImplements, Line: lineOf(clause)})
					}
				}
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			sym.Children = append(sym.Children, e.extractMethod(member, source))
		case "public_field_definition", "field_definition":
			sym.Children = append(sym.Children, e.extractField(member, source))
		}
	}
	return sym
}

func (e typeScriptExtractor) extractMethod(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	body := node.ChildByFieldName("body")
	return &Symbol{
		Name:       name,
		Kind:       KindMethod,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  e.signature(node, source),
		DocComment: jsDocComment(node, source),
		References: e.collectBodyRefs(body, source),
	}
}

func (e typeScriptExtractor) extractField(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	typ := fieldText(node, "type", source)
	return &Symbol{
		Name:       name,
		Kind:       KindVar,
		StartLine:  lineOf(node),
		EndLine:    endLineOf(node),
		Signature:  typ,
		DocComment: jsDocComment(node, source),
	}
}

func (e typeScriptExtractor) extractInterface(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindInterface, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: jsDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "property_signature":
			sym.Children = append(sym.Children, &Symbol{
				Name: fieldText(member, "name", source), Kind: KindVar,
				StartLine: lineOf(member), EndLine: endLineOf(member),
				Signature: fieldText(member, "type", source),
			})
		case "method_signature":
			sym.Children = append(sym.Children, &Symbol{
				Name: fieldText(member, "name", source), Kind: KindMethod,
				StartLine: lineOf(member), EndLine: endLineOf(member),
				Signature: strings.TrimSpace(fieldText(member, "parameters", source) + " " + fieldText(member, "return_type", source)),
			})
		}
	}
	return sym
}

func (e typeScriptExtractor) extractTypeAlias(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	return &Symbol{
		Name: name, Kind: KindType, StartLine: lineOf(node), EndLine: endLineOf(node),
		Signature: fieldText(node, "value", source), DocComment: jsDocComment(node, source),
	}
}

func (e typeScriptExtractor) extractEnum(node *sitter.Node, source []byte) *Symbol {
	name := fieldText(node, "name", source)
	sym := &Symbol{Name: name, Kind: KindEnum, StartLine: lineOf(node), EndLine: endLineOf(node), DocComment: jsDocComment(node, source)}
	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "enum_assignment" && member.Type() != "property_identifier" {
			continue
		}
		memberName := member
		if member.Type() == "enum_assignment" {
			memberName = member.ChildByFieldName("name")
		}
		sym.Children = append(sym.Children, &Symbol{
			Name: nodeText(memberName, source), Kind: KindConst,
			StartLine: lineOf(member), EndLine: lineOf(member),
		})
	}
	return sym
}

func (e typeScriptExtractor) extractBindings(node *sitter.Node, source []byte) []*Symbol {
	var out []*Symbol
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		name := fieldText(decl, "name", source)
		value := decl.ChildByFieldName("value")
		if value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function") {
			body := value.ChildByFieldName("body")
			out = append(out, &Symbol{
				Name: name, Kind: KindFn, StartLine: lineOf(decl), EndLine: endLineOf(decl),
				Signature:  strings.TrimSpace(fieldText(value, "parameters", source) + " " + fieldText(value, "return_type", source)),
				References: e.collectBodyRefs(body, source),
			})
			continue
		}
		typ := fieldText(decl, "type", source)
		out = append(out, &Symbol{
			Name: name, Kind: KindConst, StartLine: lineOf(decl), EndLine: endLineOf(decl), Signature: typ,
		})
	}
	return out
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
