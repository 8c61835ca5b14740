package symbols

import "testing"

func TestTypeScriptExtractFunction(t *testing.T) {
	src := []byte(`/**
 * Adds two numbers.
 */
function add(a: number, b: number): number {
  return a + b;
}
`)
	syms, err := NewTypeScriptExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 {
		t.Fatalf("want 1 top-level symbol, got %d", len(syms))
	}
	fn := syms[0]
	if fn.Name != "add" || fn.Kind != KindFn {
		t.Fatalf("unexpected symbol: %+v", fn)
	}
	if fn.DocComment != "Adds two numbers." {
		t.Fatalf("unexpected doc comment: %q", fn.DocComment)
	}
}

func TestTypeScriptExportDefaultCallbackRefs(t *testing.T) {
	src := []byte(`export default fp(async function (app) {
  await loadConfig(app);
});
`)
	syms, err := NewTypeScriptExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "default" {
		t.Fatalf("unexpected symbols: %+v", syms)
	}
	var names []string
	for _, r := range syms[0].References {
		names = append(names, r.ToName)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["fp"] || !found["loadConfig"] {
		t.Fatalf("expected fp and loadConfig refs, got %v", names)
	}
}

func TestTypeScriptClassExtendsImplements(t *testing.T) {
	src := []byte(`class Server extends Base implements Runnable {
  start() {
    this.listen();
  }
}
`)
	syms, err := NewTypeScriptExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Server" {
		t.Fatalf("unexpected symbols: %+v", syms)
	}
	cls := syms[0]
	var extends, impl bool
	for _, r := range cls.References {
		if r.Kind == RefExtends && r.ToName == "Base" {
			extends = true
		}
		if r.Kind == RefImplements && r.ToName == "Runnable" {
			impl = true
		}
	}
	if !extends || !impl {
		t.Fatalf("missing extends/implements refs: %+v", cls.References)
	}
	if len(cls.Children) != 1 || cls.Children[0].Name != "start" {
		t.Fatalf("unexpected children: %+v", cls.Children)
	}
	var calledListen bool
	for _, r := range cls.Children[0].References {
		if r.ToName == "this.listen" && r.Kind == RefCall {
			calledListen = true
		}
	}
	if !calledListen {
		t.Fatalf("expected this.listen call ref, got %+v", cls.Children[0].References)
	}
}
