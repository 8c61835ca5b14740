package symbols

import "testing"

func TestRustEnumVariants(t *testing.T) {
	src := []byte(`/// A shape.
enum Shape {
    Circle,
    Square,
    Triangle,
}
`)
	syms, err := NewRustExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Shape" || syms[0].Kind != KindEnum {
		t.Fatalf("unexpected symbols: %+v", syms)
	}
	if syms[0].DocComment != "A shape." {
		t.Fatalf("unexpected doc comment: %q", syms[0].DocComment)
	}
	if len(syms[0].Children) != 3 {
		t.Fatalf("want 3 variants, got %d", len(syms[0].Children))
	}
	for _, c := range syms[0].Children {
		if c.Kind != KindConst {
			t.Fatalf("expected variant kind const, got %+v", c)
		}
	}
}

func TestRustImplBlockNaming(t *testing.T) {
	src := []byte(`struct Point;

impl Display for Point {
    fn fmt(&self) {}
}
`)
	syms, err := NewRustExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("want 2 symbols, got %d", len(syms))
	}
	impl := syms[1]
	if impl.Name != "Display for Point" || impl.Kind != KindImpl {
		t.Fatalf("unexpected impl symbol: %+v", impl)
	}
}
