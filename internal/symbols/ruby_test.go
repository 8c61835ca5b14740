package symbols

import "testing"

func TestRubyClassIncludeAndRequire(t *testing.T) {
	src := []byte(`require "json"

class Widget
  include Comparable

  def render
    to_json
  end
end
`)
	syms, err := NewRubyExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Widget" {
		t.Fatalf("unexpected symbols: %+v", syms)
	}
	widget := syms[0]
	var included bool
	for _, r := range widget.References {
		if r.ToName == "Comparable" && r.Kind == RefExtends {
			included = true
		}
	}
	if !included {
		t.Fatalf("expected include Comparable as extends ref, got %+v", widget.References)
	}
	if len(widget.Children) != 1 || widget.Children[0].Name != "render" {
		t.Fatalf("unexpected children: %+v", widget.Children)
	}
}

func TestRubySingletonMethodRendering(t *testing.T) {
	src := []byte(`class Factory
  def self.build
  end
end
`)
	syms, err := NewRubyExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	factory := syms[0]
	if len(factory.Children) != 1 || factory.Children[0].Name != "self.build" {
		t.Fatalf("unexpected children: %+v", factory.Children)
	}
}
