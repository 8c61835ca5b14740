package symbols

import "testing"

func TestMarkdownHeadingNesting(t *testing.T) {
	src := []byte(`# Title

## Section A

### Subsection A1

## Section B
`)
	syms, err := NewMarkdownExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "Title" {
		t.Fatalf("unexpected roots: %+v", syms)
	}
	title := syms[0]
	if len(title.Children) != 2 {
		t.Fatalf("want 2 sections under Title, got %d", len(title.Children))
	}
	sectionA := title.Children[0]
	if sectionA.Name != "Section A" || len(sectionA.Children) != 1 {
		t.Fatalf("unexpected section A: %+v", sectionA)
	}
	if sectionA.Children[0].Name != "Subsection A1" {
		t.Fatalf("unexpected subsection: %+v", sectionA.Children[0])
	}
	if title.Children[1].Name != "Section B" {
		t.Fatalf("unexpected section B: %+v", title.Children[1])
	}
}

func TestMarkdownIgnoresFencedCode(t *testing.T) {
	src := []byte("# Title\n\n```\n# not a heading\n```\n")
	syms, err := NewMarkdownExtractor().Extract(src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(syms) != 1 || len(syms[0].Children) != 0 {
		t.Fatalf("expected fenced heading to be ignored, got %+v", syms)
	}
}
