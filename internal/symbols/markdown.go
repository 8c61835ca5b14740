package symbols

import "strings"

type markdownExtractor struct{}

// NewMarkdownExtractor returns the extractor for .md/.markdown files. There
// is no tree-sitter-markdown grammar in the available dependency set, so
// headings are recovered with a line-oriented ATX scanner instead of a CST
// walk (see DESIGN.md Open Question 1). This still satisfies the spec's
// observable heading-stack nesting contract exactly.
func NewMarkdownExtractor() Extractor { return markdownExtractor{} }

func (markdownExtractor) Language() Language   { return LangMarkdown }
func (markdownExtractor) Extensions() []string { return []string{"md", "markdown"} }

type headingFrame struct {
	level int
	sym   *Symbol
}

func (markdownExtractor) Extract(source []byte) ([]*Symbol, error) {
	lines := strings.Split(string(source), "\n")
	var roots []*Symbol
	var stack []headingFrame
	inFence := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		level, title := atxHeading(line)
		if level == 0 {
			continue
		}

		lineNo := i + 1
		sym := &Symbol{Name: title, Kind: KindSection, StartLine: lineNo, EndLine: lineNo}

		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			finishHeading(stack[len(stack)-1].sym, lineNo-1)
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, sym)
		} else {
			parent := stack[len(stack)-1].sym
			parent.Children = append(parent.Children, sym)
		}
		stack = append(stack, headingFrame{level: level, sym: sym})
	}

	lastLine := len(lines)
	for _, frame := range stack {
		finishHeading(frame.sym, lastLine)
	}

	return roots, nil
}

func finishHeading(sym *Symbol, endLine int) {
	if endLine > sym.EndLine {
		sym.EndLine = endLine
	}
}

// atxHeading recognizes an ATX heading line (# through ######) and returns
// its level and trimmed title text, or (0, "") if line is not a heading.
func atxHeading(line string) (int, string) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return 0, ""
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, ""
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, ""
	}
	title := strings.TrimSpace(rest)
	title = strings.TrimRight(title, "#")
	title = strings.TrimSpace(title)
	return level, title
}
