package symbols

import "strings"

// extensionDispatch maps a file extension (no leading dot, lowercase) to
// the extractor that owns it, per spec §4.3's table.
var extensionDispatch = map[string]Extractor{}

func register(e Extractor) {
	for _, ext := range e.Extensions() {
		extensionDispatch[ext] = e
	}
}

func init() {
	register(NewTypeScriptExtractor())
	register(NewPythonExtractor())
	register(NewRustExtractor())
	register(NewRubyExtractor())
	register(NewMarkdownExtractor())
}

// ForExtension returns the extractor for a file extension (no leading
// dot), and false if no extractor owns that extension.
func ForExtension(ext string) (Extractor, bool) {
	e, ok := extensionDispatch[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return e, ok
}

// ForPath returns the extractor for a file path, dispatching on its
// extension.
func ForPath(path string) (Extractor, bool) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return nil, false
	}
	return ForExtension(path[idx+1:])
}
