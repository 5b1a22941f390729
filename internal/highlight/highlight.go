// Package highlight wraps the chroma tokenizer behind the small surface the
// materialization pipeline needs: source text plus a language identifier in,
// a class-annotated HTML block out.
package highlight

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter tokenizes source snippets into class-annotated HTML. The
// emitted classes are chroma's standard short names (k, s, c1, ...), which is
// the token-class vocabulary the theme tables are written against.
type Highlighter struct {
	formatter *chromahtml.Formatter
}

// New constructs a highlighter that emits classes rather than inline styles;
// inlining is the materialization engine's job, driven by a theme.
func New() *Highlighter {
	return &Highlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.ClassPrefix(""),
		),
	}
}

// Highlight tokenizes source under the given language and returns the
// annotated HTML block. An empty or unknown language falls back to the plain
// text lexer; tokenization itself is the only failure mode.
func (h *Highlighter) Highlight(source, language string) (string, error) {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("tokenize source: %w", err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, styles.Fallback, iterator); err != nil {
		return "", fmt.Errorf("format tokens: %w", err)
	}
	return buf.String(), nil
}

// Languages returns the sorted lexer names available for the language
// selection control.
func Languages() []string {
	names := lexers.Names(false)
	sort.Strings(names)
	return names
}
