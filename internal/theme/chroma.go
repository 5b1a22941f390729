package theme

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// structural token types carry chroma's wrapper/line plumbing, not syntax
// roles, and are excluded from the derived token table.
var structuralTypes = map[chroma.TokenType]bool{
	chroma.Background:       true,
	chroma.PreWrapper:       true,
	chroma.Line:             true,
	chroma.CodeLine:         true,
	chroma.LineLink:         true,
	chroma.LineTable:        true,
	chroma.LineTableTD:      true,
	chroma.LineHighlight:    true,
	chroma.LineNumbers:      true,
	chroma.LineNumbersTable: true,
}

// FromChromaStyle derives a Theme from a registered chroma style. Each
// standard token type with a CSS class becomes a token-class entry; the
// root style is built from the style's pre-wrapper/background entries plus
// the shared block layout.
func FromChromaStyle(name, id string, style *chroma.Style) *Theme {
	tokens := make(map[string]Style)
	for tokenType, class := range chroma.StandardTypes {
		if class == "" || structuralTypes[tokenType] {
			continue
		}
		decls := parseDeclarations(chromahtml.StyleEntryToCSS(style.Get(tokenType)))
		if len(decls) > 0 {
			tokens[class] = decls
		}
	}

	root := parseDeclarations(chromahtml.StyleEntryToCSS(style.Get(chroma.PreWrapper)))
	if _, ok := root.Get("background-color"); !ok {
		root = parseDeclarations(chromahtml.StyleEntryToCSS(style.Get(chroma.Background)))
	}
	for _, d := range blockLayout() {
		root = root.Set(d.Property, d.Value)
	}

	footer := Style{
		{"font-family", monoStack},
		{"font-size", "0.75rem"},
		{"margin-top", "0.5rem"},
	}
	if fg, ok := root.Get("color"); ok {
		footer = footer.Set("color", fg)
	}

	return &Theme{
		Meta:   Meta{Name: name, ID: id},
		Root:   root,
		Footer: footer,
		Tokens: tokens,
	}
}

func mustFromChromaStyle(name, id string) *Theme {
	style := styles.Get(id)
	if style == nil {
		panic(fmt.Sprintf("theme: chroma style %q not registered", id))
	}
	return FromChromaStyle(name, id, style)
}

func blockLayout() Style {
	return Style{
		{"padding", "1rem"},
		{"border-radius", "6px"},
		{"overflow-x", "auto"},
		{"font-family", monoStack},
		{"font-size", "0.875rem"},
		{"line-height", "1.5"},
	}
}

// parseDeclarations converts chroma's "prop: value; prop: value" CSS text
// into an ordered Style. Malformed segments are skipped.
func parseDeclarations(css string) Style {
	var out Style
	for _, segment := range strings.Split(css, ";") {
		property, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		property = strings.TrimSpace(property)
		value = strings.TrimSpace(value)
		if property == "" || value == "" {
			continue
		}
		out = out.Set(property, value)
	}
	return out
}
