package theme

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// hcl computes a CSS hex color from hue (degrees), chroma and lightness.
// Colors are computed once at theme construction; everything downstream
// treats the resulting strings as opaque.
func hcl(hue, chroma, lightness float64) string {
	return colorful.Hcl(hue, chroma, lightness).Clamped().Hex()
}

// monoStack is the font stack shared by the root style of built-in themes.
const monoStack = `ui-monospace,SFMono-Regular,Menlo,Consolas,monospace`

// Toxic builds the hand-authored fallback theme: acid greens on a near-black
// background with venom-purple accents. Token classes follow the chroma HTML
// formatter's standard short names (k, s, c1, nf, ...).
func Toxic() *Theme {
	var (
		bg       = hcl(135, 0.02, 0.07)
		fg       = hcl(120, 0.20, 0.82)
		dim      = hcl(140, 0.08, 0.45)
		keyword  = hcl(110, 0.70, 0.78)
		str      = hcl(88, 0.62, 0.80)
		number   = hcl(75, 0.75, 0.82)
		function = hcl(100, 0.80, 0.86)
		tag      = hcl(310, 0.55, 0.68)
		attr     = hcl(62, 0.55, 0.78)
		operator = hcl(125, 0.18, 0.62)
		builtin  = hcl(160, 0.45, 0.72)
		errFg    = hcl(25, 0.80, 0.65)
	)

	tokens := make(map[string]Style)
	assign(tokens, Style{{"color", keyword}, {"font-weight", "bold"}},
		"k", "kc", "kd", "kn", "kp", "kr")
	assign(tokens, Style{{"color", builtin}, {"font-weight", "bold"}}, "kt")
	assign(tokens, Style{{"color", str}},
		"s", "s1", "s2", "sa", "sb", "sc", "dl", "sd", "se", "sh", "si", "sx")
	assign(tokens, Style{{"color", hcl(88, 0.62, 0.68)}}, "sr", "ss")
	assign(tokens, Style{{"color", number}},
		"m", "mb", "mf", "mh", "mi", "il", "mo")
	assign(tokens, Style{{"color", dim}, {"font-style", "italic"}},
		"c", "ch", "cm", "c1", "cs", "cp", "cpf")
	assign(tokens, Style{{"color", function}}, "nf", "fm")
	assign(tokens, Style{{"color", tag}}, "nt", "nd")
	assign(tokens, Style{{"color", attr}}, "na", "nv", "no")
	assign(tokens, Style{{"color", builtin}}, "nb", "nc", "nn", "ne", "ni")
	assign(tokens, Style{{"color", operator}}, "o", "ow", "p")
	assign(tokens, Style{{"color", errFg}, {"background-color", hcl(25, 0.15, 0.15)}}, "err")
	assign(tokens, Style{{"color", hcl(120, 0.10, 0.35)}}, "w")

	return &Theme{
		Meta: Meta{Name: "Toxic", ID: "toxic"},
		Root: Style{
			{"background-color", bg},
			{"color", fg},
			{"padding", "1rem"},
			{"border-radius", "6px"},
			{"overflow-x", "auto"},
			{"font-family", monoStack},
			{"font-size", "0.875rem"},
			{"line-height", "1.5"},
		},
		Footer: Style{
			{"color", dim},
			{"font-family", monoStack},
			{"font-size", "0.75rem"},
			{"margin-top", "0.5rem"},
		},
		Tokens: tokens,
	}
}

func assign(tokens map[string]Style, style Style, classes ...string) {
	for _, class := range classes {
		if _, dup := tokens[class]; dup {
			panic(fmt.Sprintf("theme: duplicate token class %q", class))
		}
		tokens[class] = style.clone()
	}
}
