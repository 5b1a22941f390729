// Package theme defines the declarative color themes used to materialize
// highlighted code into inline-styled HTML.
package theme

import "strings"

// Meta identifies a theme. ID is the stable selection key, Name is user-facing.
type Meta struct {
	Name string
	ID   string
}

// Declaration is a single CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Style is an ordered list of declarations. Order matters: serialization must
// be deterministic so that re-materializing with the same theme is
// byte-identical.
type Style []Declaration

// Set returns the style with property set to value. An existing property is
// overwritten in place, keeping its original position, so repeated assignment
// follows last-write-wins without reshuffling the serialized output.
func (s Style) Set(property, value string) Style {
	for i := range s {
		if s[i].Property == property {
			s[i].Value = value
			return s
		}
	}
	return append(s, Declaration{Property: property, Value: value})
}

// Get returns the value for property and whether it is declared.
func (s Style) Get(property string) (string, bool) {
	for _, d := range s {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}

// CSS serializes the style as an inline attribute value: "prop:value" pairs
// joined by semicolons, no trailing semicolon. Empty style yields "".
func (s Style) CSS() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s))
	for _, d := range s {
		parts = append(parts, d.Property+":"+d.Value)
	}
	return strings.Join(parts, ";")
}

// clone returns an independent copy so callers can build on a base style
// without mutating it.
func (s Style) clone() Style {
	return append(Style(nil), s...)
}

// Theme is an immutable bundle of style rules. Tokens maps token-class names
// (an open vocabulary defined by the tokenizer) to declarations; a class with
// no entry simply contributes nothing.
type Theme struct {
	Meta   Meta
	Root   Style
	Footer Style
	Tokens map[string]Style
}

// TokenStyle returns the declared style for a token class, or nil when the
// theme has no rule for it. Absence is a normal, silent case.
func (t *Theme) TokenStyle(class string) Style {
	return t.Tokens[class]
}

// Registry is a fixed, immutable table of themes keyed by id. One entry is
// the designated fallback for unknown ids.
type Registry struct {
	themes   map[string]*Theme
	order    []string
	fallback string
}

// NewRegistry builds a registry with the given fallback theme plus any others.
func NewRegistry(fallback *Theme, others ...*Theme) *Registry {
	r := &Registry{
		themes:   make(map[string]*Theme, 1+len(others)),
		fallback: fallback.Meta.ID,
	}
	r.add(fallback)
	for _, t := range others {
		r.add(t)
	}
	return r
}

func (r *Registry) add(t *Theme) {
	if _, exists := r.themes[t.Meta.ID]; !exists {
		r.order = append(r.order, t.Meta.ID)
	}
	r.themes[t.Meta.ID] = t
}

// Resolve returns the theme registered under id, or the fallback theme when
// id is absent or unrecognized. It never fails.
func (r *Registry) Resolve(id string) *Theme {
	if t, ok := r.themes[id]; ok {
		return t
	}
	return r.themes[r.fallback]
}

// FallbackID returns the id of the designated fallback theme.
func (r *Registry) FallbackID() string {
	return r.fallback
}

// Themes returns all registered themes in registration order, for populating
// a selection control.
func (r *Registry) Themes() []*Theme {
	out := make([]*Theme, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.themes[id])
	}
	return out
}

// Builtin returns the default registry: the hand-authored toxic theme as
// fallback plus themes derived from chroma styles.
func Builtin() *Registry {
	return NewRegistry(
		Toxic(),
		mustFromChromaStyle("GitHub Dark", "github-dark"),
		mustFromChromaStyle("Monokai", "monokai"),
		mustFromChromaStyle("Dracula", "dracula"),
	)
}
