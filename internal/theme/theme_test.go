package theme_test

import (
	"strings"
	"testing"

	"github.com/snippress/snippress/internal/theme"
)

func TestStyleSetLastWriteWins(t *testing.T) {
	t.Parallel()

	s := theme.Style{}
	s = s.Set("color", "#111111")
	s = s.Set("font-weight", "bold")
	s = s.Set("color", "#222222")

	if got, _ := s.Get("color"); got != "#222222" {
		t.Fatalf("expected overwritten color, got %q", got)
	}
	// Overwriting keeps the property's original position.
	if got := s.CSS(); got != "color:#222222;font-weight:bold" {
		t.Fatalf("unexpected serialization: %q", got)
	}
}

func TestStyleCSSEmpty(t *testing.T) {
	t.Parallel()

	if got := (theme.Style{}).CSS(); got != "" {
		t.Fatalf("empty style should serialize to empty string, got %q", got)
	}
}

func TestResolveFallsBack(t *testing.T) {
	t.Parallel()

	reg := theme.Builtin()

	tests := []struct {
		name   string
		id     string
		wantID string
	}{
		{name: "known id", id: "monokai", wantID: "monokai"},
		{name: "fallback id itself", id: "toxic", wantID: "toxic"},
		{name: "unknown id", id: "nonexistent", wantID: "toxic"},
		{name: "empty id", id: "", wantID: "toxic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reg.Resolve(tt.id)
			if got == nil {
				t.Fatal("Resolve returned nil")
			}
			if got.Meta.ID != tt.wantID {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.id, got.Meta.ID, tt.wantID)
			}
		})
	}
}

func TestResolveUnknownMatchesFallback(t *testing.T) {
	t.Parallel()

	reg := theme.Builtin()
	if reg.Resolve("nonexistent") != reg.Resolve(reg.FallbackID()) {
		t.Fatal("unknown id must resolve to the designated fallback theme")
	}
}

func TestTokenStyleAbsentClass(t *testing.T) {
	t.Parallel()

	th := theme.Toxic()
	if got := th.TokenStyle("totally-unknown-token"); len(got) != 0 {
		t.Fatalf("unknown class must contribute nothing, got %v", got)
	}
}

func TestToxicThemeShape(t *testing.T) {
	t.Parallel()

	th := theme.Toxic()
	if th.Meta.ID != "toxic" || th.Meta.Name == "" {
		t.Fatalf("unexpected meta: %+v", th.Meta)
	}
	if _, ok := th.Root.Get("background-color"); !ok {
		t.Fatal("root style must declare a background color")
	}
	if _, ok := th.Root.Get("padding"); !ok {
		t.Fatal("root style must declare padding")
	}
	if len(th.Footer) == 0 {
		t.Fatal("footer style must not be empty")
	}

	kw := th.TokenStyle("k")
	if v, ok := kw.Get("color"); !ok || !strings.HasPrefix(v, "#") {
		t.Fatalf("keyword color must be a hex string, got %q", v)
	}
	if v, _ := kw.Get("font-weight"); v != "bold" {
		t.Fatalf("keywords should be bold, got %q", v)
	}
	if v, _ := th.TokenStyle("c1").Get("font-style"); v != "italic" {
		t.Fatalf("comments should be italic, got %q", v)
	}
}

func TestBuiltinRegistryOrder(t *testing.T) {
	t.Parallel()

	themes := theme.Builtin().Themes()
	if len(themes) < 2 {
		t.Fatalf("expected multiple builtin themes, got %d", len(themes))
	}
	if themes[0].Meta.ID != "toxic" {
		t.Fatalf("fallback theme must be listed first, got %q", themes[0].Meta.ID)
	}
}

func TestFromChromaStyleTokens(t *testing.T) {
	t.Parallel()

	th := theme.Builtin().Resolve("github-dark")
	if th.Meta.ID != "github-dark" {
		t.Fatalf("unexpected theme: %q", th.Meta.ID)
	}
	// Keywords are styled in every mainstream chroma style.
	if _, ok := th.TokenStyle("k").Get("color"); !ok {
		t.Fatal("derived theme should style the keyword class")
	}
	// Structural wrapper classes must not leak into the token table.
	for _, class := range []string{"chroma", "line", "cl", "ln"} {
		if len(th.TokenStyle(class)) != 0 {
			t.Fatalf("structural class %q must not be styled as a token", class)
		}
	}
}
