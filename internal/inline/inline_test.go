package inline_test

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/snippress/snippress/internal/inline"
	"github.com/snippress/snippress/internal/theme"
)

// testTheme is a minimal theme: red keywords, bold green tags, padded root.
func testTheme() *theme.Theme {
	return &theme.Theme{
		Meta: theme.Meta{Name: "Test", ID: "test"},
		Root: theme.Style{{Property: "padding", Value: "1rem"}},
		Footer: theme.Style{
			{Property: "font-size", Value: "0.75rem"},
		},
		Tokens: map[string]theme.Style{
			"keyword": {{Property: "color", Value: "#ff0000"}},
			"tag": {
				{Property: "color", Value: "#00ff00"},
				{Property: "font-weight", Value: "bold"},
			},
		},
	}
}

// parseRoot parses an HTML fragment and returns the first element of its body.
func parseRoot(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	if body == nil {
		t.Fatal("no body in parsed fragment")
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	t.Fatal("no element in parsed fragment")
	return nil
}

func renderNode(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("render node: %v", err)
	}
	return buf.String()
}

func TestMaterializeEndToEnd(t *testing.T) {
	t.Parallel()

	root := parseRoot(t, `<pre><code class="keyword">foo</code></pre>`)
	if err := inline.Materialize(root, testTheme(), inline.Options{}); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	want := `<pre style="padding:1rem"><code style="color:#ff0000">foo</code></pre>`
	if got := renderNode(t, root); got != want {
		t.Fatalf("materialized output mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	t.Parallel()

	root := parseRoot(t, `<pre><code class="keyword">foo</code> <span class="tag">bar</span></pre>`)
	th := testTheme()

	if err := inline.Materialize(root, th, inline.Options{}); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	first := renderNode(t, root)

	if err := inline.Materialize(root, th, inline.Options{}); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	second := renderNode(t, root)

	if first != second {
		t.Fatalf("materialization is not idempotent:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestMaterializeNoCrossThemeLeakage(t *testing.T) {
	t.Parallel()

	themeA := testTheme()
	// letter-spacing is declared by theme A only.
	themeA.Tokens["keyword"] = theme.Style{
		{Property: "color", Value: "#ff0000"},
		{Property: "letter-spacing", Value: "0.2em"},
	}
	themeB := testTheme()

	fragment := `<pre><code class="keyword">foo</code></pre>`

	rootA := parseRoot(t, fragment)
	if err := inline.Materialize(rootA, themeA, inline.Options{}); err != nil {
		t.Fatalf("theme A pass: %v", err)
	}
	if !strings.Contains(renderNode(t, rootA), "letter-spacing") {
		t.Fatal("theme A should have contributed letter-spacing")
	}

	rootB := parseRoot(t, fragment)
	if err := inline.Materialize(rootB, themeB, inline.Options{}); err != nil {
		t.Fatalf("theme B pass: %v", err)
	}
	if strings.Contains(renderNode(t, rootB), "letter-spacing") {
		t.Fatal("theme B output leaked a declaration only theme A defines")
	}
}

func TestMaterializeStaleInlineStyleCleared(t *testing.T) {
	t.Parallel()

	// A previous pass (or hostile input) left inline styles behind; the
	// mandatory reset must wipe them before reapplying.
	root := parseRoot(t, `<pre style="margin:2rem"><code style="color:blue">x</code></pre>`)
	if err := inline.Materialize(root, testTheme(), inline.Options{}); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	got := renderNode(t, root)
	if strings.Contains(got, "margin") || strings.Contains(got, "blue") {
		t.Fatalf("stale inline declarations survived the reset: %s", got)
	}
	// The classless code element ends with no style attribute at all.
	if strings.Count(got, "style=") != 1 {
		t.Fatalf("expected only the root to carry a style attribute, got: %s", got)
	}
}

func TestMaterializeUnionSemantics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		classes   string
		wantColor string
	}{
		{name: "tag wins when last", classes: "keyword tag", wantColor: "#00ff00"},
		{name: "keyword wins when last", classes: "tag keyword", wantColor: "#ff0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := parseRoot(t, `<pre><code class="`+tt.classes+`">foo</code></pre>`)
			if err := inline.Materialize(root, testTheme(), inline.Options{}); err != nil {
				t.Fatalf("materialize: %v", err)
			}
			got := renderNode(t, root)
			if !strings.Contains(got, "font-weight:bold") {
				t.Fatalf("union must include font-weight from the tag class: %s", got)
			}
			if !strings.Contains(got, "color:"+tt.wantColor) {
				t.Fatalf("conflicting color must follow class order (want %s): %s", tt.wantColor, got)
			}
		})
	}
}

func TestMaterializeUnknownClassInert(t *testing.T) {
	t.Parallel()

	root := parseRoot(t, `<pre><code class="totally-unknown-token">foo</code></pre>`)
	if err := inline.Materialize(root, testTheme(), inline.Options{}); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	got := renderNode(t, root)
	if want := `<pre style="padding:1rem"><code>foo</code></pre>`; got != want {
		t.Fatalf("unknown class must contribute nothing:\n got: %s\nwant: %s", got, want)
	}
}

func TestMaterializeClassStripping(t *testing.T) {
	t.Parallel()

	t.Run("default strips classes", func(t *testing.T) {
		t.Parallel()
		root := parseRoot(t, `<pre><code class="keyword">a</code><span class="tag other">b</span></pre>`)
		if err := inline.Materialize(root, testTheme(), inline.Options{}); err != nil {
			t.Fatalf("materialize: %v", err)
		}
		if got := renderNode(t, root); strings.Contains(got, "class=") {
			t.Fatalf("no element may retain a class attribute: %s", got)
		}
	})

	t.Run("debug keeps classes", func(t *testing.T) {
		t.Parallel()
		root := parseRoot(t, `<pre><code class="keyword">a</code><span class="tag other">b</span></pre>`)
		if err := inline.Materialize(root, testTheme(), inline.Options{KeepClasses: true}); err != nil {
			t.Fatalf("materialize: %v", err)
		}
		got := renderNode(t, root)
		if !strings.Contains(got, `class="keyword"`) || !strings.Contains(got, `class="tag other"`) {
			t.Fatalf("debug mode must keep descendant classes unchanged: %s", got)
		}
		if !strings.Contains(got, `class="`+inline.RootMarker+`"`) {
			t.Fatalf("debug mode must keep the root marker: %s", got)
		}
	})
}

func TestMaterializeRootStyleExact(t *testing.T) {
	t.Parallel()

	// The root's own token classes are not applied on top of the root style.
	root := parseRoot(t, `<pre class="keyword"><code class="keyword">foo</code></pre>`)
	if err := inline.Materialize(root, testTheme(), inline.Options{}); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	got := renderNode(t, root)
	if !strings.HasPrefix(got, `<pre style="padding:1rem">`) {
		t.Fatalf("root must carry exactly the theme root style: %s", got)
	}
}

func TestMaterializeInvalidRoot(t *testing.T) {
	t.Parallel()

	if err := inline.Materialize(nil, testTheme(), inline.Options{}); err != inline.ErrInvalidRoot {
		t.Fatalf("nil root: got %v, want ErrInvalidRoot", err)
	}

	text := &html.Node{Type: html.TextNode, Data: "foo"}
	if err := inline.Materialize(text, testTheme(), inline.Options{}); err != inline.ErrInvalidRoot {
		t.Fatalf("text root: got %v, want ErrInvalidRoot", err)
	}
}

func TestMaterializeFallbackThemeEquivalence(t *testing.T) {
	t.Parallel()

	reg := theme.Builtin()
	fragment := `<pre class="chroma"><code><span class="k">func</span> <span class="nf">main</span></code></pre>`

	rootUnknown := parseRoot(t, fragment)
	if err := inline.Materialize(rootUnknown, reg.Resolve("nonexistent"), inline.Options{}); err != nil {
		t.Fatalf("materialize with unknown id: %v", err)
	}

	rootFallback := parseRoot(t, fragment)
	if err := inline.Materialize(rootFallback, reg.Resolve(reg.FallbackID()), inline.Options{}); err != nil {
		t.Fatalf("materialize with fallback id: %v", err)
	}

	if renderNode(t, rootUnknown) != renderNode(t, rootFallback) {
		t.Fatal("unknown theme id must render identically to the fallback theme")
	}
}
