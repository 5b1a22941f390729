package renderer_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/snippress/snippress/internal/renderer"
	"github.com/snippress/snippress/internal/theme"
)

func testService() *renderer.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	return renderer.NewService(theme.Builtin(), logger)
}

func TestRenderSnippetInlineOnly(t *testing.T) {
	t.Parallel()

	svc := testService()
	snip, err := svc.Render(context.Background(), "package main\n\nfunc main() {}\n", renderer.Options{
		Language: "go",
		ThemeID:  "toxic",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.HasPrefix(snip.HTML, "<pre") {
		t.Fatalf("expected a pre block, got: %s", snip.HTML)
	}
	if strings.Contains(snip.HTML, "class=") {
		t.Fatalf("fragment must not depend on classes: %s", snip.HTML)
	}
	if !strings.Contains(snip.HTML, "style=") {
		t.Fatalf("fragment must carry inline styles: %s", snip.HTML)
	}
	if !strings.Contains(snip.HTML, "func") {
		t.Fatalf("source text missing from fragment: %s", snip.HTML)
	}
	if snip.Theme.ID != "toxic" {
		t.Fatalf("unexpected theme meta: %+v", snip.Theme)
	}
}

func TestRenderUnknownThemeUsesFallback(t *testing.T) {
	t.Parallel()

	svc := testService()
	source := "x = 1\n"

	unknown, err := svc.Render(context.Background(), source, renderer.Options{Language: "python", ThemeID: "nonexistent"})
	if err != nil {
		t.Fatalf("render with unknown theme: %v", err)
	}
	fallback, err := svc.Render(context.Background(), source, renderer.Options{Language: "python", ThemeID: "toxic"})
	if err != nil {
		t.Fatalf("render with fallback theme: %v", err)
	}

	if unknown.HTML != fallback.HTML {
		t.Fatal("unknown theme id must render identically to the fallback theme")
	}
	if unknown.Theme.ID != "toxic" {
		t.Fatalf("resolved theme should be the fallback, got %q", unknown.Theme.ID)
	}
}

func TestRenderAttributionFooter(t *testing.T) {
	t.Parallel()

	svc := testService()
	snip, err := svc.Render(context.Background(), "true\n", renderer.Options{
		Language:    "go",
		Attribution: true,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(snip.HTML, renderer.AttributionURL) {
		t.Fatalf("expected attribution link in fragment: %s", snip.HTML)
	}
	if !strings.Contains(snip.HTML, "styled with snippress") {
		t.Fatalf("expected attribution text in fragment: %s", snip.HTML)
	}

	plain, err := svc.Render(context.Background(), "true\n", renderer.Options{Language: "go"})
	if err != nil {
		t.Fatalf("render without attribution: %v", err)
	}
	if strings.Contains(plain.HTML, renderer.AttributionURL) {
		t.Fatal("attribution must be opt-in")
	}
}

func TestRenderKeepClasses(t *testing.T) {
	t.Parallel()

	svc := testService()
	snip, err := svc.Render(context.Background(), "package main\n", renderer.Options{
		Language:    "go",
		KeepClasses: true,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(snip.HTML, `class="kn"`) {
		t.Fatalf("debug mode must keep token classes: %s", snip.HTML)
	}
	if !strings.Contains(snip.HTML, "style=") {
		t.Fatalf("debug mode still materializes styles: %s", snip.HTML)
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	svc := testService()
	opts := renderer.Options{Language: "go", ThemeID: "github-dark"}
	source := "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(42) }\n"

	first, err := svc.Render(context.Background(), source, opts)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := svc.Render(context.Background(), source, opts)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first.HTML != second.HTML {
		t.Fatal("rendering the same input twice must be byte-identical")
	}
}

func TestRenderMarkdownDocument(t *testing.T) {
	t.Parallel()

	svc := testService()
	source := "---\ntitle: Example Doc\n---\n\n# Hello\n\nSome text.\n\n```go\npackage main\n```\n"

	snip, err := svc.Render(context.Background(), source, renderer.Options{
		Markdown: true,
		ThemeID:  "toxic",
	})
	if err != nil {
		t.Fatalf("render markdown: %v", err)
	}

	if snip.Title != "Example Doc" {
		t.Fatalf("expected frontmatter title, got %q", snip.Title)
	}
	if !strings.Contains(snip.HTML, "<h1") {
		t.Fatalf("expected heading in document: %s", snip.HTML)
	}
	if strings.Contains(snip.HTML, `class="chroma"`) {
		t.Fatalf("code blocks must be materialized, found chroma class: %s", snip.HTML)
	}
	if !strings.Contains(snip.HTML, `<pre style=`) {
		t.Fatalf("expected inline-styled code block: %s", snip.HTML)
	}
	if !strings.Contains(snip.HTML, "package") {
		t.Fatalf("code content missing: %s", snip.HTML)
	}
}
