// Package renderer turns source snippets into paste-ready, inline-styled
// HTML fragments under a selected theme.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	goldmarkmeta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/anchor"

	"github.com/snippress/snippress/internal/highlight"
	"github.com/snippress/snippress/internal/inline"
	"github.com/snippress/snippress/internal/theme"
)

// AttributionURL is the link carried by the optional footer element.
const AttributionURL = "https://github.com/snippress/snippress"

// Options select how a snippet is rendered.
type Options struct {
	// Language is the tokenizer language identifier. Empty or unknown values
	// fall back to plain text.
	Language string
	// ThemeID selects the theme; unknown ids resolve to the fallback theme.
	ThemeID string
	// Markdown treats the source as a markdown document whose fenced code
	// blocks are highlighted and materialized.
	Markdown bool
	// Attribution appends a footer element linking back to the project,
	// styled with the theme's footer style.
	Attribution bool
	// KeepClasses retains token classes next to the inline styles, for theme
	// authoring. Must stay off for shipped artifacts.
	KeepClasses bool
}

// Snippet is a rendered, materialized fragment.
type Snippet struct {
	HTML     string
	Title    string // frontmatter title in markdown mode, else empty
	Theme    theme.Meta
	Language string
}

// Service renders snippets. It holds no per-render state: every call
// tokenizes a fresh tree and materializes it in one pass.
type Service struct {
	highlighter *highlight.Highlighter
	themes      *theme.Registry
	md          goldmark.Markdown
	logger      *slog.Logger
}

// NewService constructs a renderer over the given theme registry.
// If logger is nil, the default slog logger is used.
func NewService(themes *theme.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			goldmarkmeta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.ClassPrefix(""),
				),
			),
			&anchor.Extender{Position: anchor.After},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithXHTML(),
		),
	)

	return &Service{
		highlighter: highlight.New(),
		themes:      themes,
		md:          md,
		logger:      logger.With("component", "renderer"),
	}
}

// Themes exposes the registry for selection controls.
func (s *Service) Themes() *theme.Registry {
	return s.themes
}

// Render tokenizes source and materializes the result under the selected
// theme. The returned fragment depends on no stylesheet or class names.
func (s *Service) Render(ctx context.Context, source string, opts Options) (Snippet, error) {
	th := s.themes.Resolve(opts.ThemeID)

	if opts.Markdown {
		return s.renderMarkdown(ctx, source, th, opts)
	}
	return s.renderSnippet(ctx, source, th, opts)
}

func (s *Service) renderSnippet(ctx context.Context, source string, th *theme.Theme, opts Options) (Snippet, error) {
	raw, err := s.highlighter.Highlight(source, opts.Language)
	if err != nil {
		return Snippet{}, fmt.Errorf("highlight snippet: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Snippet{}, fmt.Errorf("parse highlighted block: %w", err)
	}

	block := doc.Find("pre").First()
	if block.Length() == 0 {
		return Snippet{}, fmt.Errorf("highlighter produced no block for language %q", opts.Language)
	}

	if err := inline.Materialize(block.Nodes[0], th, inline.Options{KeepClasses: opts.KeepClasses}); err != nil {
		return Snippet{}, fmt.Errorf("materialize block: %w", err)
	}

	markup, err := goquery.OuterHtml(block)
	if err != nil {
		return Snippet{}, fmt.Errorf("serialize block: %w", err)
	}
	if opts.Attribution {
		markup += "\n" + footerHTML(th)
	}

	s.logger.DebugContext(ctx, "rendered snippet",
		slog.String("language", opts.Language),
		slog.String("theme", th.Meta.ID),
		slog.Int("bytes", len(markup)),
	)

	return Snippet{HTML: markup, Theme: th.Meta, Language: opts.Language}, nil
}

func (s *Service) renderMarkdown(ctx context.Context, source string, th *theme.Theme, opts Options) (Snippet, error) {
	parserCtx := parser.NewContext()
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(source), &buf, parser.WithContext(parserCtx)); err != nil {
		return Snippet{}, fmt.Errorf("render markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return Snippet{}, fmt.Errorf("parse rendered markdown: %w", err)
	}

	var materializeErr error
	doc.Find("pre.chroma").Each(func(_ int, block *goquery.Selection) {
		if err := inline.Materialize(block.Nodes[0], th, inline.Options{KeepClasses: opts.KeepClasses}); err != nil && materializeErr == nil {
			materializeErr = err
		}
	})
	if materializeErr != nil {
		return Snippet{}, fmt.Errorf("materialize code blocks: %w", materializeErr)
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return Snippet{}, fmt.Errorf("serialize document: %w", err)
	}
	markup := strings.TrimSpace(body)
	if opts.Attribution {
		markup += "\n" + footerHTML(th)
	}

	title := metadataTitle(parserCtx)
	s.logger.DebugContext(ctx, "rendered markdown document",
		slog.String("theme", th.Meta.ID),
		slog.String("title", title),
		slog.Int("bytes", len(markup)),
	)

	return Snippet{HTML: markup, Title: title, Theme: th.Meta}, nil
}

// footerHTML builds the attribution element carrying the theme's footer
// style. The link inherits the footer color so the fragment stays coherent
// without a stylesheet.
func footerHTML(th *theme.Theme) string {
	var b strings.Builder
	b.WriteString("<div")
	if css := th.Footer.CSS(); css != "" {
		fmt.Fprintf(&b, ` style="%s"`, html.EscapeString(css))
	}
	fmt.Fprintf(&b, `><a style="color:inherit" href="%s">styled with snippress</a></div>`, html.EscapeString(AttributionURL))
	return b.String()
}

func metadataTitle(ctx parser.Context) string {
	raw := goldmarkmeta.Get(ctx)
	if raw == nil {
		return ""
	}
	if v, ok := raw["title"]; ok {
		switch title := v.(type) {
		case string:
			return title
		case fmt.Stringer:
			return title.String()
		}
	}
	return ""
}
