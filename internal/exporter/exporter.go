// Package exporter writes rendered snippets as paste-ready artifacts. Every
// artifact is self-contained: presentation lives entirely in inline style
// attributes, so it survives hosts that strip <style> blocks and classes.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"

	"github.com/snippress/snippress/internal/renderer"
)

// Format represents an export format.
type Format string

const (
	// FormatFragment exports the bare inline-styled markup.
	FormatFragment Format = "fragment"
	// FormatDocument wraps the fragment in a minimal standalone HTML5 shell.
	FormatDocument Format = "document"
)

// ValidFormats returns the list of supported export formats.
func ValidFormats() []Format {
	return []Format{FormatFragment, FormatDocument}
}

// Normalize canonicalizes a user-supplied format string. The returned Format
// is safe to dispatch on; ok is false for unknown formats.
func Normalize(format string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(format)))
	for _, valid := range ValidFormats() {
		if f == valid {
			return f, true
		}
	}
	return "", false
}

// IsValidFormat checks if the given format is valid.
func IsValidFormat(format string) bool {
	_, ok := Normalize(format)
	return ok
}

// ContentType returns the MIME type for the given format.
func ContentType(format Format) string {
	switch format {
	case FormatFragment, FormatDocument:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the file extension for the given format.
func FileExtension(format Format) string {
	switch format {
	case FormatFragment, FormatDocument:
		return ".html"
	default:
		return ""
	}
}

// Options configures a single export.
type Options struct {
	Writer io.Writer
	Format Format
	Source string
	Title  string // document title; falls back to frontmatter title, then a default
	Render renderer.Options
}

// Exporter renders and writes artifacts.
type Exporter struct {
	renderer *renderer.Service
	logger   *slog.Logger
	docTmpl  *template.Template
}

// The document shell deliberately carries no <style> block: the fragment must
// stand on its own inline styles even when the shell survives.
const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
</head>
<body>
{{ .Fragment }}
</body>
</html>
`

// New constructs an exporter over the given renderer.
func New(svc *renderer.Service, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.New("document").Parse(documentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	return &Exporter{
		renderer: svc,
		logger:   logger.With("component", "exporter"),
		docTmpl:  tmpl,
	}, nil
}

// Export renders the source and writes the artifact in the requested format.
func (e *Exporter) Export(ctx context.Context, opts Options) error {
	if opts.Writer == nil {
		return errors.New("writer is required")
	}
	format, ok := Normalize(string(opts.Format))
	if !ok {
		return fmt.Errorf("unsupported format: %s (allowed: fragment, document)", opts.Format)
	}

	snippet, err := e.renderer.Render(ctx, opts.Source, opts.Render)
	if err != nil {
		return fmt.Errorf("render snippet: %w", err)
	}

	switch format {
	case FormatFragment:
		if _, err := io.WriteString(opts.Writer, snippet.HTML); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
	case FormatDocument:
		title := opts.Title
		if title == "" {
			title = snippet.Title
		}
		if title == "" {
			title = "snippress export"
		}
		data := struct {
			Title    string
			Fragment template.HTML
		}{
			Title:    title,
			Fragment: template.HTML(snippet.HTML), //nolint:gosec // markup from our own renderer
		}
		if err := e.docTmpl.Execute(opts.Writer, data); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	e.logger.DebugContext(ctx, "exported artifact",
		slog.String("format", string(format)),
		slog.String("theme", snippet.Theme.ID),
	)
	return nil
}
