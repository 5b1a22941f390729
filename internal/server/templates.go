package server

import (
	"embed"
	"html/template"
	"io"

	"github.com/snippress/snippress/internal/theme"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	funcs := template.FuncMap{
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return `selected`
			}
			return ``
		},
	}

	base, err := template.New("index").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	return &templateRenderer{tmpl: base}, nil
}

func (r *templateRenderer) render(w io.Writer, name string, data any) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type homeViewData struct { //nolint:govet // field order favors template readability
	Source      string
	Language    string
	ThemeID     string
	Markdown    bool
	Attribution bool
	Languages   []string
	Themes      []*theme.Theme
	Fragment    template.HTML // materialized preview, safe by construction
	Markup      string        // raw artifact text for the copy box
	Notice      string        // user-visible problem with a file/clipboard op
	LiveReload  bool
	WatchPath   string
}
