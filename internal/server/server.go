// Package server provides the local preview web UI: paste a snippet, pick a
// language and theme, and copy the materialized, inline-styled markup.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/snippress/snippress/internal/config"
	"github.com/snippress/snippress/internal/exporter"
	"github.com/snippress/snippress/internal/highlight"
	"github.com/snippress/snippress/internal/prefs"
	"github.com/snippress/snippress/internal/renderer"
	"github.com/snippress/snippress/internal/watch"
)

// Server wraps the HTTP server for the snippet preview UI.
type Server struct { //nolint:govet // field order favors logical grouping
	mux        *http.ServeMux
	httpServer *http.Server
	logger     *slog.Logger
	renderer   *renderer.Service
	exporter   *exporter.Exporter
	prefs      *prefs.Store
	watcher    *watch.Service // nil when no --watch file is configured
	hub        *wsHub
	templates  *templateRenderer
	cfg        config.Config
}

// New constructs a Server. watcher may be nil; store may be nil when
// preference persistence is disabled.
func New(cfg config.Config, logger *slog.Logger, rendererSvc *renderer.Service, store *prefs.Store, watcher *watch.Service) (*Server, error) {
	if rendererSvc == nil {
		return nil, errors.New("renderer service must be provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := newTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	exp, err := exporter.New(rendererSvc, logger)
	if err != nil {
		return nil, fmt.Errorf("init exporter: %w", err)
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger.With("component", "http"),
		renderer:  rendererSvc,
		exporter:  exp,
		prefs:     store,
		watcher:   watcher,
		hub:       newWSHub(),
		templates: tmpl,
		cfg:       cfg,
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("POST /render", s.handleRender)
	s.mux.HandleFunc("POST /export", s.handleExport)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/themes", s.handleThemes)
	s.mux.HandleFunc("GET /api/languages", s.handleLanguages)

	if s.watcher != nil {
		s.mux.HandleFunc("GET /ws", s.handleWS)
	}
}

// Start runs the HTTP server and optionally opens the browser. It blocks
// until the server stops or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	handler := chain(s.mux,
		recoveryMiddleware,
		loggingMiddleware(s.logger, s.cfg.Verbose),
	)

	if s.watcher != nil {
		go s.pumpWatchEvents(ctx)
	}

	listener, serverURL, err := s.listen()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if _, err := fmt.Fprintf(os.Stdout, "snippress listening on %s\n", serverURL); err != nil {
			s.logger.Warn("failed to announce server address", slog.String("url", serverURL), slog.Any("err", err))
		}
		errCh <- s.httpServer.Serve(listener)
	}()

	if s.cfg.AutoOpen {
		go s.openBrowserWhenReady(ctx, serverURL)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.ErrorContext(ctx, "graceful shutdown failed", slog.Any("err", err))
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) listen() (net.Listener, string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", addr, err)
	}
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		_ = listener.Close()
		return nil, "", errors.New("unexpected listener address type")
	}
	return listener, fmt.Sprintf("http://localhost:%d", tcpAddr.Port), nil
}

// Shutdown gracefully stops the server with the provided context timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// pumpWatchEvents forwards file-change notifications to live-reload clients.
func (s *Server) pumpWatchEvents(ctx context.Context) {
	for evt := range s.watcher.Subscribe(ctx) {
		s.logger.Debug("broadcasting watch event", slog.String("type", evt.Type))
		s.hub.broadcast(evt)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.defaultViewData()

	if s.watcher != nil {
		source, err := os.ReadFile(s.watcher.Path())
		switch {
		case err == nil:
			data.Source = string(source)
		case errors.Is(err, os.ErrNotExist):
			data.Notice = fmt.Sprintf("Watched file %s does not exist yet.", s.watcher.Path())
		default:
			// File trouble is a user-visible notice, never a failed page.
			data.Notice = fmt.Sprintf("Could not read %s: %v", s.watcher.Path(), err)
		}
	}

	s.renderPage(w, r, data)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, opts, ok := s.parseRenderForm(w, r)
	if !ok {
		return
	}

	snippet, err := s.renderer.Render(r.Context(), data.Source, opts)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "render failed", slog.Any("err", err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	data.Fragment = template.HTML(snippet.HTML) //nolint:gosec // markup from our own renderer
	data.Markup = snippet.HTML

	s.savePrefs(r.Context(), data)
	s.renderPage(w, r, data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, opts, ok := s.parseRenderForm(w, r)
	if !ok {
		return
	}

	format, ok := exporter.Normalize(r.URL.Query().Get("format"))
	if !ok {
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	err := s.exporter.Export(r.Context(), exporter.Options{
		Writer: &buf,
		Format: format,
		Source: data.Source,
		Render: opts,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "export failed", slog.Any("err", err))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	s.savePrefs(r.Context(), data)

	filename := "snippet-" + string(format) + exporter.FileExtension(format)
	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("write export response", slog.Any("err", err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleThemes(w http.ResponseWriter, _ *http.Request) {
	type themeInfo struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Fallback bool   `json:"fallback"`
	}
	reg := s.renderer.Themes()
	out := make([]themeInfo, 0)
	for _, th := range reg.Themes() {
		out = append(out, themeInfo{
			ID:       th.Meta.ID,
			Name:     th.Meta.Name,
			Fallback: th.Meta.ID == reg.FallbackID(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, highlight.Languages())
}

// parseRenderForm extracts the shared form fields for /render and /export.
func (s *Server) parseRenderForm(w http.ResponseWriter, r *http.Request) (homeViewData, renderer.Options, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return homeViewData{}, renderer.Options{}, false
	}

	data := s.defaultViewData()
	data.Source = r.PostFormValue("source")
	if lang := r.PostFormValue("language"); lang != "" {
		data.Language = lang
	}
	if id := r.PostFormValue("theme"); id != "" {
		data.ThemeID = id
	}
	data.Markdown = r.PostFormValue("markdown") != ""
	data.Attribution = r.PostFormValue("attribution") != ""

	opts := renderer.Options{
		Language:    data.Language,
		ThemeID:     data.ThemeID,
		Markdown:    data.Markdown,
		Attribution: data.Attribution,
		KeepClasses: s.cfg.DebugClasses,
	}
	return data, opts, true
}

func (s *Server) defaultViewData() homeViewData {
	data := homeViewData{
		Language:    s.cfg.Language,
		ThemeID:     s.cfg.ThemeID,
		Attribution: s.cfg.Attribution,
		Languages:   highlight.Languages(),
		Themes:      s.renderer.Themes().Themes(),
		LiveReload:  s.watcher != nil,
	}
	if s.watcher != nil {
		data.WatchPath = s.watcher.Path()
	}
	if s.prefs != nil {
		data.Language = s.prefs.Language(data.Language)
		data.ThemeID = s.prefs.Theme(data.ThemeID)
		data.Attribution = s.prefs.Attribution(data.Attribution)
	}
	return data
}

// savePrefs remembers the last-used selections. Persistence failures are
// logged, never surfaced as request errors.
func (s *Server) savePrefs(ctx context.Context, data homeViewData) {
	if s.prefs == nil {
		return
	}
	s.prefs.SetLanguage(data.Language)
	s.prefs.SetTheme(data.ThemeID)
	s.prefs.SetAttribution(data.Attribution)
	if data.WatchPath != "" {
		s.prefs.SetSourcePath(data.WatchPath)
	}
	if err := s.prefs.Save(); err != nil {
		s.logger.WarnContext(ctx, "save preferences", slog.Any("err", err))
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, data homeViewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.render(w, "index.gohtml", data); err != nil {
		s.logger.ErrorContext(r.Context(), "render template", slog.Any("err", err))
	}
}

// openBrowserWhenReady polls the health endpoint, then launches the platform
// browser once the server responds.
func (s *Server) openBrowserWhenReady(ctx context.Context, url string) {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		resp, err := client.Get(url + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				if err := openBrowser(url); err != nil {
					s.logger.Warn("open browser", slog.Any("err", err))
				}
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
