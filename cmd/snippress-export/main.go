// Package main provides the snippress one-shot export CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/snippress/snippress/internal/buildinfo"
	"github.com/snippress/snippress/internal/config"
	"github.com/snippress/snippress/internal/exporter"
	"github.com/snippress/snippress/internal/prefs"
	"github.com/snippress/snippress/internal/renderer"
	"github.com/snippress/snippress/internal/theme"
)

func main() {
	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("snippress-export", pflag.ExitOnError)
	flags.StringVarP(&cfg.Language, "lang", "l", cfg.Language, "language hint for the tokenizer")
	flags.StringVarP(&cfg.ThemeID, "theme", "t", cfg.ThemeID, "theme id to apply")
	flags.StringVar(&cfg.PrefsPath, "prefs", cfg.PrefsPath, "path to the preferences file")
	flags.BoolVar(&cfg.Attribution, "attribution", cfg.Attribution, "append the attribution footer to the fragment")

	input := flags.StringP("in", "i", "-", `input file ("-" reads standard input)`)
	output := flags.StringP("out", "o", "-", `output file ("-" writes standard output)`)
	format := flags.StringP("format", "f", "fragment", "export format: fragment or document")
	markdown := flags.BoolP("markdown", "m", false, "treat the input as a markdown document")
	title := flags.String("title", "", "document title (document format only)")
	versionFlag := flags.Bool("version", false, "Print version information and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("flag parsing failed", slog.Any("err", err))
		os.Exit(1)
	}
	if *versionFlag {
		fmt.Println(buildinfo.Summary())
		os.Exit(0)
	}
	if err := config.Finalize(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Preferences fill in whatever the flags left at defaults, matching the
	// preview server's behavior.
	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		logger.Warn("preferences unavailable", slog.Any("err", err))
		store = nil
	}
	if store != nil {
		if !flags.Changed("lang") {
			cfg.Language = store.Language(cfg.Language)
		}
		if !flags.Changed("theme") {
			cfg.ThemeID = store.Theme(cfg.ThemeID)
		}
	}

	source, err := readSource(*input)
	if err != nil {
		logger.Error("read input", slog.Any("err", err))
		os.Exit(1)
	}
	if store != nil && *input != "-" {
		if abs, err := filepath.Abs(*input); err == nil {
			store.SetSourcePath(abs)
			if err := store.Save(); err != nil {
				logger.Warn("save preferences", slog.Any("err", err))
			}
		}
	}

	out, closeOut, err := openOutput(*output)
	if err != nil {
		logger.Error("open output", slog.Any("err", err))
		os.Exit(1)
	}

	svc := renderer.NewService(theme.Builtin(), logger)
	exp, err := exporter.New(svc, logger)
	if err != nil {
		logger.Error("init exporter failed", slog.Any("err", err))
		os.Exit(1)
	}

	err = exp.Export(context.Background(), exporter.Options{
		Writer: out,
		Format: exporter.Format(strings.ToLower(*format)),
		Source: source,
		Title:  *title,
		Render: renderer.Options{
			Language:    cfg.Language,
			ThemeID:     cfg.ThemeID,
			Markdown:    *markdown,
			Attribution: cfg.Attribution,
		},
	})
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error("export failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
