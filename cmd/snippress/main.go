// Package main provides the snippress preview server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/snippress/snippress/internal/buildinfo"
	"github.com/snippress/snippress/internal/config"
	"github.com/snippress/snippress/internal/prefs"
	"github.com/snippress/snippress/internal/renderer"
	"github.com/snippress/snippress/internal/server"
	"github.com/snippress/snippress/internal/theme"
	"github.com/snippress/snippress/internal/watch"
)

func main() {
	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("snippress", pflag.ExitOnError)
	config.RegisterFlags(flags, &cfg)
	versionFlag := flags.Bool("version", false, "Print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("parse flags", slog.Any("err", err))
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
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger = logger.With("app", "snippress")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		// Preferences are a convenience; run without them rather than die.
		logger.Warn("preferences unavailable", slog.Any("err", err))
		store = nil
	}

	if store != nil {
		// --watch defaults to the last watched file; an explicit flag or env
		// value wins and is remembered for the next run.
		if cfg.WatchPath == "" {
			cfg.WatchPath = store.SourcePath("")
		} else {
			store.SetSourcePath(cfg.WatchPath)
			if err := store.Save(); err != nil {
				logger.Warn("save preferences", slog.Any("err", err))
			}
		}
	}

	var watcher *watch.Service
	if cfg.WatchPath != "" {
		watcher, err = watch.NewService(ctx, cfg.WatchPath, logger)
		if err != nil {
			cancel()
			logger.Error("watcher init failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Error("close watcher", slog.Any("err", err))
			}
		}()
	}

	rendererSvc := renderer.NewService(theme.Builtin(), logger)

	srv, err := server.New(cfg, logger, rendererSvc, store, watcher)
	if err != nil {
		cancel()
		logger.Error("server init failed", slog.Any("err", err))
		//nolint:gocritic // exitAfterDefer: cancel() explicitly called before os.Exit
		os.Exit(1)
	}

	if err := srv.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shutdown complete")
			return
		}
		logger.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}
}
