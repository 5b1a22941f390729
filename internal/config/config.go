// Package config manages application configuration from environment variables and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const envPrefix = "SNIPPRESS_"

// Config holds runtime configuration for the preview server and export CLI.
type Config struct {
	Language     string
	ThemeID      string
	WatchPath    string
	PrefsPath    string
	Port         int
	AutoOpen     bool
	Attribution  bool
	DebugClasses bool
	Verbose      bool
}

// Default returns ready-to-use defaults prior to env/flag overrides.
func Default() Config {
	return Config{
		Language:    "go",
		ThemeID:     "toxic",
		Port:        0, // 0 = auto-select random available port
		AutoOpen:    true,
		Attribution: true,
	}
}

// RegisterFlags attaches configuration flags to the provided FlagSet.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Language, "lang", "l", cfg.Language, "default tokenizer language for new snippets")
	fs.StringVarP(&cfg.ThemeID, "theme", "t", cfg.ThemeID, "default theme id (unknown ids fall back to toxic)")
	fs.StringVarP(&cfg.WatchPath, "watch", "w", cfg.WatchPath, "source file to watch and re-render on change")
	fs.StringVar(&cfg.PrefsPath, "prefs", cfg.PrefsPath, "preferences file path (default: user config dir)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to bind the HTTP server (0 = auto-assign, default: auto)")
	fs.BoolVar(&cfg.AutoOpen, "auto-open", cfg.AutoOpen, "open the browser automatically after start")
	fs.BoolVar(&cfg.Attribution, "attribution", cfg.Attribution, "append the attribution footer to rendered fragments")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable verbose logging (HTTP requests)")
	// DebugClasses is intentionally env-only: keeping token classes in the
	// output is a theme-authoring aid and must not ship in artifacts.
}

// ApplyEnvOverrides reads supported environment variables and overrides cfg in place.
func ApplyEnvOverrides(cfg *Config) {
	applyStringEnv("LANG", func(v string) { cfg.Language = v })
	applyStringEnv("THEME", func(v string) { cfg.ThemeID = v })
	applyStringEnv("WATCH", func(v string) { cfg.WatchPath = v })
	applyStringEnv("PREFS", func(v string) { cfg.PrefsPath = v })
	applyIntEnv("PORT", func(v int) { cfg.Port = v })
	applyBoolEnv("AUTO_OPEN", func(v bool) { cfg.AutoOpen = v })
	applyBoolEnv("ATTRIBUTION", func(v bool) { cfg.Attribution = v })
	applyBoolEnv("DEBUG_CLASSES", func(v bool) { cfg.DebugClasses = v })
	applyBoolEnv("VERBOSE", func(v bool) { cfg.Verbose = v })
}

func applyStringEnv(key string, apply func(string)) {
	if raw, ok := lookupNonEmpty(key); ok {
		apply(raw)
	}
}

func applyIntEnv(key string, apply func(int)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.Atoi(raw); err == nil {
			apply(value)
		}
	}
}

func applyBoolEnv(key string, apply func(bool)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.ParseBool(raw); err == nil {
			apply(value)
		}
	}
}

func lookupNonEmpty(key string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

// Finalize validates and normalizes paths.
func Finalize(cfg *Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.WatchPath != "" {
		watch, err := filepath.Abs(cfg.WatchPath)
		if err != nil {
			return fmt.Errorf("resolve watch path: %w", err)
		}
		cfg.WatchPath = watch
	}

	if cfg.PrefsPath != "" {
		prefs, err := filepath.Abs(cfg.PrefsPath)
		if err != nil {
			return fmt.Errorf("resolve prefs path: %w", err)
		}
		cfg.PrefsPath = prefs
	}

	return nil
}
