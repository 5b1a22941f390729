// Package prefs persists the last-used snippet settings between runs: the
// language, theme id, source path, and attribution flag. The rendering
// pipeline itself never touches this store; it is handed plain values on each
// invocation.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	keyLanguage    = "language"
	keyTheme       = "theme"
	keySourcePath  = "source_path"
	keyAttribution = "attribution"
)

// Store is a small file-backed key/value store. Reads fall back to the
// provided defaults; Save writes the whole file atomically via viper.
type Store struct {
	v    *viper.Viper
	path string
}

// DefaultPath returns the per-user prefs file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "snippress", "prefs.yaml"), nil
}

// Open loads the store at path, creating parent directories as needed. A
// missing file is a normal first-run condition, not an error.
func Open(path string) (*Store, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read prefs: %w", err)
	}

	return &Store{v: v, path: path}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Language returns the stored language, or def when unset.
func (s *Store) Language(def string) string {
	return s.getString(keyLanguage, def)
}

// SetLanguage records the last-used language.
func (s *Store) SetLanguage(language string) {
	s.v.Set(keyLanguage, language)
}

// Theme returns the stored theme id, or def when unset.
func (s *Store) Theme(def string) string {
	return s.getString(keyTheme, def)
}

// SetTheme records the last-used theme id.
func (s *Store) SetTheme(id string) {
	s.v.Set(keyTheme, id)
}

// SourcePath returns the stored source file path, or def when unset.
func (s *Store) SourcePath(def string) string {
	return s.getString(keySourcePath, def)
}

// SetSourcePath records the last-loaded source file path.
func (s *Store) SetSourcePath(path string) {
	s.v.Set(keySourcePath, path)
}

// Attribution returns the stored attribution flag, or def when unset.
func (s *Store) Attribution(def bool) bool {
	if !s.v.IsSet(keyAttribution) {
		return def
	}
	return s.v.GetBool(keyAttribution)
}

// SetAttribution records the attribution flag.
func (s *Store) SetAttribution(on bool) {
	s.v.Set(keyAttribution, on)
}

// Save writes the current values to disk.
func (s *Store) Save() error {
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func (s *Store) getString(key, def string) string {
	if !s.v.IsSet(key) {
		return def
	}
	if value := s.v.GetString(key); value != "" {
		return value
	}
	return def
}
