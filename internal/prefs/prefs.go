// Package prefs handles brickguide user preferences persistence.
// Preferences are stored in ~/.config/brickguide/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/brickguide/internal/options"
)

// Prefs holds user preferences. Options is kept as a loose table because
// files written by older versions use other field names; it is read only
// through AnalyzeOptions.
type Prefs struct {
	Theme     string         `toml:"theme"`
	UseSample bool           `toml:"use_sample"`
	Options   map[string]any `toml:"options"`
}

const (
	defaultPrefsPath = "~/.config/brickguide/prefs.toml"
	defaultTheme     = "Dracula"
)

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, Options: options.Defaults().Map()}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// AnalyzeOptions returns the saved options in canonical form.
func (p Prefs) AnalyzeOptions() options.AnalyzeOptions {
	return options.Coerce(p.Options)
}

// SetAnalyzeOptions stores opts under canonical field names.
func (p *Prefs) SetAnalyzeOptions(opts options.AnalyzeOptions) {
	p.Options = opts.Canonical().Map()
}

// Load reads preferences from the given path, falling back to defaults when
// the file is missing or unreadable. Problems are logged, never returned.
func Load(path string) Prefs {
	prefs := Defaults()

	resolved, err := resolvePath(path)
	if err != nil {
		log.Printf("prefs: %v; using defaults", err)
		return prefs
	}

	file, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("prefs: open %s: %v; using defaults", resolved, err)
		}
		return prefs
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		log.Printf("prefs: read %s: %v; using defaults", resolved, err)
		return prefs
	}

	var loaded Prefs
	if err := toml.Unmarshal(bytes, &loaded); err != nil {
		log.Printf("prefs: parse %s: %v; using defaults", resolved, err)
		return Defaults()
	}

	if strings.TrimSpace(loaded.Theme) == "" {
		loaded.Theme = defaultTheme
	}
	loaded.SetAnalyzeOptions(loaded.AnalyzeOptions())
	return loaded
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	p.SetAnalyzeOptions(p.AnalyzeOptions())
	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
