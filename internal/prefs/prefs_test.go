package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/brickguide/internal/options"
)

func writePrefs(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "prefs.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p := Load("")
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.UseSample {
		t.Fatalf("UseSample = true, want false")
	}
	if !p.AnalyzeOptions().Equal(options.Defaults()) {
		t.Fatalf("AnalyzeOptions = %#v, want defaults", p.AnalyzeOptions())
	}
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "brickguide")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	writePrefs(t, prefsDir, `
theme = "Slate"
use_sample = true

[options]
grid_size = "32X32"
colors = 0
mode = "menual"
allowed_bricks = ["2x4", "bogus", "2x4"]
`)

	p := Load("")
	if p.Theme != "Slate" || !p.UseSample {
		t.Fatalf("prefs = %#v, want Slate with sample mode", p)
	}
	want := options.AnalyzeOptions{
		GridSize:   "32x32",
		ColorLimit: 0,
		BrickMode:  options.ModeManual,
		BrickTypes: []string{"1x1", "2x4"},
	}
	if diff := cmp.Diff(want, p.AnalyzeOptions()); diff != "" {
		t.Fatalf("AnalyzeOptions mismatch (-want +got):\n%s", diff)
	}
	if _, ok := p.Options["gridSize"]; !ok {
		t.Fatalf("Options not rewritten with canonical names: %#v", p.Options)
	}
}

func TestSave_RoundTripsOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	p := Defaults()
	p.Theme = "Slate"
	p.SetAnalyzeOptions(options.AnalyzeOptions{GridSize: "48x48", ColorLimit: 24, BrickMode: options.ModeAuto})
	if err := Save(path, p); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded := Load(path)
	if loaded.Theme != "Slate" {
		t.Fatalf("Theme = %q, want Slate", loaded.Theme)
	}
	got := loaded.AnalyzeOptions()
	if got.GridSize != "48x48" || got.ColorLimit != 24 || got.BrickMode != options.ModeAuto {
		t.Fatalf("AnalyzeOptions = %#v", got)
	}
	if diff := cmp.Diff(options.AutoBrickPreset, got.BrickTypes); diff != "" {
		t.Fatalf("auto mode brick types mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EmptyThemeFallsBackToDefault(t *testing.T) {
	p := Load(writePrefs(t, t.TempDir(), "theme = \"\"\n"))
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestLoad_InvalidTOMLFallsBackToDefault(t *testing.T) {
	p := Load(writePrefs(t, t.TempDir(), "not valid toml {{{\n"))
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if !p.AnalyzeOptions().Equal(options.Defaults()) {
		t.Fatalf("AnalyzeOptions = %#v, want defaults", p.AnalyzeOptions())
	}
}
