package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvMode, "")
}

func TestLoad_MissingConfigFailsOutsideDevelopment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	_, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if !errors.Is(err, ErrMissingBaseURL) {
		t.Fatalf("Load error = %v, want ErrMissingBaseURL", err)
	}
	if !strings.Contains(err.Error(), EnvBaseURL) {
		t.Fatalf("Load error = %q, want it to name %s", err.Error(), EnvBaseURL)
	}
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)
	t.Setenv(EnvMode, "development")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != developmentBaseURL {
		t.Fatalf("APIBaseURL = %q, want %q", cfg.APIBaseURL, developmentBaseURL)
	}
	if !cfg.Development() {
		t.Fatalf("Development() = false")
	}
	if cfg.Timeout != defaultTimeout || cfg.MaxAttempts != defaultMaxAttempts {
		t.Fatalf("timeouts = %s/%d, want defaults", cfg.Timeout, cfg.MaxAttempts)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
api_base_url = "  https://guide.example.com  "
timeout_seconds = 45
max_attempts = 5
base_delay_ms = 200
max_delay_ms = 100
log_file = "  ~/logs/bg.log  "
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://guide.example.com" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Mode != ModeProduction {
		t.Fatalf("Mode = %q, want production", cfg.Mode)
	}
	if cfg.Timeout != 45*time.Second || cfg.MaxAttempts != 5 {
		t.Fatalf("Timeout/MaxAttempts = %s/%d", cfg.Timeout, cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 200*time.Millisecond || cfg.MaxDelay != 200*time.Millisecond {
		t.Fatalf("delays = %s/%s, want max raised to base", cfg.BaseDelay, cfg.MaxDelay)
	}
	if cfg.LogFile != filepath.Join(home, "logs", "bg.log") {
		t.Fatalf("LogFile = %q, want it under HOME", cfg.LogFile)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv(EnvBaseURL, "http://10.0.0.5:9999")

	path := writeConfig(t, `api_base_url = "https://guide.example.com"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIBaseURL = %q, want env value", cfg.APIBaseURL)
	}
}

func TestLoad_ModeFromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := Load(writeConfig(t, `mode = "Dev"`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != developmentBaseURL {
		t.Fatalf("APIBaseURL = %q, want development default", cfg.APIBaseURL)
	}
}

func TestLoad_MalformedBaseURLFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, mode := range []string{"", "development"} {
		clearEnv(t)
		t.Setenv(EnvMode, mode)
		for _, bad := range []string{"localhost:9000", "ftp://host", "http://", "://nope"} {
			t.Setenv(EnvBaseURL, bad)
			if _, err := Load(writeConfig(t, "")); err == nil {
				t.Fatalf("mode %q: Load(%q) returned nil error", mode, bad)
			}
		}
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `api_base_url = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
