package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIBaseURL  string
	Mode        string
	Timeout     time.Duration // per attempt
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	LogFile     string
	Path        string // file the settings were read from
}

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"

	EnvBaseURL = "BRICKGUIDE_API_BASE_URL"
	EnvMode    = "BRICKGUIDE_ENV"

	defaultConfigPath  = "~/.config/brickguide/config.toml"
	defaultLogFile     = "~/.local/state/brickguide/brickguide.log"
	developmentBaseURL = "http://localhost:9000"

	defaultTimeout     = 20 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 800 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
)

// ErrMissingBaseURL is returned outside development when no service address
// is configured.
var ErrMissingBaseURL = errors.New("analysis service address is not configured")

type fileConfig struct {
	APIBaseURL     string `toml:"api_base_url"`
	Mode           string `toml:"mode"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	BaseDelayMS    int    `toml:"base_delay_ms"`
	MaxDelayMS     int    `toml:"max_delay_ms"`
	LogFile        string `toml:"log_file"`
}

// Load reads the config file, applies environment overrides and validates
// the service address. A missing file means defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg := Config{
		APIBaseURL:  strings.TrimSpace(raw.APIBaseURL),
		Mode:        normalizeMode(raw.Mode),
		Timeout:     defaultTimeout,
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		LogFile:     mustExpand(defaultLogFile),
		Path:        resolved,
	}
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if raw.MaxAttempts > 0 {
		cfg.MaxAttempts = raw.MaxAttempts
	}
	if raw.BaseDelayMS > 0 {
		cfg.BaseDelay = time.Duration(raw.BaseDelayMS) * time.Millisecond
	}
	if raw.MaxDelayMS > 0 {
		cfg.MaxDelay = time.Duration(raw.MaxDelayMS) * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	if env, ok := os.LookupEnv(EnvMode); ok && strings.TrimSpace(env) != "" {
		cfg.Mode = normalizeMode(env)
	}
	if env, ok := os.LookupEnv(EnvBaseURL); ok && strings.TrimSpace(env) != "" {
		cfg.APIBaseURL = strings.TrimSpace(env)
	}

	if err := cfg.resolveBaseURL(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Development reports whether development defaults apply.
func (c Config) Development() bool {
	return c.Mode == ModeDevelopment
}

func (c *Config) resolveBaseURL() error {
	if c.APIBaseURL == "" {
		if !c.Development() {
			return fmt.Errorf("%w: set %s or api_base_url in %s (or %s=development to use %s)",
				ErrMissingBaseURL, EnvBaseURL, c.Path, EnvMode, developmentBaseURL)
		}
		c.APIBaseURL = developmentBaseURL
		return nil
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url %q: %w", c.APIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api base url %q: scheme must be http or https", c.APIBaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api base url %q: missing host", c.APIBaseURL)
	}
	return nil
}

func normalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "dev", "development", "local":
		return ModeDevelopment
	default:
		return ModeProduction
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
