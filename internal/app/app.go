package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickguide/internal/config"
	"github.com/five82/brickguide/internal/guide"
	"github.com/five82/brickguide/internal/prefs"
	"github.com/five82/brickguide/internal/state"
	"github.com/five82/brickguide/internal/ui"
)

// Options configure the brickguide application.
type Options struct {
	ConfigPath     string
	PrefsPath      string // empty uses default ~/.config/brickguide/prefs.toml
	ImagePath      string // preselected image
	Sample         bool   // start in sample mode regardless of prefs
	AnalyzeOnStart bool
}

// Run boots the brickguide TUI until the context is cancelled or the user
// quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The TUI owns the terminal, so log lines go to a file.
	logFile, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	userPrefs := prefs.Load(opts.PrefsPath)

	client, err := guide.NewClient(cfg.APIBaseURL, guide.Options{
		Timeout: cfg.Timeout,
		Retry: guide.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    cfg.MaxDelay,
		},
		Logger: log.Default(),
	})
	if err != nil {
		return fmt.Errorf("init guide client: %w", err)
	}
	log.Printf("brickguide starting: api %s (%s mode)", client.BaseURL(), cfg.Mode)

	store := &state.Store{}
	session := NewSession(ctx, client, store, Inputs{
		Options:   userPrefs.AnalyzeOptions(),
		ImagePath: opts.ImagePath,
		UseSample: userPrefs.UseSample || opts.Sample,
	}, log.Default())
	defer session.Close()

	in := session.Inputs()
	return ui.Run(ctx, ui.Options{
		Controller:     session,
		Store:          store,
		Config:         &cfg,
		Prefs:          userPrefs,
		PrefsPath:      opts.PrefsPath,
		ImagePath:      in.ImagePath,
		UseSample:      in.UseSample,
		AnalyzeOnStart: opts.AnalyzeOnStart,
	})
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "brickguide")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
