package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickguide/internal/config"
	"github.com/five82/brickguide/internal/options"
	"github.com/five82/brickguide/internal/prefs"
	"github.com/five82/brickguide/internal/sequencer"
	"github.com/five82/brickguide/internal/state"
)

// Controller runs the user's requests. Analyze and GenerateSteps block until
// their request settles.
type Controller interface {
	Analyze() sequencer.State
	GenerateSteps(optimize bool) sequencer.State
	SetOptions(opts options.AnalyzeOptions)
	SetImagePath(path string)
	SetUseSample(use bool)
	Reset()
}

// Options configures the TUI.
type Options struct {
	Controller Controller
	Store      *state.Store
	Config     *config.Config

	// Prefs seed the theme and options. Changes are written back to
	// PrefsPath.
	Prefs     prefs.Prefs
	PrefsPath string

	// ImagePath and UseSample mirror the controller's starting inputs.
	ImagePath      string
	UseSample      bool
	AnalyzeOnStart bool
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Controller == nil || opts.Store == nil {
		return errors.New("ui: controller and store are required")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
