package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ToggleLogs key.Binding
	Escape     key.Binding

	// Requests
	Analyze       key.Binding
	Steps         key.Binding
	OptimizeSteps key.Binding
	Reset         key.Binding

	// Inputs
	EditImage    key.Binding
	ToggleSample key.Binding
	CycleGrid    key.Binding
	CycleColors  key.Binding
	ToggleMode   key.Binding
	CyclePreset  key.Binding
	ToggleBrick  key.Binding

	// Mosaic
	ZoomIn  key.Binding
	ZoomOut key.Binding

	// Steps
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Steps/log panel"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),

		Analyze: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "Analyze"),
		),
		Steps: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Build steps"),
		),
		OptimizeSteps: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Build optimized steps"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reset"),
		),

		EditImage: key.NewBinding(
			key.WithKeys("i", "/"),
			key.WithHelp("i", "Choose image"),
		),
		ToggleSample: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Sample mode"),
		),
		CycleGrid: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Grid size"),
		),
		CycleColors: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Color limit"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Auto/manual bricks"),
		),
		CyclePreset: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Brick preset"),
		),
		ToggleBrick: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "Toggle brick"),
		),

		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "Zoom out"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "Page down"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Analyze, k.Steps, k.EditImage, k.ToggleSample, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Analyze, k.Steps, k.OptimizeSteps, k.Reset},
		{k.EditImage, k.ToggleSample},
		{k.CycleGrid, k.CycleColors, k.ToggleMode, k.CyclePreset, k.ToggleBrick},
		{k.ZoomIn, k.ZoomOut},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.ToggleLogs},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
