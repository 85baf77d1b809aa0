package ui

import (
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickguide/internal/config"
	"github.com/five82/brickguide/internal/grid"
	"github.com/five82/brickguide/internal/logtail"
	"github.com/five82/brickguide/internal/options"
	"github.com/five82/brickguide/internal/prefs"
	"github.com/five82/brickguide/internal/sequencer"
	"github.com/five82/brickguide/internal/state"
)

const (
	refreshInterval = 200 * time.Millisecond
	logInterval     = time.Second
	logLines        = 200
	// cellCols is the terminal width of one brick at zoom 1. Terminal cells
	// are about twice as tall as wide.
	cellCols   = 2
	sideWidth  = 36
	minSteps   = 6
	chromeRows = 4 // header, input line, message line, footer
)

// presetOrder is the cycle order for the preset key.
var presetOrder = []string{"basic", "detail", "easy", "clear"}

type analysisDoneMsg struct{ state sequencer.State }

type stepsDoneMsg struct{ state sequencer.State }

type refreshMsg time.Time

// Model is the bubbletea model for the guide screen. It mirrors the
// controller's inputs so it can render them without locking, and re-reads
// store snapshots for everything the requests produce.
type Model struct {
	ctrl      Controller
	store     *state.Store
	cfg       *config.Config
	prefs     prefs.Prefs
	prefsPath string

	theme   Theme
	styles  Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	steps   viewport.Model
	logs    viewport.Model

	opts      options.AnalyzeOptions
	imagePath string
	useSample bool
	preset    int
	zoom      int

	snap      state.Snapshot
	stepsFrom time.Time // snapshot time the steps view was rendered from
	width     int
	height    int
	editing   bool
	showHelp  bool
	showLogs  bool
	logsRead  time.Time
	notice    string

	analyzeOnStart bool
}

// New builds the model. Run calls it; tests drive it directly.
func New(opts Options) Model {
	in := textinput.New()
	in.Prompt = "image: "
	in.Placeholder = "path to a PNG, JPEG, GIF or WebP file"
	in.CharLimit = 4096
	in.SetValue(opts.ImagePath)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctrl:           opts.Controller,
		store:          opts.Store,
		cfg:            opts.Config,
		prefs:          opts.Prefs,
		prefsPath:      opts.PrefsPath,
		keys:           DefaultKeyMap(),
		help:           help.New(),
		spinner:        sp,
		input:          in,
		steps:          viewport.New(80, minSteps),
		logs:           viewport.New(80, minSteps),
		opts:           opts.Prefs.AnalyzeOptions(),
		imagePath:      strings.TrimSpace(opts.ImagePath),
		useSample:      opts.UseSample,
		preset:         -1,
		zoom:           1,
		analyzeOnStart: opts.AnalyzeOnStart,
	}
	m.applyTheme(GetTheme(opts.Prefs.Theme))
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, refreshTick()}
	if m.analyzeOnStart {
		cmds = append(cmds, m.analyzeCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layoutSteps()
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, refreshTick()

	case analysisDoneMsg:
		if msg.state == sequencer.Superseded {
			log.Printf("ui: analysis result superseded by newer inputs")
		}
		m.refresh()
		return m, nil

	case stepsDoneMsg:
		m.refresh()
		if msg.state == sequencer.Resolved {
			m.steps.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Escape):
		m.showHelp = false
		m.help.ShowAll = false
		m.showLogs = false

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.logsRead = time.Time{}
		m.refresh()
		if m.showLogs {
			m.logs.GotoBottom()
		}

	case key.Matches(msg, m.keys.CycleTheme):
		m.applyTheme(GetTheme(NextTheme(m.theme.Name)))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.stepsFrom = time.Time{}
		m.refresh()

	case key.Matches(msg, m.keys.Analyze):
		return m, m.analyzeCmd()

	case key.Matches(msg, m.keys.Steps):
		return m, m.stepsCmd(false)

	case key.Matches(msg, m.keys.OptimizeSteps):
		return m, m.stepsCmd(true)

	case key.Matches(msg, m.keys.Reset):
		m.imagePath = ""
		m.input.SetValue("")
		m.ctrl.Reset()
		m.refresh()

	case key.Matches(msg, m.keys.EditImage):
		m.editing = true
		m.input.SetValue(m.imagePath)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.ToggleSample):
		m.setUseSample(!m.useSample)

	case key.Matches(msg, m.keys.CycleGrid):
		next := m.opts
		next.GridSize = options.NextGridSize(next.GridSize)
		m.setOptions(next)

	case key.Matches(msg, m.keys.CycleColors):
		next := m.opts
		next.ColorLimit = options.NextColorLimit(next.ColorLimit)
		m.setOptions(next)

	case key.Matches(msg, m.keys.ToggleMode):
		next := m.opts
		if next.BrickMode == options.ModeAuto {
			next.BrickMode = options.ModeManual
		} else {
			next.BrickMode = options.ModeAuto
		}
		m.setOptions(next)

	case key.Matches(msg, m.keys.CyclePreset):
		m.preset = (m.preset + 1) % len(presetOrder)
		name := presetOrder[m.preset]
		types, err := options.ApplyBrickPreset(name)
		if err != nil {
			log.Printf("ui: %v", err)
			break
		}
		next := m.opts
		next.BrickMode = options.ModeManual
		next.BrickTypes = types
		m.setOptions(next)
		m.notice = "brick preset: " + name

	case key.Matches(msg, m.keys.ToggleBrick):
		idx := brickIndex(msg)
		if idx < 0 || idx >= len(options.AllowedBrickTypes) {
			break
		}
		id := options.AllowedBrickTypes[idx]
		if id == options.BaseBrickType {
			m.notice = "1x1 bricks are always available"
			break
		}
		next := m.opts
		next.BrickMode = options.ModeManual
		next.BrickTypes = options.ToggleBrickType(next.BrickTypes, id)
		m.setOptions(next)

	case key.Matches(msg, m.keys.ZoomIn):
		m.zoom++
		m.refresh()

	case key.Matches(msg, m.keys.ZoomOut):
		m.zoom--
		m.refresh()

	case key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		if m.showLogs {
			m.logs, cmd = m.logs.Update(msg)
		} else {
			m.steps, cmd = m.steps.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.editing = false
		m.input.Blur()
		m.input.SetValue(m.imagePath)
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.editing = false
		m.input.Blur()
		path := strings.TrimSpace(m.input.Value())
		m.input.SetValue(path)
		m.imagePath = path
		m.ctrl.SetImagePath(path)
		if path != "" && m.useSample {
			m.setUseSample(false)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setOptions(next options.AnalyzeOptions) {
	next = next.Canonical()
	if next.Equal(m.opts) {
		return
	}
	m.opts = next
	m.ctrl.SetOptions(next)
	m.prefs.SetAnalyzeOptions(next)
	m.savePrefs()
	m.refresh()
}

func (m *Model) setUseSample(use bool) {
	m.useSample = use
	m.ctrl.SetUseSample(use)
	m.prefs.UseSample = use
	m.savePrefs()
	m.refresh()
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		log.Printf("save prefs: %v", err)
	}
}

func (m *Model) applyTheme(t Theme) {
	m.theme = t
	m.styles = t.Styles()
	m.spinner.Style = m.styles.AccentText
	m.input.PromptStyle = m.styles.AccentText
	m.input.TextStyle = m.styles.Text
	m.input.PlaceholderStyle = m.styles.FaintText
	m.help.Styles.ShortKey = m.styles.AccentText
	m.help.Styles.ShortDesc = m.styles.MutedText
	m.help.Styles.ShortSeparator = m.styles.FaintText
	m.help.Styles.FullKey = m.styles.AccentText
	m.help.Styles.FullDesc = m.styles.MutedText
	m.help.Styles.FullSeparator = m.styles.FaintText
}

// refresh pulls a fresh snapshot, sizes the steps panel to the room the
// mosaic leaves, and re-renders the steps when they changed.
func (m *Model) refresh() {
	m.snap = m.store.Snapshot()
	m.zoom = m.clampZoom(m.zoom)
	if m.height > 0 {
		h := m.height - chromeRows - m.mosaicRows() - 2
		if h < minSteps {
			h = minSteps
		}
		m.steps.Height = h
		m.logs.Height = h
	}
	if !m.snap.LastUpdated.Equal(m.stepsFrom) {
		m.stepsFrom = m.snap.LastUpdated
		m.steps.SetContent(renderSteps(m.snap.Steps, m.steps.Width, m.styles))
	}
	if m.showLogs && time.Since(m.logsRead) >= logInterval {
		m.reloadLogs()
	}
}

// reloadLogs re-reads the log file, following the end unless the user
// scrolled up.
func (m *Model) reloadLogs() {
	m.logsRead = time.Now()
	if m.cfg == nil || m.cfg.LogFile == "" {
		m.logs.SetContent(m.styles.MutedText.Render("logging to a file is not configured"))
		return
	}
	entries, err := logtail.Tail(m.cfg.LogFile, logLines)
	if err != nil {
		m.logs.SetContent(m.styles.DangerText.Render(err.Error()))
		return
	}
	follow := m.logs.AtBottom()
	m.logs.SetContent(renderLogs(entries, m.styles))
	if follow {
		m.logs.GotoBottom()
	}
}

func (m *Model) layoutSteps() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.steps.Width = w
	m.logs.Width = w
	m.stepsFrom = time.Time{}
	m.logsRead = time.Time{}
	m.refresh()
}

func (m Model) analyzeCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return analysisDoneMsg{state: ctrl.Analyze()}
	}
}

func (m Model) stepsCmd(optimize bool) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return stepsDoneMsg{state: ctrl.GenerateSteps(optimize)}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// mosaicWidth is the room left for the mosaic next to the side panel.
func (m Model) mosaicWidth() int {
	if m.width == 0 {
		return 0
	}
	if w := m.width - sideWidth - 6; w > 0 {
		return w
	}
	return 1
}

// mosaicRows is the rendered height of the mosaic at the current zoom.
func (m Model) mosaicRows() int {
	if !m.snap.HasGuide {
		return 3
	}
	return m.snap.Grid.Height * m.zoom
}

func (m Model) clampZoom(zoom int) int {
	g := m.snap.Grid
	zoom = grid.ClampZoom(zoom, g.Width, cellCols, m.mosaicWidth())
	if m.height > 0 {
		// Leave room for the steps panel under the mosaic.
		zoom = grid.ClampZoom(zoom, g.Height, 1, m.height-chromeRows-minSteps-2)
	}
	return zoom
}

func brickIndex(msg tea.KeyMsg) int {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return -1
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return -1
	}
	return int(r - '1')
}
