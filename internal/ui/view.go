package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/brickguide/internal/grid"
	"github.com/five82/brickguide/internal/guide"
	"github.com/five82/brickguide/internal/logtail"
	"github.com/five82/brickguide/internal/options"
	"github.com/five82/brickguide/internal/state"
)

const (
	maxPaletteRows = 10
	maxTips        = 3
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderMosaicPanel(), m.renderSidePanel())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderInputLine(),
		body,
		m.renderStepsPanel(),
		m.renderMessage(),
		m.help.View(m.keys),
	)
}

func (m Model) renderHeader() string {
	bg := NewBgStyle(m.theme.Surface)
	st := m.styles.WithBackground(m.theme.Surface)

	parts := []string{
		bg.Render("▚ brickguide", st.Logo),
		m.styles.StatusStyle(m.snap.Status).Render(string(m.snap.Status)),
	}
	if m.snap.Busy() {
		parts = append(parts, m.spinner.View())
	}
	parts = append(parts, bg.Render(m.sourceLabel(), st.Text))
	if m.cfg != nil {
		api := truncateMiddle(m.cfg.APIBaseURL, 40)
		if m.cfg.Development() {
			api += " (dev)"
		}
		parts = append(parts, bg.Render(api, st.MutedText))
	}
	if !m.snap.LastUpdated.IsZero() {
		parts = append(parts, bg.Render("updated "+humanizeDuration(time.Since(m.snap.LastUpdated)), st.FaintText))
	}
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) sourceLabel() string {
	switch {
	case m.useSample:
		return "sample guide"
	case m.imagePath != "":
		return truncateMiddle(m.imagePath, 48)
	default:
		return "no image selected"
	}
}

func (m Model) renderInputLine() string {
	if m.editing {
		return m.input.View()
	}
	if r := m.snap.Retry; r != nil && m.snap.Busy() {
		return m.styles.WarningText.Render(retryLabel(*r))
	}
	if m.notice != "" {
		return m.styles.AccentText.Render(m.notice)
	}
	return m.styles.FaintText.Render(optionsLabel(m.opts))
}

func retryLabel(r state.Retry) string {
	label := fmt.Sprintf("attempt %d/%d failed, retrying in %s", r.Attempt, r.MaxAttempts, r.Delay.Round(100*time.Millisecond))
	if r.Reason != "" {
		label += ": " + r.Reason
	}
	return label
}

func optionsLabel(o options.AnalyzeOptions) string {
	return fmt.Sprintf("grid %s · %s · %s bricks: %s",
		o.GridSize, options.ColorLimitLabel(o.ColorLimit), o.BrickMode, strings.Join(o.BrickTypes, " "))
}

func (m Model) renderMosaicPanel() string {
	width := m.mosaicWidth()
	panel := m.styles.Panel.Width(width + 2)
	if !m.snap.HasGuide {
		return panel.Render(m.mosaicPlaceholder())
	}
	zoom := m.clampZoom(m.zoom)
	return panel.Render(renderMosaic(m.snap.Grid, zoom))
}

func (m Model) mosaicPlaceholder() string {
	switch m.snap.Status {
	case state.StatusRunning:
		return m.spinner.View() + m.styles.MutedText.Render(" analyzing image…")
	case state.StatusError:
		return m.styles.MutedText.Render("no guide; fix the problem below and press a")
	}
	if !m.useSample && m.imagePath == "" {
		return m.styles.MutedText.Render("press i to choose an image, or x for the sample guide")
	}
	return m.styles.MutedText.Render("press a to analyze")
}

// renderMosaic draws g at zoom with runs of equal color merged into one
// styled segment.
func renderMosaic(g grid.Grid, zoom int) string {
	rows := g.Scale(zoom).Rows()
	lines := make([]string, len(rows))
	for y, row := range rows {
		var b strings.Builder
		for x := 0; x < len(row); {
			run := 1
			for x+run < len(row) && row[x+run] == row[x] {
				run++
			}
			b.WriteString(swatch(row[x], run*cellCols))
			x += run
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSidePanel() string {
	sections := []string{m.renderOptions()}
	if m.snap.HasGuide {
		if s := m.renderSummary(); s != "" {
			sections = append(sections, s)
		}
		if p := renderPalette(m.snap.Guide.Palette(), m.styles); p != "" {
			sections = append(sections, p)
		}
		if t := m.renderTips(); t != "" {
			sections = append(sections, t)
		}
	}
	return m.styles.Panel.Width(sideWidth).Render(strings.Join(sections, "\n\n"))
}

func (m Model) renderOptions() string {
	st := m.styles
	lines := []string{
		st.AccentText.Render("Options"),
		st.MutedText.Render("grid   ") + st.Text.Render(string(m.opts.GridSize)),
		st.MutedText.Render("colors ") + st.Text.Render(options.ColorLimitLabel(m.opts.ColorLimit)),
		st.MutedText.Render("mode   ") + st.Text.Render(string(m.opts.BrickMode)),
	}
	selected := make(map[string]bool, len(m.opts.BrickTypes))
	for _, id := range m.opts.BrickTypes {
		selected[id] = true
	}
	var bricks []string
	for i, id := range options.AllowedBrickTypes {
		label := fmt.Sprintf("%d:%s", i+1, id)
		if selected[id] {
			bricks = append(bricks, st.SuccessText.Render(label))
		} else {
			bricks = append(bricks, st.FaintText.Render(label))
		}
	}
	lines = append(lines, st.MutedText.Render("bricks"))
	for i := 0; i < len(bricks); i += 3 {
		end := min(i+3, len(bricks))
		lines = append(lines, "  "+strings.Join(bricks[i:end], " "))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	s, ok := m.snap.Guide.Summary()
	if !ok {
		return ""
	}
	st := m.styles
	lines := []string{st.AccentText.Render("Summary")}
	if s.TotalBricks > 0 {
		lines = append(lines, fmt.Sprintf("%s %d", st.MutedText.Render("bricks    "), s.TotalBricks))
	}
	if s.UniqueTypes > 0 {
		lines = append(lines, fmt.Sprintf("%s %d", st.MutedText.Render("types     "), s.UniqueTypes))
	}
	if s.Difficulty != "" {
		lines = append(lines, st.MutedText.Render("difficulty ")+s.Difficulty)
	}
	if s.EstimatedTime != "" {
		lines = append(lines, st.MutedText.Render("time       ")+s.EstimatedTime)
	}
	return strings.Join(lines, "\n")
}

func renderPalette(entries []guide.PaletteEntry, st Styles) string {
	if len(entries) == 0 {
		return ""
	}
	total := guide.PaletteTotal(entries)
	lines := []string{st.AccentText.Render("Palette")}
	for i, e := range entries {
		if i == maxPaletteRows {
			lines = append(lines, st.FaintText.Render(fmt.Sprintf("+%d more", len(entries)-i)))
			break
		}
		name := e.Name
		if name == "" {
			name = e.Color
		}
		row := swatch(e.Color, 2) + " " + fmt.Sprintf("%-14s %4d", truncateMiddle(name, 14), e.Count)
		if share := e.Share(total); share >= 0 {
			row += st.MutedText.Render(fmt.Sprintf(" %3d%%", share))
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTips() string {
	tips := m.snap.Guide.Tips()
	if len(tips) == 0 {
		return ""
	}
	wrap := m.styles.MutedText.Width(sideWidth - 2)
	lines := []string{m.styles.AccentText.Render("Tips")}
	for i, tip := range tips {
		if i == maxTips {
			break
		}
		lines = append(lines, wrap.Render("• "+tip))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStepsPanel() string {
	st := m.styles
	if m.showLogs {
		title := st.AccentText.Render("Log") + st.MutedText.Render("  "+truncateMiddle(m.logPath(), 60))
		return st.Panel.Width(m.logs.Width + 2).Render(title + "\n" + m.logs.View())
	}
	title := st.AccentText.Render("Steps")
	var content string
	switch {
	case m.snap.StepsStatus == state.StatusRunning:
		content = m.spinner.View() + st.MutedText.Render(" building steps…")
	case len(m.snap.Steps) == 0:
		hint := "press s for steps, S for optimized steps"
		if !m.snap.HasGuide {
			hint = "analyze an image first"
		}
		content = st.MutedText.Render(hint)
	default:
		title += st.MutedText.Render(fmt.Sprintf("  %d steps, %3.0f%%", len(m.snap.Steps), m.steps.ScrollPercent()*100))
		content = m.steps.View()
	}
	return st.Panel.Width(m.steps.Width + 2).Render(title + "\n" + content)
}

// renderSteps renders the step list as viewport content.
func renderSteps(steps []guide.Step, width int, st Styles) string {
	if len(steps) == 0 {
		return ""
	}
	wrap := st.Text.Width(max(width-2, 10))
	var b strings.Builder
	for i, s := range steps {
		n := s.Number
		if n <= 0 {
			n = i + 1
		}
		title := s.Title
		if title == "" {
			title = fmt.Sprintf("Step %d", n)
		}
		b.WriteString(st.AccentText.Render(fmt.Sprintf("%d.", n)))
		b.WriteString(" ")
		b.WriteString(st.Text.Bold(true).Render(title))
		if count := stepBrickCount(s); count > 0 {
			b.WriteString(st.MutedText.Render(fmt.Sprintf("  (%d bricks)", count)))
		}
		b.WriteString("\n")
		if s.Description != "" {
			b.WriteString(wrap.Render(s.Description))
			b.WriteString("\n")
		}
		for _, item := range s.Items {
			b.WriteString(st.MutedText.Render("  • " + item))
			b.WriteString("\n")
		}
		if i < len(steps)-1 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) logPath() string {
	if m.cfg == nil {
		return ""
	}
	return m.cfg.LogFile
}

// renderLogs renders log entries as viewport content, highlighting
// failures.
func renderLogs(entries []logtail.Entry, st Styles) string {
	if len(entries) == 0 {
		return st.MutedText.Render("nothing logged yet")
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		stamp := "        "
		if !e.Time.IsZero() {
			stamp = e.Time.Format("15:04:05")
		}
		msg := st.Text.Render(e.Message)
		if e.Problem {
			msg = st.DangerText.Render(e.Message)
		}
		lines[i] = st.FaintText.Render(stamp) + " " + msg
	}
	return strings.Join(lines, "\n")
}

func stepBrickCount(s guide.Step) int {
	if s.BrickCount > 0 {
		return s.BrickCount
	}
	return len(s.BrickIDs)
}

// renderMessage shows the most relevant problem: an analysis error, a steps
// error, or the offline hint.
func (m Model) renderMessage() string {
	st := m.styles
	if msg := guide.UserMessage(m.snap.LastError); msg != "" {
		line := st.DangerText.Render(msg)
		if m.snap.IsOffline() && !m.useSample {
			line += st.MutedText.Render("  (press x to try the sample guide)")
		}
		return line
	}
	if msg := guide.UserMessage(m.snap.StepsError); msg != "" {
		return st.DangerText.Render(msg)
	}
	return ""
}
