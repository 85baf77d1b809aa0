package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"github.com/five82/brickguide/internal/grid"
	"github.com/five82/brickguide/internal/guide"
	"github.com/five82/brickguide/internal/options"
	"github.com/five82/brickguide/internal/state"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"negative", -5 * time.Second, "now"},
		{"subsecond", 300 * time.Millisecond, "now"},
		{"seconds", 12 * time.Second, "12s ago"},
		{"minutes", 61 * time.Second, "1m ago"},
		{"hours", 2*time.Hour + 3*time.Minute, "2h ago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeDuration(tc.in); got != tc.want {
				t.Fatalf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	if got := truncateMiddle("short.png", 20); got != "short.png" {
		t.Fatalf("truncateMiddle short = %q", got)
	}
	got := truncateMiddle("/home/user/pictures/cat.png", 14)
	if n := len([]rune(got)); n != 14 {
		t.Fatalf("got %q (%d runes), want 14", got, n)
	}
	if !strings.HasSuffix(got, "cat.png") || !strings.Contains(got, "…") {
		t.Fatalf("got %q, want ellipsis and file name kept", got)
	}
}

func TestRenderMosaic_MergesRunsAndScales(t *testing.T) {
	g := grid.New(3, 2)
	g.Cells[0] = "#FF0000"
	g.Cells[1] = "#FF0000"

	out := renderMosaic(g, 1)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("rows = %d, want 2", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 3*cellCols {
			t.Fatalf("row %d width = %d, want %d", i, w, 3*cellCols)
		}
	}

	zoomed := strings.Split(renderMosaic(g, 2), "\n")
	if len(zoomed) != 4 {
		t.Fatalf("zoomed rows = %d, want 4", len(zoomed))
	}
	if w := lipgloss.Width(zoomed[0]); w != 6*cellCols {
		t.Fatalf("zoomed width = %d, want %d", w, 6*cellCols)
	}
}

func TestRenderPalette(t *testing.T) {
	styles := GetTheme("Dracula").Styles()
	if got := renderPalette(nil, styles); got != "" {
		t.Fatalf("empty palette rendered %q", got)
	}
	out := renderPalette([]guide.PaletteEntry{
		{Color: "#FACC15", Name: "Yellow", Count: 3},
		{Color: "#111111", Count: 1},
	}, styles)
	for _, want := range []string{"Palette", "Yellow", "75%", "#111111", "25%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("palette missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSteps(t *testing.T) {
	styles := GetTheme("Slate").Styles()
	out := renderSteps([]guide.Step{
		{Number: 1, Title: "Outline", BrickIDs: []string{"a", "b"}},
		{Description: "Fill the eyes.", Items: []string{"2x Black 1x1"}},
	}, 60, styles)

	for _, want := range []string{"1.", "Outline", "(2 bricks)", "2.", "Step 2", "Fill the eyes.", "• 2x Black 1x1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("steps missing %q:\n%s", want, out)
		}
	}
	if renderSteps(nil, 60, styles) != "" {
		t.Fatalf("no steps should render nothing")
	}
}

func TestRetryLabel(t *testing.T) {
	got := retryLabel(state.Retry{Attempt: 1, MaxAttempts: 3, Delay: 1234 * time.Millisecond, Reason: "service unavailable"})
	want := "attempt 1/3 failed, retrying in 1.2s: service unavailable"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("retryLabel mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsLabel(t *testing.T) {
	o := options.Coerce(map[string]any{"gridSize": "32x32", "colorLimit": 0, "brickTypes": []string{"2x2"}})
	got := optionsLabel(o)
	want := "grid 32x32 · unlimited · manual bricks: 1x1 2x2"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("optionsLabel mismatch (-want +got):\n%s", diff)
	}
}
