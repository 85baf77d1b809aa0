// Package options is the single source of truth for analysis options.
//
// Option values reach the client from key handlers, saved preferences and
// older request shapes, each spelling field names and values its own way.
// Every call site passes what it has through Recognize or Coerce and consumes
// only the canonical AnalyzeOptions that comes out.
package options

import (
	"strconv"
	"strings"

	"github.com/five82/brickguide/internal/loose"
)

// GridSize is a square mosaic dimension preset such as "16x16".
type GridSize string

// BrickMode selects whether the service picks brick sizes itself.
type BrickMode string

const (
	ModeAuto   BrickMode = "auto"
	ModeManual BrickMode = "manual"
)

// GridPresets lists accepted grid sizes, smallest first.
var GridPresets = []GridSize{"16x16", "32x32", "48x48"}

// ColorLimitPresets lists accepted color limits. Zero means unlimited.
var ColorLimitPresets = []int{0, 8, 16, 24}

const (
	// Unlimited is the color limit that disables palette reduction.
	Unlimited = 0

	defaultColorLimit = 16
	defaultBrickMode  = ModeManual
)

// AnalyzeOptions is the canonical option record sent with every analysis.
type AnalyzeOptions struct {
	GridSize   GridSize
	ColorLimit int
	BrickMode  BrickMode
	BrickTypes []string
}

// Partial holds the fields Recognize could validate. Nil pointers and a nil
// BrickTypes slice mean the field was absent or invalid.
type Partial struct {
	GridSize   *GridSize
	ColorLimit *int
	BrickMode  *BrickMode
	BrickTypes []string
}

// Field aliases, already normalized with loose.NormalizeKey.
var (
	gridKeys  = []string{"gridsize", "grid"}
	colorKeys = []string{"colorlimit", "colors", "maxcolors", "colorcount"}
	modeKeys  = []string{"brickmode", "mode"}
	typeKeys  = []string{"bricktypes", "allowedbricktypes", "allowedbricks", "allowed"}
)

// Defaults returns the safe default record.
func Defaults() AnalyzeOptions {
	return Coerce(nil)
}

// Recognize extracts the recognizable, valid option fields from input. It
// returns nil when nothing in input is usable.
func Recognize(input map[string]any) *Partial {
	var p Partial
	found := false

	if v, ok := loose.Lookup(input, gridKeys...); ok {
		if g, ok := AcceptGridSize(v); ok {
			p.GridSize = &g
			found = true
		}
	}
	if v, ok := loose.Lookup(input, colorKeys...); ok {
		if n, ok := AcceptColorLimit(v); ok {
			p.ColorLimit = &n
			found = true
		}
	}
	if v, ok := loose.Lookup(input, modeKeys...); ok {
		if m, ok := AcceptBrickMode(v); ok {
			p.BrickMode = &m
			found = true
		}
	}
	if v, ok := loose.Lookup(input, typeKeys...); ok {
		if candidates := brickCandidates(v); candidates != nil {
			p.BrickTypes = FilterBrickTypes(candidates)
			found = true
		}
	}

	if !found {
		return nil
	}
	return &p
}

// Coerce always returns a complete record, substituting defaults for
// anything missing or invalid in input.
func Coerce(input map[string]any) AnalyzeOptions {
	base := AnalyzeOptions{
		GridSize:   GridPresets[0],
		ColorLimit: defaultColorLimit,
		BrickMode:  defaultBrickMode,
	}
	return Recognize(input).Apply(base)
}

// Apply overlays the recognized fields on base and returns the canonical
// result. A nil Partial applies nothing.
func (p *Partial) Apply(base AnalyzeOptions) AnalyzeOptions {
	out := base
	out.BrickTypes = append([]string(nil), base.BrickTypes...)
	if p == nil {
		return out.Canonical()
	}
	if p.GridSize != nil {
		out.GridSize = *p.GridSize
	}
	if p.ColorLimit != nil {
		out.ColorLimit = *p.ColorLimit
	}
	if p.BrickMode != nil {
		out.BrickMode = *p.BrickMode
	}
	if p.BrickTypes != nil {
		out.BrickTypes = append([]string(nil), p.BrickTypes...)
	}
	return out.Canonical()
}

// Canonical validates every field, substituting safe defaults. Calling it on
// a canonical record returns an equal record.
func (o AnalyzeOptions) Canonical() AnalyzeOptions {
	out := AnalyzeOptions{
		GridSize:   SafeGridSize(string(o.GridSize)),
		ColorLimit: SafeColorLimit(o.ColorLimit),
		BrickMode:  SafeBrickMode(string(o.BrickMode)),
	}
	if len(o.BrickTypes) == 0 && out.BrickMode == ModeAuto {
		out.BrickTypes = FilterBrickTypes(AutoBrickPreset)
	} else {
		out.BrickTypes = FilterBrickTypes(o.BrickTypes)
	}
	return out
}

// Map renders the record with canonical field names, suitable for prefs
// files and for feeding back into Recognize.
func (o AnalyzeOptions) Map() map[string]any {
	types := make([]any, len(o.BrickTypes))
	for i, t := range o.BrickTypes {
		types[i] = t
	}
	return map[string]any{
		"gridSize":   string(o.GridSize),
		"colorLimit": o.ColorLimit,
		"brickMode":  string(o.BrickMode),
		"brickTypes": types,
	}
}

// Equal reports whether two records carry the same values.
func (o AnalyzeOptions) Equal(other AnalyzeOptions) bool {
	if o.GridSize != other.GridSize || o.ColorLimit != other.ColorLimit || o.BrickMode != other.BrickMode {
		return false
	}
	if len(o.BrickTypes) != len(other.BrickTypes) {
		return false
	}
	for i := range o.BrickTypes {
		if o.BrickTypes[i] != other.BrickTypes[i] {
			return false
		}
	}
	return true
}

// ColorLimitLabel renders a color limit for display.
func ColorLimitLabel(n int) string {
	if n == Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(n) + " colors"
}

// AcceptGridSize returns the preset matching v, ignoring case and whitespace.
func AcceptGridSize(v any) (GridSize, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	g := GridSize(strings.Join(strings.Fields(strings.ToLower(s)), ""))
	for _, preset := range GridPresets {
		if g == preset {
			return g, true
		}
	}
	return "", false
}

// AcceptColorLimit coerces v to a color limit preset. The string "0" and the
// number 0 are both present values meaning unlimited.
func AcceptColorLimit(v any) (int, bool) {
	n, ok := loose.Int(v)
	if !ok {
		return 0, false
	}
	for _, preset := range ColorLimitPresets {
		if n == preset {
			return n, true
		}
	}
	return 0, false
}

// AcceptBrickMode matches auto or manual case-insensitively. The legacy
// misspelling "menual" is read as manual.
func AcceptBrickMode(v any) (BrickMode, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return ModeAuto, true
	case "manual", "menual":
		return ModeManual, true
	}
	return "", false
}

// SafeGridSize falls back to the smallest preset.
func SafeGridSize(v any) GridSize {
	if g, ok := AcceptGridSize(v); ok {
		return g
	}
	return GridPresets[0]
}

// SafeColorLimit falls back to 16 colors.
func SafeColorLimit(v any) int {
	if n, ok := AcceptColorLimit(v); ok {
		return n
	}
	return defaultColorLimit
}

// SafeBrickMode falls back to manual.
func SafeBrickMode(v any) BrickMode {
	if m, ok := AcceptBrickMode(v); ok {
		return m
	}
	return defaultBrickMode
}

// NextGridSize cycles through GridPresets.
func NextGridSize(g GridSize) GridSize {
	for i, preset := range GridPresets {
		if preset == g {
			return GridPresets[(i+1)%len(GridPresets)]
		}
	}
	return GridPresets[0]
}

// NextColorLimit cycles through ColorLimitPresets.
func NextColorLimit(n int) int {
	for i, preset := range ColorLimitPresets {
		if preset == n {
			return ColorLimitPresets[(i+1)%len(ColorLimitPresets)]
		}
	}
	return ColorLimitPresets[0]
}
