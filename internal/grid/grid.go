// Package grid rebuilds a dense mosaic from the sparse shapes a guide payload
// may use: a flat brick list, bricks nested in groups, or per-row cells.
package grid

import (
	"encoding/json"
	"fmt"

	"github.com/five82/brickguide/internal/loose"
)

const (
	// Background fills cells no record covers.
	Background = "#F3F4F6"
	// MissingColor is used for records that carry no color.
	MissingColor = "#E5E7EB"

	DefaultSize = 16
	MaxSize     = 512

	// MaxZoom bounds the terminal cell width multiplier.
	MaxZoom = 4
)

var (
	widthPaths  = []string{"meta.gridWidth", "meta.width", "gridWidth", "width"}
	heightPaths = []string{"meta.gridHeight", "meta.height", "gridHeight", "height"}
	brickPaths  = []string{"bricks", "mosaic.bricks", "result.bricks", "meta.bricks"}
	rowKeys     = []string{"y", "rowIndex", "row"}
	cellKeys    = []string{"cells", "rowCells", "pixels", "items", "data"}
	colKeys     = []string{"x", "col", "column"}
	colorKeys   = []string{"colorHex", "hex", "color", "fill", "value"}
)

// Grid is a dense Width x Height matrix of color strings in row-major order.
type Grid struct {
	Width  int
	Height int
	Cells  []string
}

type cell struct {
	x, y  int
	color string
}

// New returns a grid filled with Background.
func New(width, height int) Grid {
	g := Grid{Width: width, Height: height, Cells: make([]string, width*height)}
	for i := range g.Cells {
		g.Cells[i] = Background
	}
	return g
}

// Reconstruct builds the grid for a decoded guide document. It never fails;
// unusable input yields an all-background grid of the discovered size.
func Reconstruct(doc map[string]any) Grid {
	w := dimension(doc, widthPaths)
	h := dimension(doc, heightPaths)
	g := New(w, h)
	for _, c := range collect(doc, w, h) {
		g.set(c.x, c.y, c.color)
	}
	return g
}

// FromJSON decodes raw and reconstructs it.
func FromJSON(raw []byte) (Grid, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Grid{}, fmt.Errorf("decode guide: %w", err)
	}
	return Reconstruct(doc), nil
}

// At returns the color at (x, y), or "" when out of range.
func (g Grid) At(x, y int) string {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return ""
	}
	return g.Cells[y*g.Width+x]
}

// Filled counts cells that differ from Background.
func (g Grid) Filled() int {
	n := 0
	for _, c := range g.Cells {
		if c != Background {
			n++
		}
	}
	return n
}

// Rows returns the grid as a slice of rows sharing the underlying storage.
func (g Grid) Rows() [][]string {
	rows := make([][]string, g.Height)
	for y := range rows {
		rows[y] = g.Cells[y*g.Width : (y+1)*g.Width]
	}
	return rows
}

// Scale repeats every cell zoom times in both directions. A zoom below 1 is
// treated as 1.
func (g Grid) Scale(zoom int) Grid {
	if zoom <= 1 {
		return g
	}
	out := Grid{Width: g.Width * zoom, Height: g.Height * zoom}
	out.Cells = make([]string, out.Width*out.Height)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Cells[y*out.Width+x] = g.Cells[(y/zoom)*g.Width+x/zoom]
		}
	}
	return out
}

// ClampZoom limits zoom so a grid of gridWidth cells, each cellCols terminal
// columns wide at zoom 1, fits in available columns. The result is within
// [1, MaxZoom].
func ClampZoom(zoom, gridWidth, cellCols, available int) int {
	limit := MaxZoom
	if gridWidth > 0 && cellCols > 0 && available > 0 {
		if fit := available / (gridWidth * cellCols); fit < limit {
			limit = fit
		}
	}
	if limit < 1 {
		limit = 1
	}
	switch {
	case zoom < 1:
		return 1
	case zoom > limit:
		return limit
	default:
		return zoom
	}
}

func (g Grid) set(x, y int, color string) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Cells[y*g.Width+x] = color
}

func dimension(doc map[string]any, paths []string) int {
	for _, p := range paths {
		v, ok := loose.Path(doc, p)
		if !ok {
			continue
		}
		if n, ok := loose.Int(v); ok && n > 0 && n <= MaxSize {
			return n
		}
	}
	return DefaultSize
}

func collect(doc map[string]any, w, h int) []cell {
	if direct, ok := loose.FirstList(doc, brickPaths...); ok && len(direct) > 0 {
		return records(direct, -1)
	}

	groups, _ := loose.FirstList(doc, "groups")
	if len(groups) == 0 {
		return nil
	}

	var nested []any
	for _, g := range groups {
		if bricks, ok := loose.FirstList(g, "bricks"); ok {
			nested = append(nested, bricks...)
		}
	}
	if len(nested) > 0 {
		return records(nested, -1)
	}

	var out []cell
	for gi, g := range groups {
		y := gi
		if v, ok := loose.First(g, rowKeys...); ok {
			n, ok := loose.Int(v)
			if !ok {
				continue
			}
			y = n
		}
		if y < 0 || y >= h {
			continue
		}
		items, ok := loose.FirstList(g, cellKeys...)
		if !ok || len(items) == 0 {
			continue
		}
		if _, isString := items[0].(string); isString {
			for x := 0; x < len(items) && x < w; x++ {
				if color, ok := loose.String(items[x]); ok {
					out = append(out, cell{x: x, y: y, color: color})
				}
			}
			continue
		}
		out = append(out, records(items, y)...)
	}
	return out
}

// records reads {x, y, color} records. A record's position in items stands in
// for a missing x; rowY stands in for a missing y when it is not negative.
func records(items []any, rowY int) []cell {
	out := make([]cell, 0, len(items))
	for i, item := range items {
		if _, ok := loose.Map(item); !ok {
			continue
		}
		x := i
		if v, ok := loose.First(item, colKeys...); ok {
			n, ok := loose.Int(v)
			if !ok {
				continue
			}
			x = n
		} else if rowY < 0 {
			continue
		}
		y := rowY
		if v, ok := loose.First(item, "y", "row"); ok {
			n, ok := loose.Int(v)
			if !ok {
				continue
			}
			y = n
		}
		if y < 0 {
			continue
		}
		color, ok := loose.FirstString(item, colorKeys...)
		if !ok {
			color = MissingColor
		}
		out = append(out, cell{x: x, y: y, color: color})
	}
	return out
}
