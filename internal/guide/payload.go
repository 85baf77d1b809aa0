package guide

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/five82/brickguide/internal/loose"
)

// Payload is a guide document exactly as the service returned it. The
// service has changed field names over time, so fields are read through
// accessors that tolerate every shape seen so far. All fields are optional.
type Payload struct {
	raw json.RawMessage
	doc map[string]any
}

// Summary is the headline block of a guide.
type Summary struct {
	TotalBricks   int
	UniqueTypes   int
	Difficulty    string
	EstimatedTime string
}

// PaletteEntry is one color of the guide palette.
type PaletteEntry struct {
	Color string
	Name  string
	Count int
	Types []string
}

// Step is one construction step or group.
type Step struct {
	Number      int
	Title       string
	Description string
	BrickIDs    []string
	BrickCount  int
	Items       []string
}

// DecodePayload parses a guide document. Anything but a JSON object is an
// invalid response.
func DecodePayload(raw []byte) (*Payload, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, newError(KindInvalidResponse, 0, "guide payload is not a JSON object", err)
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return &Payload{raw: cp, doc: doc}, nil
}

// NewPayload wraps an already decoded document.
func NewPayload(doc map[string]any) *Payload {
	raw, _ := json.Marshal(doc)
	return &Payload{raw: raw, doc: doc}
}

// Raw returns the original bytes.
func (p *Payload) Raw() json.RawMessage {
	if p == nil {
		return nil
	}
	return p.raw
}

// Document returns the decoded document. Callers must not modify it.
func (p *Payload) Document() map[string]any {
	if p == nil {
		return nil
	}
	return p.doc
}

// AnalysisID identifies the analysis for follow-up step generation.
func (p *Payload) AnalysisID() string {
	if p == nil {
		return ""
	}
	if id, ok := loose.FirstString(p.doc, "analysisId", "analysis_id", "meta.analysisId", "meta.analysis_id", "id"); ok {
		return id
	}
	if n, ok := loose.FirstInt(p.doc, "analysisId", "analysis_id", "id"); ok {
		return strconv.Itoa(n)
	}
	return ""
}

// Source reports where the guide came from, e.g. "sample" or "ai".
func (p *Payload) Source() string {
	if p == nil {
		return ""
	}
	s, _ := loose.FirstString(p.doc, "meta.source", "source")
	return s
}

// Summary returns the summary block and whether one was present.
func (p *Payload) Summary() (Summary, bool) {
	if p == nil {
		return Summary{}, false
	}
	block, ok := loose.Path(p.doc, "summary")
	if !ok {
		return Summary{}, false
	}
	if _, isMap := loose.Map(block); !isMap {
		if text, ok := loose.String(block); ok {
			return Summary{Difficulty: text}, true
		}
		return Summary{}, false
	}
	var s Summary
	s.TotalBricks, _ = loose.FirstInt(block, "totalBricks", "total_bricks", "total")
	s.UniqueTypes, _ = loose.FirstInt(block, "uniqueTypes", "unique_types")
	s.Difficulty, _ = loose.FirstString(block, "difficulty", "level")
	s.EstimatedTime, _ = loose.FirstString(block, "estimatedTime", "estimated_time")
	return s, true
}

// Palette returns the palette entries that carry a color.
func (p *Payload) Palette() []PaletteEntry {
	if p == nil {
		return nil
	}
	items, _ := loose.FirstList(p.doc, "palette", "colors")
	out := make([]PaletteEntry, 0, len(items))
	for _, item := range items {
		color, ok := loose.FirstString(item, "colorHex", "hex", "color")
		if !ok {
			continue
		}
		entry := PaletteEntry{Color: color}
		entry.Name, _ = loose.FirstString(item, "name", "label", "id")
		entry.Count, _ = loose.FirstInt(item, "count", "quantity")
		entry.Types = stringList(item, "types")
		if len(entry.Types) == 0 {
			if t, ok := loose.FirstString(item, "type"); ok {
				entry.Types = []string{t}
			}
		}
		out = append(out, entry)
	}
	return out
}

// PaletteTotal sums entry counts.
func PaletteTotal(entries []PaletteEntry) int {
	total := 0
	for _, e := range entries {
		if e.Count > 0 {
			total += e.Count
		}
	}
	return total
}

// Share returns the entry's rounded percentage of total, or -1 when total is
// zero.
func (e PaletteEntry) Share(total int) int {
	if total <= 0 {
		return -1
	}
	return (e.Count*100 + total/2) / total
}

// Steps returns the explicit step list, if the guide carries one.
func (p *Payload) Steps() []Step {
	if p == nil {
		return nil
	}
	items, _ := loose.FirstList(p.doc, "steps")
	return parseSteps(items)
}

// Groups returns the step/area groups of the guide.
func (p *Payload) Groups() []Step {
	if p == nil {
		return nil
	}
	items, _ := loose.FirstList(p.doc, "groups")
	return parseSteps(items)
}

// Tips returns assembly tips.
func (p *Payload) Tips() []string {
	if p == nil {
		return nil
	}
	return stringList(p.doc, "tips")
}

// ParseSteps reads a step-generation response: either {"steps": [...]} or a
// bare array.
func ParseSteps(raw []byte) ([]Step, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, newError(KindInvalidResponse, 0, "steps response is not JSON", err)
	}
	if items, ok := loose.List(doc); ok {
		return parseSteps(items), nil
	}
	if items, ok := loose.FirstList(doc, "steps", "result.steps", "data.steps"); ok {
		return parseSteps(items), nil
	}
	return nil, newError(KindInvalidResponse, 0, "steps response has no step list", nil)
}

func parseSteps(items []any) []Step {
	if len(items) == 0 {
		return nil
	}
	out := make([]Step, 0, len(items))
	for i, item := range items {
		if _, ok := loose.Map(item); !ok {
			if text, ok := loose.String(item); ok {
				out = append(out, Step{Number: i + 1, Title: text})
			}
			continue
		}
		s := Step{Number: i + 1}
		if n, ok := loose.FirstInt(item, "step", "number", "index", "id"); ok && n > 0 {
			s.Number = n
		}
		s.Title, _ = loose.FirstString(item, "title", "name")
		s.Description, _ = loose.FirstString(item, "description", "hint", "detail")
		s.BrickIDs = stringList(item, "brickIds", "brick_ids")
		if bricks, ok := loose.FirstList(item, "bricks"); ok {
			s.BrickCount = len(bricks)
		} else {
			s.BrickCount = len(s.BrickIDs)
		}
		s.Items = stringList(item, "items")
		if s.Title == "" {
			s.Title = "Step " + strconv.Itoa(s.Number)
		}
		out = append(out, s)
	}
	return out
}

func stringList(doc any, paths ...string) []string {
	items, ok := loose.FirstList(doc, paths...)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return out
}
