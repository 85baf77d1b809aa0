package options

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BaseBrickType is the 1x1 unit every guide needs to fill single cells.
const BaseBrickType = "1x1"

// AllowedBrickTypes is the allow-list of brick identifiers, in display order.
var AllowedBrickTypes = []string{"1x1", "1x2", "1x3", "1x4", "1x5", "2x2", "2x3", "2x4", "2x5"}

// AutoBrickPreset is the candidate set used when the service picks sizes.
var AutoBrickPreset = []string{"1x1", "1x2", "1x3", "2x2", "2x3"}

// BrickPresets are the named selections offered in manual mode.
var BrickPresets = map[string][]string{
	"basic":  {"1x1", "1x2", "1x3", "2x2", "2x3"},
	"detail": AllowedBrickTypes,
	"easy":   {"1x1", "1x3", "1x4", "1x5", "2x3", "2x4", "2x5"},
	"all":    AllowedBrickTypes,
	"clear":  {BaseBrickType},
}

var allowedSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AllowedBrickTypes))
	for _, id := range AllowedBrickTypes {
		set[id] = struct{}{}
	}
	return set
}()

// IsAllowedBrickType reports whether id is on the allow-list.
func IsAllowedBrickType(id string) bool {
	_, ok := allowedSet[strings.TrimSpace(id)]
	return ok
}

// FilterBrickTypes keeps allow-listed identifiers from input in first-seen
// order without duplicates, and guarantees BaseBrickType is present exactly
// once. input may be a slice, a single identifier or a JSON-encoded array.
// The result is never empty.
func FilterBrickTypes(input any) []string {
	candidates := brickCandidates(input)
	seen := make(map[string]struct{}, len(candidates)+1)
	out := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		id := strings.TrimSpace(candidateString(c))
		if id == "" {
			continue
		}
		if _, ok := allowedSet[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if _, ok := seen[BaseBrickType]; !ok {
		out = append([]string{BaseBrickType}, out...)
	}
	return out
}

// ToggleBrickType adds or removes id from types. BaseBrickType cannot be
// removed and unknown identifiers are ignored.
func ToggleBrickType(types []string, id string) []string {
	id = strings.TrimSpace(id)
	if id == BaseBrickType || !IsAllowedBrickType(id) {
		return FilterBrickTypes(types)
	}
	next := make([]string, 0, len(types)+1)
	removed := false
	for _, t := range types {
		if t == id {
			removed = true
			continue
		}
		next = append(next, t)
	}
	if !removed {
		next = append(next, id)
	}
	return FilterBrickTypes(next)
}

// ApplyBrickPreset returns the selection for a named preset.
func ApplyBrickPreset(name string) ([]string, error) {
	preset, ok := BrickPresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown brick preset %q", name)
	}
	return FilterBrickTypes(preset), nil
}

// brickCandidates flattens the accepted input shapes into a list. It returns
// nil for shapes that cannot hold brick identifiers.
func brickCandidates(input any) []any {
	switch v := input.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return decoded
			}
		}
		return []any{trimmed}
	default:
		return nil
	}
}

func candidateString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return ""
	}
}
