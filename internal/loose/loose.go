// Package loose reads values out of loosely typed documents: decoded JSON,
// TOML tables and ad hoc option maps whose field names and value types drift
// between producers.
//
// Lookups never fail loudly. A missing path, a nil value or a value of the
// wrong shape reports ok=false so callers can fall through to the next
// candidate.
package loose

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Path returns the value at the dotted path inside doc. Nil values are
// treated as absent.
func Path(doc any, path string) (any, bool) {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := Map(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, cur != nil
}

// First returns the value of the first path that resolves to a non-nil value.
func First(doc any, paths ...string) (any, bool) {
	for _, p := range paths {
		if v, ok := Path(doc, p); ok {
			return v, true
		}
	}
	return nil, false
}

// FirstString is First restricted to non-empty strings.
func FirstString(doc any, paths ...string) (string, bool) {
	for _, p := range paths {
		v, ok := Path(doc, p)
		if !ok {
			continue
		}
		if s, ok := String(v); ok {
			return s, true
		}
	}
	return "", false
}

// FirstInt is First restricted to values that coerce to an integer.
func FirstInt(doc any, paths ...string) (int, bool) {
	for _, p := range paths {
		v, ok := Path(doc, p)
		if !ok {
			continue
		}
		if n, ok := Int(v); ok {
			return n, true
		}
	}
	return 0, false
}

// FirstList returns the first path holding a list. Empty lists count.
func FirstList(doc any, paths ...string) ([]any, bool) {
	for _, p := range paths {
		v, ok := Path(doc, p)
		if !ok {
			continue
		}
		if l, ok := List(v); ok {
			return l, true
		}
	}
	return nil, false
}

// Map reports whether v is an object.
func Map(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	default:
		return nil, false
	}
}

// List reports whether v is an array, converting typed slices produced by
// Go callers into []any.
func List(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// String returns v when it is a non-empty string after trimming.
func String(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Number coerces v to a finite float64. Numeric strings are accepted; bools
// are not. Zero is a valid result and is reported with ok=true.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int coerces v to an int. Fractional values are rejected.
func Int(v any) (int, bool) {
	f, ok := Number(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// NormalizeKey folds a field name so that gridSize, grid_size, grid-size and
// "Grid Size" compare equal.
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		switch r {
		case '_', '-', ' ', '\t', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Lookup finds the first alias present in m, comparing normalized keys.
// Aliases must already be normalized. Nil values are treated as absent. When
// several spellings of one alias are present the lexically smallest key wins
// so results do not depend on map order.
func Lookup(m map[string]any, aliases ...string) (any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, alias := range aliases {
		for _, k := range keys {
			if NormalizeKey(k) == alias {
				return m[k], true
			}
		}
	}
	return nil, false
}
