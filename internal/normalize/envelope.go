// Package normalize decodes the loosely-shaped JSON the legacy backend
// produces. List endpoints there return a bare array, {"results": [...]},
// or {"<entity>": [...]} depending on the view; callers here get one decode
// path and a hard error for anything else.
package normalize

import (
	"encoding/json"
	"fmt"
)

// DecodeList extracts the element list from a legacy list response.
// key names the entity wrapper to accept (e.g. "categories", "products").
// Unknown shapes are an error, never an empty default.
func DecodeList(raw []byte, key string) ([]json.RawMessage, error) {
	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("legacy response is neither array nor object: %w", err)
	}

	for _, k := range []string{"results", key} {
		if k == "" {
			continue
		}
		inner, ok := envelope[k]
		if !ok {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, fmt.Errorf("legacy %q field is not an array: %w", k, err)
		}
		return list, nil
	}

	return nil, fmt.Errorf("legacy response has no recognizable list (looked for %q and \"results\")", key)
}

// Number coerces a JSON value that may arrive as a number, numeric string,
// or null into a float64, falling back when it is none of those.
func Number(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f
		}
	}
	return fallback
}

// Int is Number truncated to an int.
func Int(v any, fallback int) int {
	return int(Number(v, float64(fallback)))
}

// Bool coerces bools and their common string/number spellings.
func Bool(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		switch b {
		case "true", "True", "1":
			return true
		case "false", "False", "0":
			return false
		}
	}
	return fallback
}

// Str coerces a value into a string, dropping null and non-strings.
func Str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
