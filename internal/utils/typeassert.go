// Package utils provides helpers for working with decoded YAML trees.
package utils

import (
	"fmt"
	"strings"
)

// GetString safely extracts a string from a map, returning defaultVal if not found or wrong type.
func GetString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return defaultVal
}

// GetFloat64 safely extracts a number from a map as float64.
// Integer values decoded from YAML are converted.
func GetFloat64(m map[string]any, key string, defaultVal float64) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return defaultVal, false
}

// GetInt safely extracts an int from a map.
// Also handles int64 and integral float64 values.
func GetInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// GetMap safely extracts a nested map from a map.
// Maps with non-string keys are normalized.
func GetMap(m map[string]any, key string) map[string]any {
	return AsMap(m[key])
}

// AsMap returns v as a string-keyed map, or nil if v is not a map.
func AsMap(v any) map[string]any {
	switch mv := v.(type) {
	case map[string]any:
		return mv
	case map[any]any:
		out := make(map[string]any, len(mv))
		for k, val := range mv {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

// LookupFold finds key in m ignoring case. It returns the key as spelled in
// the map so callers can write back under the original spelling.
func LookupFold(m map[string]any, key string) (string, any, bool) {
	if v, ok := m[key]; ok {
		return key, v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return k, v, true
		}
	}
	return "", nil, false
}

// EnsureList wraps a scalar into a single-element list; lists pass through
// and nil becomes an empty list.
func EnsureList(v any) []any {
	switch lv := v.(type) {
	case nil:
		return []any{}
	case []any:
		return lv
	case []string:
		out := make([]any, len(lv))
		for i, s := range lv {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

// DeepCopy returns a copy of a decoded YAML value that shares no maps or
// slices with the input. Scalars are returned as is.
func DeepCopy(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, val := range tv {
			out[k] = DeepCopy(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(tv))
		for k, val := range tv {
			out[fmt.Sprint(k)] = DeepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, val := range tv {
			out[i] = DeepCopy(val)
		}
		return out
	}
	return v
}

// DeepCopyMap is DeepCopy for the common map case. A nil map stays nil.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return DeepCopy(m).(map[string]any)
}
