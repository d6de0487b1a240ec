package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Row is one record as returned by the store: column name to raw cell value.
// Cell values can be strings, json.Number, nested objects or lists.
type Row map[string]any

// Value returns the first present, non-blank cell among keys. Keys are
// aliases for the same column (the store app has been renamed over time).
func (r Row) Value(keys ...string) any {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// String returns the first non-blank cell among keys rendered as trimmed text.
func (r Row) String(keys ...string) string {
	return Text(r.Value(keys...))
}

// Text renders a raw cell as text: strings are trimmed, numbers printed,
// wrapped objects unwrapped and lists joined with ", ".
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case map[string]any:
		for _, key := range []string{"value", "displayValue", "text", "label"} {
			if inner, ok := val[key]; ok {
				return Text(inner)
			}
		}
		return ""
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := Text(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
