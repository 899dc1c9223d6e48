package ai

import (
	"encoding/json"
	"strings"
)

// ExtractContent pulls reply text out of a vendor response body. Known
// shapes are tried in order and the first one present wins, even when its
// text is empty. Anything else is returned unchanged.
func ExtractContent(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return raw
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return raw
	}

	paths := [][]interface{}{
		{"choices", 0, "message", "content"},
		{"choices", 0, "delta", "content"},
		{"output", "text"},
		{"data", "choices", 0, "content"},
		{"content"},
	}
	for _, p := range paths {
		if s, ok := lookup(doc, p); ok {
			return s
		}
	}
	return raw
}

func lookup(node interface{}, path []interface{}) (string, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := node.(map[string]interface{})
			if !ok {
				return "", false
			}
			node, ok = m[key]
			if !ok {
				return "", false
			}
		case int:
			arr, ok := node.([]interface{})
			if !ok || len(arr) <= key {
				return "", false
			}
			node = arr[key]
		}
	}
	s, ok := node.(string)
	return s, ok
}
