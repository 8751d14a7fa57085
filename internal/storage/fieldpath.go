package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SplitPath breaks a dotted field path into its segments.
func SplitPath(path string) []string {
	return strings.Split(path, ".")
}

// ApplyUpdates writes dotted-path updates into fields, creating the nested
// maps on the way. Keys are applied in sorted order so a parent always lands
// before its children.
func ApplyUpdates(fields Fields, updates map[string]any) error {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		segs := SplitPath(k)
		node := map[string]any(fields)
		for i, seg := range segs[:len(segs)-1] {
			next, ok := node[seg]
			if !ok || next == nil {
				child := make(map[string]any)
				node[seg] = child
				node = child
				continue
			}
			child, ok := asMap(next)
			if !ok {
				return fmt.Errorf("field %q is not a map", strings.Join(segs[:i+1], "."))
			}
			node[seg] = child
			node = child
		}
		node[segs[len(segs)-1]] = updates[k]
	}
	return nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Fields:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// CloneFields returns a deep copy through JSON, so numbers come back as
// float64 and times as RFC 3339 strings.
func CloneFields(f Fields) (Fields, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if out == nil {
		out = Fields{}
	}
	return out, nil
}
