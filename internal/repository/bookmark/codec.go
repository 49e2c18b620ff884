// Package bookmark persists bookmarks in a hash store or a SQL database.
// Both backends satisfy the same usecase contracts and are interchangeable.
package bookmark

import (
	"encoding/json"
	"fmt"
)

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(s string) (map[string]any, error) {
	m := map[string]any{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
