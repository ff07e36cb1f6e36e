package service

import (
	"encoding/json"
	"strings"
)

// ParseTags decodes the tags form field, a JSON array of strings. An empty
// input yields no tags.
func ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}, err
	}
	return NormalizeTags(tags), nil
}

// NormalizeTags trims and lowercases each tag, drops empties and keeps the
// first occurrence of duplicates.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
