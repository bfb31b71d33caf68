package util

import (
	"regexp"
	"strings"
)

var mentionRegex = regexp.MustCompile(`@\[([^\[\]]+)\]`)

// ExtractMentions deduplicated user ids mentioned as @[id], in order of appearance
func ExtractMentions(rawContent string) []string {
	matches := mentionRegex.FindAllStringSubmatch(rawContent, -1)

	seen := make(map[string]struct{})
	var ids []string

	for _, m := range matches {
		if len(m) > 1 {
			id := strings.TrimSpace(m[1])
			if id == "" {
				continue
			}
			if _, exists := seen[id]; !exists {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	return ids
}

// Dedup keeps the first occurrence of every non-empty trimmed value
func Dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
