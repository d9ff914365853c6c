package application

import (
	"strings"
)

// NormalizeTags splits every raw value on commas, trims and lowercases the parts,
// drops empties and duplicates, and keeps first-occurrence order.
// It accepts both a structured list and a single delimited string.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))

	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			tag := strings.ToLower(strings.TrimSpace(part))
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	return tags
}

// hasAnyTag reports whether tags contains one of candidates. Both sides are already normalized.
func hasAnyTag(tags []string, candidates ...string) bool {
	for _, t := range tags {
		for _, c := range candidates {
			if t == c {
				return true
			}
		}
	}
	return false
}
