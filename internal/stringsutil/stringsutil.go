package stringsutil

import "strings"

// SplitNonEmpty splits s by sep, trims each part, and drops empties.
func SplitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// ShortHash truncates a commit hash to n characters.
func ShortHash(hash string, n int) string {
	if len(hash) > n {
		return hash[:n]
	}
	return hash
}

// Snip collapses newlines in s and truncates it to n characters, appending
// an ellipsis when content was dropped. Used for message and diff excerpts
// in example tables.
func Snip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// UniqueStrings returns a new slice with duplicates removed, preserving
// first-seen order.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}
