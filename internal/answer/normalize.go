package answer

import (
	"sort"
	"strings"
)

// Normalize converts a raw answer value into the canonical set of option
// letters, returned as a sorted slice of distinct single uppercase letters.
// A string is scanned for Latin letters case-insensitively; a slice unions
// the letters extracted from every string element. Any other value yields
// an empty set. Malformed input never produces an error: an answer without
// letters is simply empty.
func Normalize(raw any) []string {
	set := make(map[string]struct{})

	switch v := raw.(type) {
	case string:
		collectLetters(set, v)
	case []string:
		for _, item := range v {
			collectLetters(set, item)
		}
	case []any:
		// JSON arrays decode as []any; non-string elements are ignored.
		for _, item := range v {
			if s, ok := item.(string); ok {
				collectLetters(set, s)
			}
		}
	}

	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	return letters
}

func collectLetters(set map[string]struct{}, s string) {
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			set[string(r)] = struct{}{}
		}
	}
}
