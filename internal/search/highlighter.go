package search

import (
	"strings"
	"unicode"
)

// Excerpt returns up to maxLen runes of content, starting shortly before the
// first occurrence of any query term so the match is visible. Content without
// a match is truncated from the start. maxLen <= 0 returns content unchanged.
func Excerpt(content, query string, maxLen int) string {
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return content
	}
	start := 0
	lower := []rune(strings.ToLower(content))
	for _, term := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if pos := runeIndex(lower, []rune(term)); pos >= 0 {
			start = pos - maxLen/4
			break
		}
	}
	if start < 0 {
		start = 0
	}
	if start+maxLen > len(runes) {
		start = len(runes) - maxLen
	}
	out := strings.TrimSpace(string(runes[start : start+maxLen]))
	if start > 0 {
		out = "..." + out
	}
	if start+maxLen < len(runes) {
		out += "..."
	}
	return out
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
