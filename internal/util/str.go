package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize collapses all whitespace runs (including non-breaking spaces and
// their html entities) into single spaces and trims the result.
func Normalize(input string) string {
	result := input

	result = strings.ReplaceAll(result, "\u00a0", " ")
	result = strings.ReplaceAll(result, "&nbsp;", " ")
	result = strings.ReplaceAll(result, "&#160;", " ")

	return strings.Join(strings.Fields(result), " ")
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}

func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
