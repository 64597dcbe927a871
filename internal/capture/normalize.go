package capture

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize produces the identity key for a project name:
// trimmed, lowercased, internal whitespace collapsed to single spaces.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// CountChars returns the rune count of text.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
