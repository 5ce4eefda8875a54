package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitTokens splits raw on sep, trims every piece and drops the empty ones.
func SplitTokens(raw string, sep string) []string {
	parts := strings.Split(raw, sep)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// HasWordContent checks if a string contains at least one letter or digit
func HasWordContent(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// IsValidQuery checks the trimmed rune length of a search query against bounds.
// A zero bound is ignored. Empty queries are always valid: they list everything.
func IsValidQuery(s string, minLen, maxLen int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n == 0 {
		return true
	}
	if minLen > 0 && n < minLen {
		return false
	}
	if maxLen > 0 && n > maxLen {
		return false
	}
	return true
}
