// backend/src/utils/text_utils.go
package utils

import (
	"strings"
	"unicode"
)

// NormalizeAccount strips every whitespace rune from an account identifier so
// that "BE68 5390 0754 7034" and "BE68539007547034" compare equal.
func NormalizeAccount(account string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, account)
}

// Tokenize lower-cases a free-text field and splits it into keyword tokens,
// dropping tokens shorter than minLen (bank communications are full of
// two-letter noise like "DE", "NR").
func Tokenize(text string, minLen int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
