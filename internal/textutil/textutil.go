// Package textutil provides text processing utilities for tagging.
package textutil

import "regexp"

var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize extracts word tokens from text (Unicode-aware, matching
// Python's (?u)\b\w+\b).
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a
// single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}
