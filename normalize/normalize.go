// Package normalize cleans raw document text before field matching.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reMultiSpace = regexp.MustCompile(`\s{2,}`)
	// Units are only stripped right after a digit on the same line. A run of
	// unit tokens is removed in one go so a second pass finds nothing left
	// to strip.
	reUnitSuffix = regexp.MustCompile(`(?i)(\d)(?:[ \t]*(?:mg/dl|g/dl|u/l|years)\b)+`)
)

// Normalize rewrites text in a fixed order: underscores become spaces,
// whitespace runs collapse to one space, and known unit tokens following a
// number are dropped ("Age: 45 years" -> "Age: 45"). Non-ASCII whitespace
// such as the no-break spaces PDF extractors emit is treated as a space.
func Normalize(text string) string {
	if text == "" {
		return text
	}
	text = strings.Map(asciiSpace, text)
	text = strings.ReplaceAll(text, "_", " ")
	text = reMultiSpace.ReplaceAllString(text, " ")
	text = reUnitSuffix.ReplaceAllString(text, "$1")
	return text
}

// asciiSpace maps Unicode whitespace outside ASCII to ' '; RE2's \s only
// knows the ASCII set.
func asciiSpace(r rune) rune {
	if r > unicode.MaxASCII && unicode.IsSpace(r) {
		return ' '
	}
	return r
}
