package security

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// MaxDisplayNameRunes bounds display names coming from imports.
const MaxDisplayNameRunes = 64

// Age bounds accepted for imported profiles.
const (
	MinProfileAge = 18
	MaxProfileAge = 120
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	// Trim whitespace
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Limit length
	if len(input) > 1000 {
		input = input[:1000]
	}

	return input
}

// SanitizeHTML removes all HTML tags
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// CleanDisplayName strips markup and control characters, collapses
// whitespace and truncates to MaxDisplayNameRunes. The result is plain text,
// not HTML: entities escaped by the policy are decoded again.
func CleanDisplayName(input string) string {
	input = html.UnescapeString(SanitizeHTML(SanitizeString(input)))
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
	input = strings.Join(strings.Fields(input), " ")

	runes := []rune(input)
	if len(runes) > MaxDisplayNameRunes {
		runes = runes[:MaxDisplayNameRunes]
	}
	return strings.TrimSpace(string(runes))
}

// ValidateAge checks if age is within valid range
func ValidateAge(age int) bool {
	return age >= MinProfileAge && age <= MaxProfileAge
}
