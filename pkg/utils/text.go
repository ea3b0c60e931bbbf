package utils

import "strings"

var tokenReplacer = strings.NewReplacer(
	"-", "_",
	" ", "_",
	"\t", "_",
)

// NormalizeToken turns free-form enum input ("Wants Kids", "never-smokes")
// into the snake_case form stored in attribute columns.
func NormalizeToken(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	input = tokenReplacer.Replace(input)
	for strings.Contains(input, "__") {
		input = strings.ReplaceAll(input, "__", "_")
	}
	return strings.Trim(input, "_")
}

// SplitList splits a comma or semicolon separated cell into normalized tokens,
// dropping empty entries.
func SplitList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := NormalizeToken(f); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
