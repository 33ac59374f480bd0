package validators

import (
	"strings"
	"unicode/utf8"
)

// MaxFilterLen caps list filter values such as city and area, in characters.
const MaxFilterLen = 100

// SanitizeFilter normalizes a list filter value: surrounding space is dropped,
// inner whitespace runs collapse to one space and the result is cut to
// maxRunes characters without splitting a multi-byte character.
func SanitizeFilter(input string, maxRunes int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(cleaned) <= maxRunes {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxRunes]))
}
