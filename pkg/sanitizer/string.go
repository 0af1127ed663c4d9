package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

func NormalizeCity(city string) string {
	return TrimAndNormalize(city)
}

// NormalizeQuery lowercases search text so popularity counts are
// case-insensitive.
func NormalizeQuery(query string) string {
	return strings.ToLower(TrimAndNormalize(query))
}
