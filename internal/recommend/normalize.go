package recommend

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "café" -> "cafe").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeText prepares free text for keyword matching (lowercase, no diacritics, spaces for dashes).
func NormalizeText(text string) string {
	text = RemoveDiacritics(text)
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "-", " ")
	return text
}
