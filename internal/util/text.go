package util

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces  = regexp.MustCompile(`\s+`)
	reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeSpaces trims and collapses every whitespace run to a single space.
func NormalizeSpaces(input string) string {
	if input == "" {
		return ""
	}
	s := strings.ReplaceAll(input, "\u00A0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// FoldAccents removes combining marks, so "Número" becomes "Numero".
func FoldAccents(input string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

// Slug lower-cases, folds accents and reduces input to [a-z0-9_]+.
func Slug(input string) string {
	s := strings.ToLower(FoldAccents(strings.TrimSpace(input)))
	s = reNonSlug.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// EnsureUTF8 returns blob unchanged when it is valid UTF-8, otherwise decodes it
// as Windows-1252, which covers the Latin-1 pages the upstream occasionally serves.
func EnsureUTF8(blob []byte) []byte {
	if utf8.Valid(blob) {
		return blob
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), blob)
	if err != nil {
		return blob
	}
	return out
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
