// internal/analyzer/normalize.go
package analyzer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, turns punctuation and symbols into spaces, and
// collapses whitespace. Accented letters and ñ survive. Empty input yields "".
func Normalize(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if !isWordRune(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Words splits normalized text into tokens
func Words(normalized string) []string {
	if normalized == "" {
		return []string{}
	}
	return strings.Split(normalized, " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isAlphaWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) {
			return false
		}
	}
	return true
}

// normalizeWord canonicalizes a single lexicon entry
func normalizeWord(w string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(w)))
}
