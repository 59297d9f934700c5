// internal/analyzer/segment.go
package analyzer

import (
	"strings"
	"unicode"
)

// abbreviations whose trailing period does not close a sentence
var abbreviations = map[string]struct{}{
	"sr": {}, "sra": {}, "srta": {}, "dr": {}, "dra": {}, "ud": {}, "uds": {},
	"prof": {}, "lic": {}, "ing": {}, "etc": {}, "aprox": {}, "pág": {}, "núm": {},
	"av": {}, "avda": {}, "dto": {}, "cap": {}, "ej": {}, "vs": {}, "sto": {}, "sta": {},
}

// Sentences splits the original, unnormalized text into sentences. Any
// non-blank text yields at least one sentence.
func Sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	flush := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if hasWordRune(s) {
			out = append(out, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isTerminator(r) {
			continue
		}
		// swallow runs like "?!" or "..."
		j := i
		for j+1 < len(runes) && (isTerminator(runes[j+1]) || isCloser(runes[j+1])) {
			j++
		}
		if r == '.' && j == i && !closesSentence(runes, i) {
			continue
		}
		flush(j + 1)
		i = j
	}
	if start < len(runes) {
		flush(len(runes))
	}
	if len(out) == 0 && hasWordRune(text) {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

// CountSentences returns len(Sentences(text))
func CountSentences(text string) int {
	return len(Sentences(text))
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isCloser(r rune) bool {
	return r == '"' || r == '\'' || r == ')' || r == '»' || r == '”' || r == '’'
}

// closesSentence decides whether a lone period at i ends a sentence
func closesSentence(runes []rune, i int) bool {
	if i+1 < len(runes) {
		next := runes[i+1]
		if !unicode.IsSpace(next) {
			return false // 3.5, a.m, www.x
		}
	}

	k := i
	for k > 0 && isWordRune(runes[k-1]) {
		k--
	}
	word := strings.ToLower(string(runes[k:i]))
	if _, ok := abbreviations[word]; ok {
		return false
	}
	// single initials such as "J. Pérez"
	if len([]rune(word)) == 1 && unicode.IsUpper(runes[k]) {
		return false
	}
	return true
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if isWordRune(r) {
			return true
		}
	}
	return false
}

// properNounCandidates returns the lowercased words that appear capitalized
// somewhere other than the first word of a sentence
func properNounCandidates(sentences []string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sentences {
		words := strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) })
		for i, w := range words {
			if i == 0 {
				continue
			}
			if unicode.IsUpper([]rune(w)[0]) {
				out[Normalize(w)] = struct{}{}
			}
		}
	}
	return out
}
