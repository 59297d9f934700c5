// internal/analyzer/patterns.go
package analyzer

import (
	"regexp"
	"unicode/utf8"

	"github.com/akashia/dreambank/internal/models"
)

// compileRule compiles a pattern rule as a case-insensitive alternation.
// Leftmost-longest so "huían" is not cut short at "huía".
func compileRule(rule string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)(?:` + rule + `)`)
	if err != nil {
		return nil, err
	}
	re.Longest()
	return re, nil
}

// FindAll returns every match of p in text that stands as a whole word.
// RE2 word boundaries are ASCII-only, so neighbours are checked by hand
// and the search resumes one rune further when a candidate is glued to a
// letter such as "á" or "ñ".
func (p *Pattern) FindAll(text string) []string {
	matches := make([]string, 0)
	pos := 0
	for pos <= len(text) {
		loc := p.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && standsAlone(text, start, end) {
			matches = append(matches, text[start:end])
			pos = end
			continue
		}
		if start >= len(text) {
			break
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return matches
}

func standsAlone(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

// detectPatterns reports every lexicon pattern, found or not
func detectPatterns(lex *Lexicon, normalized string) map[string]models.PatternMatch {
	out := make(map[string]models.PatternMatch, len(lex.patterns))
	for _, p := range lex.patterns {
		matches := p.FindAll(normalized)
		out[p.name] = models.PatternMatch{
			Found:   len(matches) > 0,
			Matches: matches,
			Count:   len(matches),
		}
	}
	return out
}
