// internal/analyzer/features.go
package analyzer

import (
	"unicode/utf8"

	"github.com/akashia/dreambank/internal/models"
)

// MaxKeywords caps the keyword table
const MaxKeywords = 20

// matchCategories reports exact token membership for every category
func matchCategories(lex *Lexicon, tokens []string) map[string]models.CategoryMatch {
	out := make(map[string]models.CategoryMatch, len(lex.categories))
	for _, g := range lex.categories {
		words := make([]string, 0)
		for _, t := range tokens {
			if g.Contains(t) {
				words = append(words, t)
			}
		}
		out[g.name] = models.CategoryMatch{
			Words:      words,
			Count:      len(words),
			Percentage: share(len(words), len(tokens)),
		}
	}
	return out
}

// scoreEmotions counts emotion-group words and their share of all tokens
func scoreEmotions(lex *Lexicon, tokens []string) map[string]models.EmotionScore {
	out := make(map[string]models.EmotionScore, len(lex.emotionGroups))
	for _, g := range lex.emotionGroups {
		count := 0
		for _, t := range tokens {
			if g.Contains(t) {
				count++
			}
		}
		out[g.name] = models.EmotionScore{Count: count, Intensity: share(count, len(tokens))}
	}
	return out
}

// extractKeywords drops stop-words, short and non-alphabetic tokens and
// keeps the most frequent remainder
func extractKeywords(lex *Lexicon, tokens []string) models.Frequencies {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if utf8.RuneCountInString(t) <= 2 || !isAlphaWord(t) || lex.IsStopword(t) {
			continue
		}
		kept = append(kept, t)
	}
	return models.CountTerms(kept).Top(MaxKeywords)
}

// extractEntities buckets tagged tokens into frequency tables
func extractEntities(tagged []TaggedToken) models.Entities {
	var nouns, verbs, adjectives, proper []string
	for _, tt := range tagged {
		switch {
		case tt.Tag.IsNoun():
			nouns = append(nouns, tt.Word)
			if tt.Tag.IsProper() {
				proper = append(proper, tt.Word)
			}
		case tt.Tag.IsVerb():
			verbs = append(verbs, tt.Word)
		case tt.Tag.IsAdjective():
			adjectives = append(adjectives, tt.Word)
		}
	}
	return models.Entities{
		Nouns:       models.CountTerms(nouns),
		Verbs:       models.CountTerms(verbs),
		Adjectives:  models.CountTerms(adjectives),
		ProperNouns: models.CountTerms(proper),
	}
}

func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(clamp(float64(count)/float64(total)*100, 0, 100), 2)
}
