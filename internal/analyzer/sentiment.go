// internal/analyzer/sentiment.go
package analyzer

import (
	"math"
	"strings"
	"sync"

	"github.com/jonreiter/govader"

	"github.com/akashia/dreambank/internal/models"
)

// Compound thresholds for the three-way label
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// negation reaches this many tokens forward
const negationWindow = 2

// PolarityScorer is the continuous, general-purpose sentiment model
type PolarityScorer interface {
	Polarity(tokens []string) (polarity, subjectivity float64)
}

// CompoundScores is the output of the lexicon-based model
type CompoundScores struct {
	Compound float64
	Positive float64
	Negative float64
	Neutral  float64
}

// CompoundScorer is the deterministic lexicon-based sentiment model
type CompoundScorer interface {
	Compound(tokens []string) CompoundScores
}

// SentimentLabel maps a compound score onto positive/negative/neutral
func SentimentLabel(compound float64) string {
	switch {
	case compound >= positiveThreshold:
		return models.SentimentPositive
	case compound <= negativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// LexiconPolarityScorer averages prior polarities of known words. An
// intensifier right before a word scales it; a negator up to two tokens
// before flips and halves it.
type LexiconPolarityScorer struct {
	lex *Lexicon
}

func NewLexiconPolarityScorer(lex *Lexicon) *LexiconPolarityScorer {
	return &LexiconPolarityScorer{lex: lex}
}

func (s *LexiconPolarityScorer) Polarity(tokens []string) (float64, float64) {
	var polSum, subjSum float64
	n := 0
	for i, w := range tokens {
		entry, ok := s.lex.Polarity(w)
		if !ok {
			continue
		}
		p, subj := entry.Polarity, entry.Subjectivity
		if i > 0 {
			if m, ok := s.lex.Intensifier(tokens[i-1]); ok {
				p *= m
				subj *= m
			}
		}
		for k := i - 1; k >= 0 && k >= i-negationWindow; k-- {
			if s.lex.IsNegator(tokens[k]) {
				p *= -0.5
				break
			}
		}
		polSum += clamp(p, -1, 1)
		subjSum += clamp(subj, 0, 1)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return clamp(polSum/float64(n), -1, 1), clamp(subjSum/float64(n), 0, 1)
}

var (
	vaderAnalyzer *govader.SentimentIntensityAnalyzer
	vaderOnce     sync.Once
)

func getVaderAnalyzer() *govader.SentimentIntensityAnalyzer {
	vaderOnce.Do(func() {
		vaderAnalyzer = govader.NewSentimentIntensityAnalyzer()
	})
	return vaderAnalyzer
}

// VaderScorer runs VADER over the token stream after mapping Spanish affect
// words, negators and contrastive conjunctions to their English forms.
// Unmapped tokens pass through and score as neutral.
type VaderScorer struct {
	lex *Lexicon
	sia *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer(lex *Lexicon) *VaderScorer {
	return &VaderScorer{lex: lex, sia: getVaderAnalyzer()}
}

func (s *VaderScorer) Compound(tokens []string) CompoundScores {
	if len(tokens) == 0 {
		return CompoundScores{}
	}
	scores := s.sia.PolarityScores(s.bridge(tokens))
	return CompoundScores{
		Compound: scores.Compound,
		Positive: scores.Positive,
		Negative: scores.Negative,
		Neutral:  scores.Neutral,
	}
}

func (s *VaderScorer) bridge(tokens []string) string {
	out := make([]string, len(tokens))
	for i, w := range tokens {
		if en, ok := s.lex.Bridge(w); ok {
			out[i] = en
			continue
		}
		out[i] = w
	}
	return strings.Join(out, " ")
}

// scoreSentiment combines both models into the stored sub-record. The
// unrounded polarity is returned alongside for the intensity score.
func scoreSentiment(general PolarityScorer, lexical CompoundScorer, tokens []string) (models.Sentiment, float64) {
	if len(tokens) == 0 {
		return models.Sentiment{Label: models.SentimentNeutral}, 0
	}
	polarity, subjectivity := general.Polarity(tokens)
	c := lexical.Compound(tokens)
	compound := round(clamp(c.Compound, -1, 1), 4)
	return models.Sentiment{
		Polarity:     round(polarity, 4),
		Subjectivity: round(subjectivity, 4),
		Compound:     compound,
		Positive:     round(clamp(c.Positive, 0, 1), 4),
		Negative:     round(clamp(c.Negative, 0, 1), 4),
		Neutral:      round(clamp(c.Neutral, 0, 1), 4),
		Label:        SentimentLabel(compound),
	}, polarity
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
