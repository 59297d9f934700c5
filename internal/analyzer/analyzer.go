// internal/analyzer/analyzer.go
package analyzer

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
)

// DefaultMinTextLength is the shortest text, in characters, worth analyzing
const DefaultMinTextLength = 10

// ErrTextTooShort is the message of the error object for short input
const ErrTextTooShort = "text too short"

// Analyzer runs the dream analysis pipeline. It holds only read-only state
// and is safe for concurrent use.
type Analyzer struct {
	lexicon   *Lexicon
	tagger    Tagger
	general   PolarityScorer
	lexical   CompoundScorer
	minLength int
}

// Option customizes an Analyzer
type Option func(*Analyzer)

func WithTagger(t Tagger) Option {
	return func(a *Analyzer) { a.tagger = t }
}

func WithPolarityScorer(s PolarityScorer) Option {
	return func(a *Analyzer) { a.general = s }
}

func WithCompoundScorer(s CompoundScorer) Option {
	return func(a *Analyzer) { a.lexical = s }
}

// WithMinTextLength overrides the minimum length; values below 1 are ignored
func WithMinTextLength(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.minLength = n
		}
	}
}

// New builds an analyzer over lex. Components not supplied as options
// default to the rule tagger, the lexicon polarity scorer and VADER.
func New(lex *Lexicon, opts ...Option) (*Analyzer, error) {
	if lex == nil {
		return nil, apperrors.NewValidationError("analyzer needs a lexicon", nil)
	}
	a := &Analyzer{lexicon: lex, minLength: DefaultMinTextLength}
	for _, opt := range opts {
		opt(a)
	}
	if a.tagger == nil {
		a.tagger = NewRuleTagger(lex)
	}
	if a.general == nil {
		a.general = NewLexiconPolarityScorer(lex)
	}
	if a.lexical == nil {
		a.lexical = NewVaderScorer(lex)
	}
	return a, nil
}

// NewDefault builds an analyzer over the embedded lexicon
func NewDefault(opts ...Option) (*Analyzer, error) {
	lex, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}
	return New(lex, opts...)
}

func (a *Analyzer) Lexicon() *Lexicon {
	return a.lexicon
}

func (a *Analyzer) MinTextLength() int {
	return a.minLength
}

// Analyze produces the complete result for one dream, or an input-too-short
// error. It never returns a partial result.
func (a *Analyzer) Analyze(in models.DreamInput) (*models.AnalysisResult, error) {
	if utf8.RuneCountInString(strings.TrimSpace(in.Text)) < a.minLength {
		return nil, apperrors.NewInputTooShortError(ErrTextTooShort)
	}

	normalized := Normalize(in.Text)
	tokens := Words(normalized)
	sentiment, polarity := scoreSentiment(a.general, a.lexical, tokens)

	result := &models.AnalysisResult{
		Metadata:      in.Metadata,
		TextLength:    utf8.RuneCountInString(in.Text),
		WordCount:     len(tokens),
		SentenceCount: CountSentences(in.Text),
		Sentiment:     sentiment,
		Semantic:      matchCategories(a.lexicon, tokens),
		Entities:      extractEntities(a.tagger.Tag(tokens, in.Text)),
		Patterns:      detectPatterns(a.lexicon, normalized),
		Keywords:      extractKeywords(a.lexicon, tokens),
		Emotions:      scoreEmotions(a.lexicon, tokens),
	}
	result.DreamIntensity = scoreIntensity(intensityInputs{
		WordCount:     result.WordCount,
		Polarity:      polarity,
		PatternsFound: len(result.FoundPatterns(a.lexicon.PatternNames())),
		PeakEmotion:   peakEmotionShare(result.Emotions, len(tokens)),
	})
	result.Report = GenerateReport(result, a.lexicon.PatternNames())
	return result, nil
}

// ErrorObject renders err as the stored error marker
func ErrorObject(err error) models.AnalysisError {
	if apperrors.IsInputTooShort(err) {
		return models.AnalysisError{Error: ErrTextTooShort}
	}
	return models.AnalysisError{Error: "analysis failed"}
}
