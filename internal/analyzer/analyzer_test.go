package analyzer

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
)

const chaseDream = "Volé sobre las montañas mientras mi familia me perseguía, sentí mucho miedo pero también alegría al escapar."

const quietDream = "Estaba sentado en una silla de madera leyendo una revista sobre jardines y plantas."

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewDefault()
	require.NoError(t, err)
	return a
}

func TestAnalyzeChaseDream(t *testing.T) {
	a := newTestAnalyzer(t)
	age := 34
	meta := models.DreamMetadata{DreamType: "pesadilla", Emotion: "miedo", Age: &age, Region: "Cusco"}

	r, err := a.Analyze(models.DreamInput{Text: chaseDream, Metadata: meta})
	require.NoError(t, err)

	assert.True(t, r.Patterns["flying"].Found)
	assert.True(t, r.Patterns["being-chased"].Found)
	assert.Contains(t, r.Patterns["flying"].Matches, "volé")
	assert.Contains(t, r.Patterns["being-chased"].Matches, "perseguía")
	assert.Contains(t, r.Semantic["people"].Words, "familia")
	assert.Contains(t, r.Semantic["emotions"].Words, "miedo")
	assert.Contains(t, r.Semantic["emotions"].Words, "alegría")
	assert.GreaterOrEqual(t, r.Emotions["fear"].Count, 1)
	assert.GreaterOrEqual(t, r.Emotions["joy"].Count, 1)

	assert.Equal(t, meta, r.Metadata)
	assert.Equal(t, len([]rune(chaseDream)), r.TextLength)
	assert.Equal(t, 17, r.WordCount)
	assert.Equal(t, 1, r.SentenceCount)
	assert.Equal(t, SentimentLabel(r.Sentiment.Compound), r.Sentiment.Label)

	require.NotNil(t, r.Report)
	assert.Contains(t, r.Report.Summary, "Patrones detectados: vuelo, persecución")
	assert.Contains(t, r.Report.Insights, insightFlying)
	assert.Contains(t, r.Report.Insights, insightChased)
}

func TestAnalyzeShortTextReturnsOnlyTheError(t *testing.T) {
	a := newTestAnalyzer(t)
	for _, text := range []string{"", "Soñé", "   corto   ", "123456789"} {
		r, err := a.Analyze(models.DreamInput{Text: text})
		assert.Nil(t, r, text)
		require.Error(t, err, text)
		assert.True(t, apperrors.IsInputTooShort(err), text)

		data, jerr := json.Marshal(ErrorObject(err))
		require.NoError(t, jerr)
		assert.JSONEq(t, `{"error":"text too short"}`, string(data))
	}

	_, err := a.Analyze(models.DreamInput{Text: "1234567890"})
	assert.NoError(t, err)
}

func TestAnalyzeQuietDream(t *testing.T) {
	a := newTestAnalyzer(t)
	r, err := a.Analyze(models.DreamInput{Text: quietDream})
	require.NoError(t, err)

	for name, p := range r.Patterns {
		assert.False(t, p.Found, name)
	}
	for name, e := range r.Emotions {
		assert.Zero(t, e.Count, name)
	}
	lengthTerm := 0.0
	if r.WordCount > 100 {
		lengthTerm = 20
	} else if r.WordCount > 50 {
		lengthTerm = 10
	}
	polarity, _ := a.general.Polarity(Words(Normalize(quietDream)))
	want := round(lengthTerm+math.Abs(polarity)*30, 1)
	assert.InDelta(t, want, r.DreamIntensity.Score, 1e-9)
	assert.Equal(t, IntensityLevel(r.DreamIntensity.Score), r.DreamIntensity.Level)
	assert.NotContains(t, r.Report.Summary, "Patrones detectados")
}

func TestAnalyzeReportsEveryCategoryAndPattern(t *testing.T) {
	a := newTestAnalyzer(t)
	r, err := a.Analyze(models.DreamInput{Text: quietDream})
	require.NoError(t, err)

	for _, name := range a.Lexicon().CategoryNames() {
		assert.Contains(t, r.Semantic, name)
	}
	for _, name := range a.Lexicon().PatternNames() {
		assert.Contains(t, r.Patterns, name)
	}
	for _, name := range a.Lexicon().EmotionGroupNames() {
		assert.Contains(t, r.Emotions, name)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	in := models.DreamInput{Text: chaseDream + " " + quietDream}

	first, err := a.Analyze(in)
	require.NoError(t, err)
	second, err := a.Analyze(in)
	require.NoError(t, err)

	a1, _ := json.Marshal(first)
	a2, _ := json.Marshal(second)
	assert.JSONEq(t, string(a1), string(a2))
}

func TestAnalyzeBoundsHoldOnLongText(t *testing.T) {
	a := newTestAnalyzer(t)
	text := strings.Repeat("Caí al agua, volé, me perseguían y vi la muerte; tenía un terror horrible y lloraba. ", 20)

	r, err := a.Analyze(models.DreamInput{Text: text})
	require.NoError(t, err)

	assert.LessOrEqual(t, r.DreamIntensity.Score, 100.0)
	assert.GreaterOrEqual(t, r.DreamIntensity.Score, 0.0)
	assert.Equal(t, models.LevelVeryHigh, r.DreamIntensity.Level)
	assert.LessOrEqual(t, len(r.Keywords), MaxKeywords)
	for _, c := range r.Semantic {
		assert.True(t, c.Percentage >= 0 && c.Percentage <= 100)
	}
	for _, e := range r.Emotions {
		assert.True(t, e.Intensity >= 0 && e.Intensity <= 100)
	}
	assert.Equal(t, 20, r.SentenceCount)
	assert.Contains(t, r.Report.Recommendations, recommendDeath)
	assert.Contains(t, r.Report.Recommendations, recommendIntensity)
}

type verbTagger struct{}

func (verbTagger) Tag(tokens []string, _ string) []TaggedToken {
	out := make([]TaggedToken, len(tokens))
	for i, w := range tokens {
		out[i] = TaggedToken{Word: w, Tag: TagVerb}
	}
	return out
}

func TestAnalyzerAcceptsPluggableComponents(t *testing.T) {
	lex := mustDefaultLexicon(t)
	a, err := New(lex,
		WithTagger(verbTagger{}),
		WithPolarityScorer(fixedPolarity{p: -1, s: 1}),
		WithCompoundScorer(fixedCompound{CompoundScores{Compound: -0.9, Negative: 1}}),
		WithMinTextLength(3),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, a.MinTextLength())

	r, err := a.Analyze(models.DreamInput{Text: "sol y luna"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sol", "y", "luna"}, r.Entities.Verbs.Terms())
	assert.Empty(t, r.Entities.Nouns)
	assert.Equal(t, models.SentimentNegative, r.Sentiment.Label)
	assert.InDelta(t, 30.0, r.DreamIntensity.Score, 1e-9)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestAnalyzeScoresIntensityFromUnroundedValues(t *testing.T) {
	a, err := New(mustDefaultLexicon(t), WithPolarityScorer(fixedPolarity{p: 0.776144444}))
	require.NoError(t, err)

	// 3 tokens, flying and being-chased found, fear holds a third of the
	// tokens: 23.2843 + 20 + 16.6667 = 59.951
	r, err := a.Analyze(models.DreamInput{Text: "volé perseguía miedo"})
	require.NoError(t, err)
	require.Equal(t, 3, r.WordCount)
	assert.Equal(t, 0.7761, r.Sentiment.Polarity)
	assert.Equal(t, 33.33, r.Emotions["fear"].Intensity)

	assert.InDelta(t, 60.0, r.DreamIntensity.Score, 1e-9)
	assert.Equal(t, models.LevelHigh, r.DreamIntensity.Level)
}

func TestAnalyzeIntensityMatchesFormula(t *testing.T) {
	a := newTestAnalyzer(t)
	texts := []string{
		chaseDream,
		quietDream,
		"miedo luz oscuro correr paz agua paz agua paz oscuro miedo calma en el mar",
		"Caía y caía desde el cielo, tenía terror y pánico, el agua me cubría y no podía escapar.",
	}
	for _, text := range texts {
		r, err := a.Analyze(models.DreamInput{Text: text})
		require.NoError(t, err, text)

		tokens := Words(Normalize(text))
		polarity, _ := a.general.Polarity(tokens)
		peak := 0
		for _, e := range r.Emotions {
			if e.Count > peak {
				peak = e.Count
			}
		}
		raw := math.Abs(polarity)*30 +
			10*float64(len(r.FoundPatterns(a.Lexicon().PatternNames()))) +
			0.5*float64(peak)/float64(len(tokens))*100
		switch {
		case len(tokens) > 100:
			raw += 20
		case len(tokens) > 50:
			raw += 10
		}
		want := math.Round(math.Min(raw, 100)*10) / 10

		assert.InDelta(t, want, r.DreamIntensity.Score, 1e-9, text)
		assert.Equal(t, IntensityLevel(want), r.DreamIntensity.Level, text)
	}
}
