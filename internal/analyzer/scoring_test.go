package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashia/dreambank/internal/models"
)

func TestExtractKeywords(t *testing.T) {
	lex := mustDefaultLexicon(t)
	tokens := Words("el mar y el mar de la casa 42 casa ok bosque mar")

	got := extractKeywords(lex, tokens)
	assert.Equal(t, []string{"mar", "casa", "bosque"}, got.Terms())
	assert.Equal(t, 3, got.Get("mar"))
	assert.Empty(t, extractKeywords(lex, nil))
}

func TestExtractKeywordsCapsAtTwenty(t *testing.T) {
	lex := mustDefaultLexicon(t)
	var tokens []string
	for i := 0; i < 30; i++ {
		tokens = append(tokens, "palabra"+strings.Repeat("x", i))
	}
	tokens = append(tokens, "de", "que", "y")

	got := extractKeywords(lex, tokens)
	require.Len(t, got, MaxKeywords)
	for _, kw := range got {
		assert.False(t, lex.IsStopword(kw.Term))
		assert.Greater(t, len([]rune(kw.Term)), 2)
	}
	assert.Equal(t, "palabra", got[0].Term)
}

func TestMatchCategoriesAndEmotions(t *testing.T) {
	lex := mustDefaultLexicon(t)
	tokens := Words("mi familia sintió miedo y miedo en la casa")

	cats := matchCategories(lex, tokens)
	require.Len(t, cats, len(RequiredCategories))
	assert.Equal(t, []string{"familia"}, cats["people"].Words)
	assert.Equal(t, 2, cats["emotions"].Count)
	assert.InDelta(t, 22.22, cats["emotions"].Percentage, 0.001)
	// casa is both a place and an object
	assert.Equal(t, 1, cats["places"].Count)
	assert.Equal(t, 1, cats["objects"].Count)
	assert.Zero(t, cats["animals"].Percentage)
	assert.NotNil(t, cats["animals"].Words)

	emotions := scoreEmotions(lex, tokens)
	require.Len(t, emotions, len(RequiredEmotionGroups))
	assert.Equal(t, 2, emotions["fear"].Count)
	assert.InDelta(t, 22.22, emotions["fear"].Intensity, 0.001)
	assert.Zero(t, emotions["joy"].Count)

	empty := matchCategories(lex, nil)
	assert.Zero(t, empty["people"].Percentage)
}

func TestIntensityLevelBands(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, models.LevelVeryLow},
		{19.9, models.LevelVeryLow},
		{20, models.LevelLow},
		{39.9, models.LevelLow},
		{40, models.LevelModerate},
		{59.9, models.LevelModerate},
		{60, models.LevelHigh},
		{79.9, models.LevelHigh},
		{80, models.LevelVeryHigh},
		{100, models.LevelVeryHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IntensityLevel(tc.score), "score %v", tc.score)
	}
}

func resultWith(words int, polarity float64, found int, peakEmotion float64) *models.AnalysisResult {
	r := &models.AnalysisResult{
		WordCount: words,
		Sentiment: models.Sentiment{Polarity: polarity},
		Patterns:  map[string]models.PatternMatch{},
		Emotions:  map[string]models.EmotionScore{"fear": {Intensity: peakEmotion}, "joy": {Intensity: peakEmotion / 2}},
	}
	for i, name := range RequiredPatterns {
		r.Patterns[name] = models.PatternMatch{Found: i < found}
	}
	return r
}

func TestScoreIntensity(t *testing.T) {
	cases := []struct {
		name  string
		in    intensityInputs
		score float64
		level string
	}{
		{"empty", intensityInputs{}, 0, models.LevelVeryLow},
		{"medium text", intensityInputs{WordCount: 51}, 10, models.LevelVeryLow},
		{"exactly fifty words", intensityInputs{WordCount: 50}, 0, models.LevelVeryLow},
		{"long negative", intensityInputs{WordCount: 120, Polarity: -0.5, PatternsFound: 2, PeakEmotion: 10}, 60, models.LevelHigh},
		{"rounded", intensityInputs{WordCount: 10, Polarity: 0.25, PatternsFound: 1, PeakEmotion: 4.5}, 19.8, models.LevelVeryLow},
		{"clamped", intensityInputs{WordCount: 200, Polarity: 1, PatternsFound: 8, PeakEmotion: 100}, 100, models.LevelVeryHigh},
		// 59.951 exactly; rounding the inputs first would give 59.948
		{"unrounded inputs", intensityInputs{WordCount: 3, Polarity: 0.776144444, PatternsFound: 2, PeakEmotion: 100.0 / 3}, 60, models.LevelHigh},
	}
	for _, tc := range cases {
		got := scoreIntensity(tc.in)
		assert.InDelta(t, tc.score, got.Score, 1e-9, tc.name)
		assert.Equal(t, tc.level, got.Level, tc.name)
	}
}

func TestPeakEmotionShare(t *testing.T) {
	emotions := map[string]models.EmotionScore{
		"fear":  {Count: 1, Intensity: 33.33},
		"peace": {Count: 0},
	}
	assert.InDelta(t, 100.0/3, peakEmotionShare(emotions, 3), 1e-12)
	assert.Zero(t, peakEmotionShare(emotions, 0))
	assert.Zero(t, peakEmotionShare(nil, 5))
}

func TestGenerateReport(t *testing.T) {
	r := resultWith(40, -0.6, 0, 0)
	r.SentenceCount = 3
	r.Sentiment.Label = models.SentimentNegative
	r.Patterns["death"] = models.PatternMatch{Found: true, Matches: []string{"muerte"}, Count: 1}
	r.Patterns["flying"] = models.PatternMatch{Found: true, Matches: []string{"volé"}, Count: 1}
	r.DreamIntensity = models.Intensity{Score: 72.5, Level: models.LevelHigh}

	report := GenerateReport(r, RequiredPatterns)

	assert.Equal(t, "Este sueño tiene una intensidad alta (72.5/100) y un sentimiento negativo. "+
		"Contiene 40 palabras distribuidas en 3 oraciones.\n\nPatrones detectados: vuelo, muerte", report.Summary)
	assert.Equal(t, []string{insightNegative, insightFlying}, report.Insights)
	assert.Equal(t, []string{recommendRelax, recommendIntensity, recommendDeath}, report.Recommendations)
}

func TestGenerateReportQuietDream(t *testing.T) {
	r := resultWith(12, 0, 0, 0)
	r.SentenceCount = 1
	r.Sentiment.Label = models.SentimentNeutral
	r.DreamIntensity = models.Intensity{Score: 70, Level: models.LevelHigh}

	report := GenerateReport(r, RequiredPatterns)
	assert.Equal(t, "Este sueño tiene una intensidad alta (70.0/100) y un sentimiento neutral. "+
		"Contiene 12 palabras distribuidas en 1 oraciones.", report.Summary)
	assert.Empty(t, report.Insights)
	assert.Empty(t, report.Recommendations, "70 is not above the threshold")
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "muy alta", LevelName(models.LevelVeryHigh))
	assert.Equal(t, "negativo", LabelName(models.SentimentNegative))
	assert.Equal(t, "persecución", PatternName("being-chased"))
	assert.Equal(t, "lugares", CategoryName("places"))
	assert.Equal(t, "alegría", EmotionName("joy"))
	assert.Equal(t, "custom", CategoryName("custom"))
}
