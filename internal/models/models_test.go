package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/akashia/dreambank/internal/errors"
)

func TestFrequenciesKeepOrderInJSON(t *testing.T) {
	f := CountTerms([]string{"mar", "casa", "mar", "perro", "casa", "mar"})
	require.Len(t, f, 3)
	assert.Equal(t, 3, f.Get("mar"))
	assert.Equal(t, 0, f.Get("gato"))

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"mar":3,"casa":2,"perro":1}`, string(data))

	var back Frequencies
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, f, back)
}

func TestFrequenciesEmptyAndInvalid(t *testing.T) {
	data, err := json.Marshal(Frequencies{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	var f Frequencies
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &f))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &f))
}

func TestFrequenciesTopBreaksTiesByFirstSeen(t *testing.T) {
	f := CountTerms([]string{"b", "a", "c", "a", "b", "d"})
	top := f.Top(3)
	assert.Equal(t, []string{"b", "a", "c"}, top.Terms())
	assert.Len(t, f.Top(10), 4)
	// source is untouched
	assert.Equal(t, []string{"b", "a", "c", "d"}, f.Terms())
}

func validResultJSON(t *testing.T) string {
	t.Helper()
	r := AnalysisResult{
		Semantic:       map[string]CategoryMatch{"places": {Words: []string{}}},
		Patterns:       map[string]PatternMatch{"flying": {Found: true, Matches: []string{"volé"}, Count: 1}},
		Emotions:       map[string]EmotionScore{"fear": {Count: 1, Intensity: 5}},
		Keywords:       Frequencies{{Term: "montañas", Count: 1}},
		Sentiment:      Sentiment{Label: SentimentNegative, Compound: -0.3},
		DreamIntensity: Intensity{Score: 42.5, Level: LevelModerate},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return string(data)
}

func TestParseStoredAnalysis(t *testing.T) {
	stored, err := ParseStoredAnalysis(validResultJSON(t))
	require.NoError(t, err)
	require.True(t, stored.Available())
	assert.Equal(t, LevelModerate, stored.Result.DreamIntensity.Level)
	assert.Equal(t, []string{"flying"}, stored.Result.FoundPatterns([]string{"falling", "flying"}))

	stored, err = ParseStoredAnalysis(`{"error": "text too short"}`)
	require.NoError(t, err)
	assert.False(t, stored.Available())
	require.NotNil(t, stored.Failure)
	assert.Equal(t, "text too short", stored.Failure.Error)

	stored, err = ParseStoredAnalysis("   ")
	require.NoError(t, err)
	assert.False(t, stored.Available())
	assert.Nil(t, stored.Failure)
}

func TestParseStoredAnalysisMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":        "{oops",
		"array":           "[1,2]",
		"missing section": `{"sentiment":{"sentiment_label":"neutral"},"dream_intensity":{"score":1,"level":"very-low"}}`,
		"bad label":       `{"patterns":{},"semantic_analysis":{},"emotional_analysis":{},"sentiment":{"sentiment_label":"happy"},"dream_intensity":{"score":1,"level":"very-low"}}`,
		"bad level":       `{"patterns":{},"semantic_analysis":{},"emotional_analysis":{},"sentiment":{"sentiment_label":"neutral"},"dream_intensity":{"score":1,"level":"extreme"}}`,
		"out of range":    `{"patterns":{},"semantic_analysis":{},"emotional_analysis":{},"sentiment":{"sentiment_label":"neutral"},"dream_intensity":{"score":140,"level":"very-high"}}`,
		"error not text":  `{"error": 12}`,
	} {
		_, err := ParseStoredAnalysis(raw)
		assert.True(t, apperrors.IsMalformedAnalysis(err), name)
	}
}

func TestSubmissionView(t *testing.T) {
	age := 31
	s := Submission{ID: "abc", Name: "Lucía", Age: &age, Region: "Cusco", RawAnalysis: validResultJSON(t)}
	view := NewSubmissionView(s)
	require.NotNil(t, view.Analysis)
	assert.Equal(t, "Cusco", s.Metadata().Region)

	s.RawAnalysis = "garbage"
	view = NewSubmissionView(s)
	assert.Nil(t, view.Analysis)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"analysis":null`)
	assert.NotContains(t, string(data), "garbage")
}
