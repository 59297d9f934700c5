// internal/models/analyzer.go
package models

// Sentiment labels derived from the compound score
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Intensity levels, highest first
const (
	LevelVeryHigh = "very-high"
	LevelHigh     = "high"
	LevelModerate = "moderate"
	LevelLow      = "low"
	LevelVeryLow  = "very-low"
)

// SentimentLabels lists every label in display order
var SentimentLabels = []string{SentimentPositive, SentimentNegative, SentimentNeutral}

// IntensityLevels lists every level from highest to lowest
var IntensityLevels = []string{LevelVeryHigh, LevelHigh, LevelModerate, LevelLow, LevelVeryLow}

// DreamMetadata is the optional context a dreamer attaches to a narrative.
// It is echoed into the analysis unchanged.
type DreamMetadata struct {
	DreamType string `json:"dream_type,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
	Age       *int   `json:"age,omitempty"`
	Region    string `json:"region,omitempty"`
}

// DreamInput is one narrative handed to the analyzer
type DreamInput struct {
	Text     string        `json:"text"`
	Metadata DreamMetadata `json:"metadata"`
}

// AnalysisResult is the full structured output for one dream
type AnalysisResult struct {
	Metadata       DreamMetadata            `json:"metadata"`
	TextLength     int                      `json:"text_length"`
	WordCount      int                      `json:"word_count"`
	SentenceCount  int                      `json:"sentence_count"`
	Sentiment      Sentiment                `json:"sentiment"`
	Semantic       map[string]CategoryMatch `json:"semantic_analysis"`
	Entities       Entities                 `json:"entities"`
	Patterns       map[string]PatternMatch  `json:"patterns"`
	Keywords       Frequencies              `json:"keywords"`
	Emotions       map[string]EmotionScore  `json:"emotional_analysis"`
	DreamIntensity Intensity                `json:"dream_intensity"`
	Report         *Report                  `json:"report,omitempty"`
}

// Sentiment combines the general polarity scores with the lexicon compound scores
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Compound     float64 `json:"vader_compound"`
	Positive     float64 `json:"vader_positive"`
	Negative     float64 `json:"vader_negative"`
	Neutral      float64 `json:"vader_neutral"`
	Label        string  `json:"sentiment_label"`
}

// CategoryMatch holds the vocabulary hits of one semantic category
type CategoryMatch struct {
	Words      []string `json:"words"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// Entities buckets tokens by part of speech
type Entities struct {
	Nouns       Frequencies `json:"nouns"`
	Verbs       Frequencies `json:"verbs"`
	Adjectives  Frequencies `json:"adjectives"`
	ProperNouns Frequencies `json:"proper_nouns"`
}

// PatternMatch records whether a dream pattern fired and on what text
type PatternMatch struct {
	Found   bool     `json:"found"`
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
}

// EmotionScore is the tally of one emotion group
type EmotionScore struct {
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"`
}

type Intensity struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

// Report is the human-readable digest in Spanish
type Report struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// AnalysisError is the stored/serialized shape of a failed analysis
type AnalysisError struct {
	Error string `json:"error"`
}

// FoundPatterns returns the names of patterns that fired, in the given order
func (r *AnalysisResult) FoundPatterns(order []string) []string {
	found := make([]string, 0)
	for _, name := range order {
		if p, ok := r.Patterns[name]; ok && p.Found {
			found = append(found, name)
		}
	}
	return found
}
