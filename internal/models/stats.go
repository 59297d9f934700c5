// internal/models/stats.go
package models

import "time"

// DreamStats is the aggregate view over all stored submissions
type DreamStats struct {
	TotalSubmissions      int         `json:"total_submissions"`
	Analyzed              int         `json:"analyzed"`
	Failed                int         `json:"failed"`
	Malformed             int         `json:"malformed"`
	ByDreamType           Frequencies `json:"by_dream_type"`
	ByEmotion             Frequencies `json:"by_emotion"`
	ByRegion              Frequencies `json:"by_region"`
	SentimentDistribution Frequencies `json:"sentiment_distribution"`
	LevelDistribution     Frequencies `json:"level_distribution"`
	AverageIntensity      float64     `json:"average_intensity"`
	PatternFrequency      Frequencies `json:"pattern_frequency"`
	TopThemes             Frequencies `json:"top_themes"`
	GeneratedAt           time.Time   `json:"generated_at"`
}

// FeedEvent is broadcast to live-feed clients after a submission is stored.
// It carries no free text and no personal data.
type FeedEvent struct {
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Intensity      float64   `json:"intensity"`
	Level          string    `json:"level"`
	SentimentLabel string    `json:"sentiment_label"`
	Patterns       []string  `json:"patterns"`
}
