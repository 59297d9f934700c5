// internal/analyzer/intensity.go
package analyzer

import (
	"math"

	"github.com/akashia/dreambank/internal/models"
)

// Intensity weights
const (
	longDreamWords   = 100
	mediumDreamWords = 50
	longDreamBonus   = 20.0
	mediumDreamBonus = 10.0
	polarityWeight   = 30.0
	patternWeight    = 10.0
	emotionWeight    = 0.5
	maxIntensity     = 100.0
)

// intensityInputs are the unrounded quantities the score is built from.
// The stored sub-records carry rounded copies, which must not feed back
// into the score.
type intensityInputs struct {
	WordCount     int
	Polarity      float64
	PatternsFound int
	PeakEmotion   float64
}

// scoreIntensity combines length, sentiment magnitude, found patterns and
// the peak emotion share. Every term is non-negative so only the upper
// bound needs clamping.
func scoreIntensity(in intensityInputs) models.Intensity {
	score := 0.0
	switch {
	case in.WordCount > longDreamWords:
		score += longDreamBonus
	case in.WordCount > mediumDreamWords:
		score += mediumDreamBonus
	}

	score += math.Abs(in.Polarity) * polarityWeight
	score += float64(in.PatternsFound) * patternWeight
	score += in.PeakEmotion * emotionWeight

	score = round(math.Min(score, maxIntensity), 1)
	return models.Intensity{Score: score, Level: IntensityLevel(score)}
}

// peakEmotionShare is the largest emotion-group share of all tokens,
// taken from the raw counts
func peakEmotionShare(emotions map[string]models.EmotionScore, total int) float64 {
	if total == 0 {
		return 0
	}
	peak := 0
	for _, e := range emotions {
		if e.Count > peak {
			peak = e.Count
		}
	}
	return float64(peak) / float64(total) * 100
}

// IntensityLevel maps a score onto its band
func IntensityLevel(score float64) string {
	switch {
	case score >= 80:
		return models.LevelVeryHigh
	case score >= 60:
		return models.LevelHigh
	case score >= 40:
		return models.LevelModerate
	case score >= 20:
		return models.LevelLow
	default:
		return models.LevelVeryLow
	}
}
