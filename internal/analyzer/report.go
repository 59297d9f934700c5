// internal/analyzer/report.go
package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/akashia/dreambank/internal/models"
)

// recommendations kick in above this intensity
const highIntensityThreshold = 70

var levelNames = map[string]string{
	models.LevelVeryHigh: "muy alta",
	models.LevelHigh:     "alta",
	models.LevelModerate: "moderada",
	models.LevelLow:      "baja",
	models.LevelVeryLow:  "muy baja",
}

var labelNames = map[string]string{
	models.SentimentPositive: "positivo",
	models.SentimentNegative: "negativo",
	models.SentimentNeutral:  "neutral",
}

var patternNames = map[string]string{
	"falling":      "caída",
	"flying":       "vuelo",
	"being-chased": "persecución",
	"water":        "agua",
	"death":        "muerte",
	"nudity":       "desnudez",
	"exam":         "examen",
	"teeth":        "dientes",
}

var categoryNames = map[string]string{
	"places":   "lugares",
	"people":   "personas",
	"emotions": "emociones",
	"actions":  "acciones",
	"objects":  "objetos",
	"colors":   "colores",
	"animals":  "animales",
}

var emotionNames = map[string]string{
	"fear":     "miedo",
	"joy":      "alegría",
	"sadness":  "tristeza",
	"anger":    "ira",
	"surprise": "sorpresa",
	"peace":    "paz",
}

// Report sentences
const (
	insightPositive = "El sueño muestra emociones positivas, sugiriendo bienestar emocional."
	insightNegative = "El sueño contiene emociones negativas, posiblemente reflejando ansiedades o preocupaciones."
	insightFlying   = "El patrón de vuelo sugiere una búsqueda de libertad o escape."
	insightChased   = "El patrón de persecución puede indicar sentimientos de presión o amenaza."

	recommendRelax     = "Considera técnicas de relajación antes de dormir."
	recommendIntensity = "Este sueño de alta intensidad puede beneficiarse de técnicas de interpretación de sueños."
	recommendDeath     = "Los sueños sobre muerte suelen representar cambios o transformaciones."
)

// LevelName returns the Spanish display name of an intensity level
func LevelName(level string) string {
	return displayName(levelNames, level)
}

// LabelName returns the Spanish display name of a sentiment label
func LabelName(label string) string {
	return displayName(labelNames, label)
}

// PatternName returns the Spanish display name of a pattern
func PatternName(pattern string) string {
	return displayName(patternNames, pattern)
}

// CategoryName returns the Spanish display name of a semantic category
func CategoryName(category string) string {
	return displayName(categoryNames, category)
}

// EmotionName returns the Spanish display name of an emotion group
func EmotionName(group string) string {
	return displayName(emotionNames, group)
}

func displayName(names map[string]string, key string) string {
	if name, ok := names[key]; ok {
		return name
	}
	return key
}

// GenerateReport expands the fixed rule set over a finished result.
// order is the pattern order used in the summary.
func GenerateReport(r *models.AnalysisResult, order []string) *models.Report {
	found := r.FoundPatterns(order)
	return &models.Report{
		Summary:         summarize(r, found),
		Insights:        insights(r, found),
		Recommendations: recommendations(r, found),
	}
}

func summarize(r *models.AnalysisResult, found []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Este sueño tiene una intensidad %s (%s/100) y un sentimiento %s. ",
		LevelName(r.DreamIntensity.Level),
		strconv.FormatFloat(r.DreamIntensity.Score, 'f', 1, 64),
		LabelName(r.Sentiment.Label))
	fmt.Fprintf(&b, "Contiene %d palabras distribuidas en %d oraciones.", r.WordCount, r.SentenceCount)

	if len(found) > 0 {
		names := make([]string, len(found))
		for i, p := range found {
			names[i] = PatternName(p)
		}
		b.WriteString("\n\nPatrones detectados: ")
		b.WriteString(strings.Join(names, ", "))
	}
	return b.String()
}

func insights(r *models.AnalysisResult, found []string) []string {
	out := make([]string, 0, 3)
	switch r.Sentiment.Label {
	case models.SentimentPositive:
		out = append(out, insightPositive)
	case models.SentimentNegative:
		out = append(out, insightNegative)
	}
	if containsString(found, "flying") {
		out = append(out, insightFlying)
	}
	if containsString(found, "being-chased") {
		out = append(out, insightChased)
	}
	return out
}

func recommendations(r *models.AnalysisResult, found []string) []string {
	out := make([]string, 0, 3)
	if r.Sentiment.Label == models.SentimentNegative {
		out = append(out, recommendRelax)
	}
	if r.DreamIntensity.Score > highIntensityThreshold {
		out = append(out, recommendIntensity)
	}
	if containsString(found, "death") {
		out = append(out, recommendDeath)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
