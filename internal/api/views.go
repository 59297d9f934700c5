// internal/api/views.go
package api

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/models"
)

const excerptLength = 120

// displayRow is one labeled line of a page table
type displayRow struct {
	Key     string
	Name    string
	Count   int
	Percent float64
	Words   []string
}

type dreamPage struct {
	Title         string
	ID            string
	Timestamp     string
	Region        string
	DreamType     string
	Emotion       string
	Age           string
	Message       string
	AnalysisError string
	Analysis      *models.AnalysisResult
	Level         string
	Label         string
	Patterns      []displayRow
	Categories    []displayRow
	Emotions      []displayRow
	Keywords      models.Frequencies
}

func newDreamPage(view models.SubmissionView, lex *analyzer.Lexicon) dreamPage {
	page := dreamPage{
		Title:         "Tu sueño",
		ID:            view.ID,
		Timestamp:     formatTime(view.Timestamp),
		Region:        view.Region,
		DreamType:     view.DreamType,
		Emotion:       view.Emotion,
		Age:           formatAge(view.Age),
		Message:       view.Message,
		AnalysisError: view.AnalysisError,
		Analysis:      view.Analysis,
	}
	r := view.Analysis
	if r == nil {
		return page
	}

	page.Level = analyzer.LevelName(r.DreamIntensity.Level)
	page.Label = analyzer.LabelName(r.Sentiment.Label)
	page.Keywords = r.Keywords.Top(10)
	for _, name := range r.FoundPatterns(lex.PatternNames()) {
		match := r.Patterns[name]
		page.Patterns = append(page.Patterns, displayRow{
			Key:   name,
			Name:  analyzer.PatternName(name),
			Count: match.Count,
			Words: match.Matches,
		})
	}
	for _, name := range lex.CategoryNames() {
		match, ok := r.Semantic[name]
		if !ok || match.Count == 0 {
			continue
		}
		page.Categories = append(page.Categories, displayRow{
			Key:     name,
			Name:    analyzer.CategoryName(name),
			Count:   match.Count,
			Percent: match.Percentage,
			Words:   match.Words,
		})
	}
	for _, name := range lex.EmotionGroupNames() {
		score, ok := r.Emotions[name]
		if !ok || score.Count == 0 {
			continue
		}
		page.Emotions = append(page.Emotions, displayRow{
			Key:     name,
			Name:    analyzer.EmotionName(name),
			Count:   score.Count,
			Percent: score.Intensity,
		})
	}
	return page
}

// submissionRow is one line of the admin list
type submissionRow struct {
	ID        string
	Timestamp string
	Name      string
	Email     string
	Region    string
	DreamType string
	Emotion   string
	Age       string
	Excerpt   string
	Intensity string
	Level     string
	Label     string
	Status    string
}

func newSubmissionRow(view models.SubmissionView) submissionRow {
	row := submissionRow{
		ID:        view.ID,
		Timestamp: formatTime(view.Timestamp),
		Name:      view.Name,
		Email:     view.Email,
		Region:    view.Region,
		DreamType: view.DreamType,
		Emotion:   view.Emotion,
		Age:       formatAge(view.Age),
		Excerpt:   excerpt(view.Message, excerptLength),
	}
	switch {
	case view.Analysis != nil:
		row.Intensity = strconv.FormatFloat(view.Analysis.DreamIntensity.Score, 'f', 1, 64)
		row.Level = analyzer.LevelName(view.Analysis.DreamIntensity.Level)
		row.Label = analyzer.LabelName(view.Analysis.Sentiment.Label)
		row.Status = "analizado"
	case view.AnalysisError != "":
		row.Status = view.AnalysisError
	default:
		row.Status = "sin análisis"
	}
	return row
}

type statsPage struct {
	Title     string
	Stats     *models.DreamStats
	Sentiment []displayRow
	Levels    []displayRow
	Patterns  []displayRow
}

func newStatsPage(stats *models.DreamStats) statsPage {
	page := statsPage{Title: "Estadísticas", Stats: stats}
	for _, tc := range stats.SentimentDistribution {
		page.Sentiment = append(page.Sentiment, displayRow{Key: tc.Term, Name: analyzer.LabelName(tc.Term), Count: tc.Count})
	}
	for _, tc := range stats.LevelDistribution {
		page.Levels = append(page.Levels, displayRow{Key: tc.Term, Name: analyzer.LevelName(tc.Term), Count: tc.Count})
	}
	for _, tc := range stats.PatternFrequency {
		page.Patterns = append(page.Patterns, displayRow{Key: tc.Term, Name: analyzer.PatternName(tc.Term), Count: tc.Count})
	}
	return page
}

// publicView hides who sent the dream
func publicView(view models.SubmissionView) models.SubmissionView {
	view.Name = ""
	view.Email = ""
	return view
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

func formatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

// excerpt cuts s to at most n runes on a word boundary
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)[:n]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
