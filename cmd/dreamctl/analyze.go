// cmd/dreamctl/analyze.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/app"
	"github.com/akashia/dreambank/internal/config"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/services"
)

const maxKeywordRows = 10

// ErrNoText is returned when neither arguments, --file nor stdin carry text
var ErrNoText = errors.New("no dream text given (pass it as arguments, with --file or on stdin)")

type analyzeOptions struct {
	file      string
	dreamType string
	emotion   string
	age       string
	region    string
	minLength int
	asTable   bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [text...]",
		Short: "Analyze a dream text",
		Long: `Analyze a Spanish dream narrative and print the full result.

The text is read from the arguments, from --file, or from stdin when
neither is given. Output is JSON unless --table is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read the dream text from a file")
	cmd.Flags().StringVar(&opts.dreamType, "dream-type", "", "dream type metadata")
	cmd.Flags().StringVar(&opts.emotion, "emotion", "", "dominant emotion metadata")
	cmd.Flags().StringVar(&opts.age, "age", "", "dreamer age metadata")
	cmd.Flags().StringVar(&opts.region, "region", "", "region metadata")
	cmd.Flags().IntVar(&opts.minLength, "min-length", 10, "minimum text length in characters")
	cmd.Flags().BoolVarP(&opts.asTable, "table", "t", false, "print tables instead of JSON")

	return cmd
}

func readText(cmd *cobra.Command, file string, args []string) (string, error) {
	var text string
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts *analyzeOptions, args []string) error {
	text, err := readText(cmd, opts.file, args)
	if err != nil {
		return err
	}
	age, err := services.ParseAge(opts.age)
	if err != nil {
		return err
	}

	pipeline, err := app.BuildAnalyzer(&config.Config{
		MinTextLength: opts.minLength,
		LexiconPath:   root.lexicon,
	})
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}

	result, err := pipeline.Analyze(models.DreamInput{
		Text: text,
		Metadata: models.DreamMetadata{
			DreamType: strings.TrimSpace(opts.dreamType),
			Emotion:   strings.TrimSpace(opts.emotion),
			Age:       age,
			Region:    strings.TrimSpace(opts.region),
		},
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.asTable {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(result)
	}
	printAnalysis(out, result, pipeline.Lexicon())
	return nil
}

func printAnalysis(w io.Writer, r *models.AnalysisResult, lex *analyzer.Lexicon) {
	summary := newTable("Analysis")
	summary.AppendRows([]table.Row{
		{"Characters", r.TextLength},
		{"Words", r.WordCount},
		{"Sentences", r.SentenceCount},
		{"Sentiment", fmt.Sprintf("%s (%.3f)", coloredSentiment(r.Sentiment.Label), r.Sentiment.Compound)},
		{"Polarity", fmt.Sprintf("%.3f", r.Sentiment.Polarity)},
		{"Subjectivity", fmt.Sprintf("%.3f", r.Sentiment.Subjectivity)},
		{"Intensity", fmt.Sprintf("%.1f %s", r.DreamIntensity.Score, coloredLevel(r.DreamIntensity.Level))},
		{"Patterns", joinNames(r.FoundPatterns(lex.PatternNames()), analyzer.PatternName)},
	})
	render(w, summary)

	categories := newTable("Semantic categories")
	categories.AppendHeader(table.Row{"Category", "Count", "Share", "Words"})
	for _, name := range lex.CategoryNames() {
		match := r.Semantic[name]
		categories.AppendRow(table.Row{
			analyzer.CategoryName(name),
			match.Count,
			fmt.Sprintf("%.1f%%", match.Percentage),
			strings.Join(match.Words, ", "),
		})
	}
	render(w, categories)

	emotions := newTable("Emotions")
	emotions.AppendHeader(table.Row{"Emotion", "Count", "Intensity"})
	for _, name := range lex.EmotionGroupNames() {
		score := r.Emotions[name]
		emotions.AppendRow(table.Row{analyzer.EmotionName(name), score.Count, fmt.Sprintf("%.3f", score.Intensity)})
	}
	render(w, emotions)

	render(w, frequencyTable("Keywords", r.Keywords.Top(maxKeywordRows), r.WordCount, nil))

	if r.Report != nil {
		fmt.Fprintln(w, r.Report.Summary)
		for _, line := range r.Report.Insights {
			fmt.Fprintf(w, "  * %s\n", line)
		}
		for _, line := range r.Report.Recommendations {
			fmt.Fprintf(w, "  > %s\n", line)
		}
	}
}
