// cmd/dreamctl/stats.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/app"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/services"
)

type statsOptions struct {
	asJSON bool
	top    int
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the stored submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the statistics as JSON")
	cmd.Flags().IntVar(&opts.top, "top", 10, "rows shown per breakdown table")

	return cmd
}

func runStats(cmd *cobra.Command, root *rootOptions, opts *statsOptions) error {
	cfg, store, err := root.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	pipeline, err := app.BuildAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}

	records, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	stats := services.NewStatsService(pipeline.Lexicon(), store).Compute(records)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(stats)
	}
	printStats(out, stats, latest(records), opts.top)
	return nil
}

func latest(records []models.Submission) time.Time {
	var newest time.Time
	for _, rec := range records {
		if rec.Timestamp.After(newest) {
			newest = rec.Timestamp
		}
	}
	return newest
}

func printStats(w io.Writer, s *models.DreamStats, newest time.Time, top int) {
	overview := newTable("Dream bank")
	overview.AppendRows([]table.Row{
		{"Submissions", humanize.Comma(int64(s.TotalSubmissions))},
		{"Analyzed", humanize.Comma(int64(s.Analyzed))},
		{"Failed analyses", humanize.Comma(int64(s.Failed))},
		{"Malformed analyses", humanize.Comma(int64(s.Malformed))},
		{"Average intensity", humanize.FtoaWithDigits(s.AverageIntensity, 1)},
	})
	if !newest.IsZero() {
		overview.AppendRow(table.Row{"Latest submission", humanize.Time(newest)})
	}
	render(w, overview)

	sentiments := newTable("Sentiment")
	sentiments.AppendHeader(table.Row{"Label", "Count", "Share"})
	for _, tc := range s.SentimentDistribution {
		sentiments.AppendRow(table.Row{coloredSentiment(tc.Term), tc.Count, percent(tc.Count, s.Analyzed)})
	}
	render(w, sentiments)

	levels := newTable("Intensity")
	levels.AppendHeader(table.Row{"Level", "Count", "Share"})
	for _, tc := range s.LevelDistribution {
		levels.AppendRow(table.Row{coloredLevel(tc.Term), tc.Count, percent(tc.Count, s.Analyzed)})
	}
	render(w, levels)

	render(w, frequencyTable("Patterns", s.PatternFrequency, s.Analyzed, analyzer.PatternName))
	render(w, frequencyTable("Top themes", s.TopThemes.Top(top), s.Analyzed, nil))
	render(w, frequencyTable("Dream types", s.ByDreamType.Top(top), s.TotalSubmissions, nil))
	render(w, frequencyTable("Emotions", s.ByEmotion.Top(top), s.TotalSubmissions, nil))
	render(w, frequencyTable("Regions", s.ByRegion.Top(top), s.TotalSubmissions, nil))
}
