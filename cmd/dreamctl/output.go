// cmd/dreamctl/output.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/models"
)

const percentageValue = 100

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.Style().Title.Align = text.AlignLeft
	tbl.Style().Options.SeparateRows = false
	return tbl
}

func render(w io.Writer, tbl table.Writer) {
	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintln(w)
}

func sentimentColor(label string) *color.Color {
	switch label {
	case models.SentimentPositive:
		return color.New(color.FgGreen)
	case models.SentimentNegative:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func levelColor(level string) *color.Color {
	switch level {
	case models.LevelVeryHigh:
		return color.New(color.FgRed, color.Bold)
	case models.LevelHigh:
		return color.New(color.FgRed)
	case models.LevelModerate:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func coloredSentiment(label string) string {
	return sentimentColor(label).Sprint(analyzer.LabelName(label))
}

func coloredLevel(level string) string {
	return levelColor(level).Sprint(analyzer.LevelName(level))
}

func percent(count, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)*percentageValue/float64(total))
}

// frequencyTable renders terms with their share of total. name maps a term
// to its display name.
func frequencyTable(title string, freq models.Frequencies, total int, name func(string) string) table.Writer {
	tbl := newTable(title)
	tbl.AppendHeader(table.Row{"Term", "Count", "Share"})
	for _, tc := range freq {
		term := tc.Term
		if name != nil {
			term = name(term)
		}
		tbl.AppendRow(table.Row{term, tc.Count, percent(tc.Count, total)})
	}
	if len(freq) == 0 {
		tbl.AppendRow(table.Row{"-", 0, percent(0, total)})
	}
	return tbl
}

func joinNames(items []string, name func(string) string) string {
	if len(items) == 0 {
		return "-"
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}
	return strings.Join(out, ", ")
}
