package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"strat-scanner/internal/models"
	"strat-scanner/internal/scan"
	"strat-scanner/internal/strat"
)

var (
	bullishCell = color.New(color.FgGreen).SprintFunc()
	bearishCell = color.New(color.FgRed).SprintFunc()
	neutralCell = color.New(color.Faint).SprintFunc()
)

// renderMatches prints the single-timeframe match table.
func renderMatches(output *Output, matches []models.PatternMatch, tf models.Timeframe) {
	higher := strat.HigherTimeframes(tf)

	header := fmt.Sprintf("%-10s %-34s %-8s", "SYMBOL", "PATTERNS", "CC C1 C2")
	for _, ctf := range higher {
		header += fmt.Sprintf(" %-8s", "TFC "+string(ctf))
	}
	output.Bold("%s", header)

	for _, m := range matches {
		codes := fmt.Sprintf("%s  %s  %s", m.CodeCurrent, m.CodePrev, formatPrev2(m.CodePrev2))
		row := fmt.Sprintf("%-10s %-34s %-8s", m.Symbol, FormatPatterns(m.Patterns), codes)
		for _, ctf := range higher {
			row += fmt.Sprintf(" %-8s", formatContinuity(m.Continuity[ctf]))
		}
		output.Println(row)
	}
	output.Dim("%d match(es)", len(matches))
}

// renderSweep prints the multi-timeframe sweep table.
func renderSweep(output *Output, rows []scan.SweepRow) {
	output.Bold("%-10s %-14s %-22s %s", "SYMBOL", "TIMEFRAME", "TIMESTAMP", "PATTERN")
	for _, r := range rows {
		output.Printf("%-10s %-14s %-22s %s\n",
			r.Symbol, r.Timeframe, r.Timestamp.UTC().Format("2006-01-02 15:04"), r.Pattern)
	}
	output.Dim("%d row(s)", len(rows))
}

// FormatPatterns joins pattern names for display.
func FormatPatterns(patterns []models.Pattern) string {
	names := make([]string, 0, len(patterns))
	for _, p := range patterns {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func formatPrev2(code *models.StructuralCode) string {
	if code == nil {
		return "-"
	}
	return code.String()
}

func formatContinuity(flag models.ContinuityFlag) string {
	switch flag {
	case models.ContinuityBullish:
		return bullishCell("green")
	case models.ContinuityBearish:
		return bearishCell("red")
	default:
		return neutralCell("-")
	}
}
