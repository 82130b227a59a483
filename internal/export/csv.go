// Package export serializes scan results to delimited flat files.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"strat-scanner/internal/models"
	"strat-scanner/internal/scan"
)

// matchRow is the CSV shape of a single-timeframe scan result.
type matchRow struct {
	Symbol   string `csv:"symbol"`
	Patterns string `csv:"patterns"`
	CC       string `csv:"cc"`
	C1       string `csv:"c1"`
	C2       string `csv:"c2"`
}

// sweepRow is the CSV shape of a multi-timeframe sweep result.
type sweepRow struct {
	Symbol    string `csv:"symbol"`
	Timeframe string `csv:"timeframe"`
	Timestamp string `csv:"timestamp"`
	Pattern   string `csv:"pattern"`
}

// WriteMatches writes single-timeframe matches with the stable column
// order symbol, patterns, cc, c1, c2.
func WriteMatches(w io.Writer, matches []models.PatternMatch) error {
	rows := make([]matchRow, 0, len(matches))
	for _, m := range matches {
		names := make([]string, 0, len(m.Patterns))
		for _, p := range m.Patterns {
			names = append(names, string(p))
		}
		row := matchRow{
			Symbol:   m.Symbol,
			Patterns: strings.Join(names, "|"),
			CC:       m.CodeCurrent.String(),
			C1:       m.CodePrev.String(),
		}
		if m.CodePrev2 != nil {
			row.C2 = m.CodePrev2.String()
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(rows, w)
}

// WriteSweep writes sweep rows with the stable column order symbol,
// timeframe, timestamp, pattern.
func WriteSweep(w io.Writer, rows []scan.SweepRow) error {
	out := make([]sweepRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, sweepRow{
			Symbol:    r.Symbol,
			Timeframe: string(r.Timeframe),
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			Pattern:   string(r.Pattern),
		})
	}
	return gocsv.Marshal(out, w)
}

// MatchesToFile writes matches to a CSV file at path.
func MatchesToFile(path string, matches []models.PatternMatch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteMatches(f, matches)
}

// SweepToFile writes sweep rows to a CSV file at path.
func SweepToFile(path string, rows []scan.SweepRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteSweep(f, rows)
}
