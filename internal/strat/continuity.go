package strat

import (
	"math"

	"strat-scanner/internal/models"
)

// EvaluateContinuity derives the timeframe-continuity flag from the most
// recently closed bar of a higher timeframe. A bar with no range
// (high == low) or a non-numeric open/close carries no bias.
func EvaluateContinuity(bar models.Bar) models.ContinuityFlag {
	if math.IsNaN(bar.Open) || math.IsNaN(bar.Close) || bar.High == bar.Low {
		return models.ContinuityNeutral
	}
	if bar.Close > bar.Open {
		return models.ContinuityBullish
	}
	return models.ContinuityBearish
}

// HigherTimeframes returns the higher timeframes whose continuity is
// evaluated for a scan's base timeframe. The mapping is fixed policy:
// intraday scans check day, week and month; daily scans check week and
// month; weekly scans check month; monthly scans check nothing.
func HigherTimeframes(tf models.Timeframe) []models.ContinuityTimeframe {
	switch tf {
	case models.Timeframe4Hour, models.Timeframe12Hour:
		return []models.ContinuityTimeframe{models.ContinuityDay, models.ContinuityWeek, models.ContinuityMonth}
	case models.TimeframeDay, models.TimeframePrevDay, models.Timeframe3Day:
		return []models.ContinuityTimeframe{models.ContinuityWeek, models.ContinuityMonth}
	case models.TimeframeWeek:
		return []models.ContinuityTimeframe{models.ContinuityMonth}
	default:
		return nil
	}
}

// BaseTimeframe maps a continuity timeframe to the bar timeframe fetched
// for it.
func BaseTimeframe(ctf models.ContinuityTimeframe) models.Timeframe {
	switch ctf {
	case models.ContinuityDay:
		return models.TimeframeDay
	case models.ContinuityWeek:
		return models.TimeframeWeek
	default:
		return models.TimeframeMonth
	}
}
