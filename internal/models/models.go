// Package models provides domain models for the strat scanner.
package models

import (
	"time"
)

// AssetClass represents the class of instruments in a watchlist.
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
)

// Timeframe represents a bar aggregation period.
type Timeframe string

const (
	Timeframe4Hour   Timeframe = "4h"
	Timeframe12Hour  Timeframe = "12h"
	TimeframeDay     Timeframe = "day"
	TimeframePrevDay Timeframe = "previous-day"
	Timeframe3Day    Timeframe = "3day"
	TimeframeWeek    Timeframe = "week"
	TimeframeMonth   Timeframe = "month"
)

// Timeframes returns the timeframes supported for an asset class.
// Stock sources only serve day and above; crypto serves the full set.
func Timeframes(class AssetClass) []Timeframe {
	switch class {
	case AssetStock:
		return []Timeframe{TimeframeDay, TimeframeWeek, TimeframeMonth}
	case AssetCrypto:
		return []Timeframe{
			Timeframe4Hour, Timeframe12Hour, TimeframeDay,
			TimeframePrevDay, Timeframe3Day, TimeframeWeek, TimeframeMonth,
		}
	default:
		return nil
	}
}

// SupportsTimeframe reports whether tf is available for the asset class.
func SupportsTimeframe(class AssetClass, tf Timeframe) bool {
	for _, t := range Timeframes(class) {
		if t == tf {
			return true
		}
	}
	return false
}

// Bar represents one OHLCV bar for a symbol.
// Invariant: High >= max(Open, Close), Low <= min(Open, Close), High >= Low.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// StructuralCode is the strat relationship of a bar to its predecessor.
type StructuralCode int

const (
	Inside      StructuralCode = 1
	Directional StructuralCode = 2
	Outside     StructuralCode = 3
)

func (c StructuralCode) String() string {
	switch c {
	case Inside:
		return "1"
	case Directional:
		return "2"
	case Outside:
		return "3"
	default:
		return "?"
	}
}

// Direction is the sub-direction of a Directional bar.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Pattern is an enumerated strat pattern tag.
type Pattern string

const (
	PatternHammer     Pattern = "Hammer"
	PatternShooter    Pattern = "Shooter"
	PatternInsideBar  Pattern = "Inside Bar"
	PatternOutsideBar Pattern = "Outside Bar"
	Pattern2uRed      Pattern = "2u Red"
	Pattern2dGreen    Pattern = "2d Green"
	PatternRevStrat   Pattern = "RevStrat"
	Pattern322        Pattern = "3-2-2"
)

// AllPatterns returns every supported pattern tag.
func AllPatterns() []Pattern {
	return []Pattern{
		PatternHammer, PatternShooter, PatternInsideBar, PatternOutsideBar,
		Pattern2uRed, Pattern2dGreen, PatternRevStrat, Pattern322,
	}
}

// ParsePattern maps a user-supplied name to a pattern tag.
func ParsePattern(name string) (Pattern, bool) {
	for _, p := range AllPatterns() {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// ContinuityFlag is the timeframe-continuity state for one higher timeframe.
type ContinuityFlag string

const (
	ContinuityBullish ContinuityFlag = "BULLISH"
	ContinuityBearish ContinuityFlag = "BEARISH"
	ContinuityNeutral ContinuityFlag = "NEUTRAL"
)

// ContinuityTimeframe identifies a higher timeframe used for continuity.
type ContinuityTimeframe string

const (
	ContinuityDay   ContinuityTimeframe = "D"
	ContinuityWeek  ContinuityTimeframe = "W"
	ContinuityMonth ContinuityTimeframe = "M"
)

// PatternMatch is the result of classifying one symbol's bar window.
type PatternMatch struct {
	Symbol      string
	Patterns    []Pattern
	CodeCurrent StructuralCode
	CodePrev    StructuralCode
	// CodePrev2 is only set when a fourth bar was available.
	CodePrev2  *StructuralCode
	Continuity map[ContinuityTimeframe]ContinuityFlag
	Timestamp  time.Time
}

// HasPattern reports whether the match contains the given pattern.
func (m *PatternMatch) HasPattern(p Pattern) bool {
	for _, got := range m.Patterns {
		if got == p {
			return true
		}
	}
	return false
}
