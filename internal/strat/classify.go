// Package strat implements strat structural-code derivation, pattern
// classification, and timeframe-continuity evaluation. Everything here is
// a pure function over Bar data.
package strat

import (
	"strat-scanner/internal/models"
)

const (
	// wickBodyRatio is the minimum wick-to-body ratio for Hammer/Shooter.
	wickBodyRatio = 1.5
	// bodyPositionRatio bounds the body to one extreme of the range.
	bodyPositionRatio = 0.4
)

// PatternSet is the set of patterns a scan filters on.
type PatternSet map[models.Pattern]struct{}

// NewPatternSet builds a PatternSet from pattern tags.
func NewPatternSet(patterns ...models.Pattern) PatternSet {
	s := make(PatternSet, len(patterns))
	for _, p := range patterns {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether the set contains the pattern.
func (s PatternSet) Has(p models.Pattern) bool {
	_, ok := s[p]
	return ok
}

// Patterns returns the set members in canonical order.
func (s PatternSet) Patterns() []models.Pattern {
	var out []models.Pattern
	for _, p := range models.AllPatterns() {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// StructuralCodeOf derives the structural code of bar x against its
// predecessor p. Equality on either side never counts as containment or
// engulfing: a bar matching the predecessor's high and low on both sides
// is Directional with a flat sub-direction.
func StructuralCodeOf(x, p models.Bar) (models.StructuralCode, models.Direction) {
	switch {
	case x.High < p.High && x.Low > p.Low:
		return models.Inside, models.DirectionFlat
	case x.High > p.High && x.Low < p.Low:
		return models.Outside, models.DirectionFlat
	case x.High > p.High:
		return models.Directional, models.DirectionUp
	case x.Low < p.Low:
		return models.Directional, models.DirectionDown
	default:
		return models.Directional, models.DirectionFlat
	}
}

// geometry holds the wick/body measurements of a single bar.
type geometry struct {
	body      float64
	upperWick float64
	lowerWick float64
	rng       float64
	// body sits in the top 40% of the range
	bodyAtHigh bool
	// body sits in the bottom 40% of the range
	bodyAtLow bool
}

func measure(c models.Bar) geometry {
	g := geometry{
		body:      abs(c.Close - c.Open),
		upperWick: c.High - max(c.Open, c.Close),
		lowerWick: min(c.Open, c.Close) - c.Low,
	}
	if c.High > c.Low {
		g.rng = c.High - c.Low
		g.bodyAtHigh = min(c.Open, c.Close) >= c.High-g.rng*bodyPositionRatio
		g.bodyAtLow = max(c.Open, c.Close) <= c.Low+g.rng*bodyPositionRatio
	}
	return g
}

func isGreen(c models.Bar) bool { return c.Close > c.Open }
func isRed(c models.Bar) bool   { return c.Close < c.Open }

// matches evaluates a single pattern predicate against the window.
// NaN values in a malformed bar fail every strict comparison, so a
// malformed current or predecessor bar can never match.
func matches(p models.Pattern, w Window, ccCode models.StructuralCode, prevCode models.StructuralCode, g geometry) bool {
	cc, c1 := w.Current(), w.Prev()

	switch p {
	case models.PatternHammer:
		return g.rng > 0 && g.lowerWick >= wickBodyRatio*g.body && g.bodyAtHigh
	case models.PatternShooter:
		return g.rng > 0 && g.upperWick >= wickBodyRatio*g.body && g.bodyAtLow
	case models.PatternInsideBar:
		return ccCode == models.Inside
	case models.PatternOutsideBar:
		return ccCode == models.Outside
	case models.Pattern2uRed:
		return ccCode == models.Directional && cc.High > c1.High && isRed(cc)
	case models.Pattern2dGreen:
		return ccCode == models.Directional && cc.Low < c1.Low && isGreen(cc)
	case models.PatternRevStrat:
		return prevCode == models.Inside && ccCode == models.Directional
	case models.Pattern322:
		return prevCode == models.Outside && ccCode == models.Directional
	default:
		return false
	}
}

// Classify evaluates the requested pattern filters against one symbol's
// bar window and returns a match only when every requested pattern
// matched. An empty filter set yields no match: the caller must name the
// patterns it scans for.
func Classify(w Window, filters PatternSet) *models.PatternMatch {
	if w.Len() < MinWindow || len(filters) == 0 {
		return nil
	}

	cc, c1 := w.Current(), w.Prev()
	ccCode, _ := StructuralCodeOf(cc, c1)
	prevCode, _ := StructuralCodeOf(c1, w.Prev2())

	var prev2Code *models.StructuralCode
	if w.Len() >= 4 {
		code, _ := StructuralCodeOf(w.Prev2(), w.Prev3())
		prev2Code = &code
	}

	g := measure(cc)

	var matched []models.Pattern
	for _, p := range filters.Patterns() {
		if matches(p, w, ccCode, prevCode, g) {
			matched = append(matched, p)
		}
	}
	if len(matched) != len(filters) {
		return nil
	}

	return &models.PatternMatch{
		Symbol:      cc.Symbol,
		Patterns:    matched,
		CodeCurrent: ccCode,
		CodePrev:    prevCode,
		CodePrev2:   prev2Code,
		Timestamp:   cc.Timestamp,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
