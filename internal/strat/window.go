package strat

import (
	"sort"

	"strat-scanner/internal/models"
)

const (
	// MinWindow is the fewest bars that can support classification: the
	// current bar needs a predecessor, and the prior structural code
	// needs one more.
	MinWindow = 3
	// PreferredWindow adds a fourth bar so the third-from-last bar's
	// structural code can be reported too.
	PreferredWindow = 4
)

// Window is the trailing bars of one symbol, oldest first, length 3 or 4.
// It is built fresh per scan and never mutated.
type Window struct {
	bars []models.Bar
}

// NewWindow wraps an oldest-first bar slice. The caller guarantees
// chronological order; use NewWindows to build windows from raw bars.
func NewWindow(bars []models.Bar) Window {
	return Window{bars: bars}
}

func (w Window) Len() int { return len(w.bars) }

// Current returns the bar being classified (window end).
func (w Window) Current() models.Bar { return w.bars[len(w.bars)-1] }

// Prev returns the bar before the current one.
func (w Window) Prev() models.Bar { return w.bars[len(w.bars)-2] }

// Prev2 returns the bar two before the current one.
func (w Window) Prev2() models.Bar { return w.bars[len(w.bars)-3] }

// Prev3 returns the bar three before the current one. Only valid when
// Len() >= 4.
func (w Window) Prev3() models.Bar { return w.bars[len(w.bars)-4] }

// NewWindows normalizes raw bars from any source into per-symbol windows:
// bars are grouped by symbol, sorted by timestamp ascending, and trimmed
// to the trailing size bars. With usePrevious the window is shifted back
// one bar, so the last closed signal is classified instead of the forming
// one. Symbols left with fewer than MinWindow bars are silently excluded.
func NewWindows(bars []models.Bar, size int, usePrevious bool) []Window {
	if size < MinWindow {
		size = MinWindow
	}

	bySymbol := make(map[string][]models.Bar)
	for _, b := range bars {
		bySymbol[b.Symbol] = append(bySymbol[b.Symbol], b)
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var windows []Window
	for _, s := range symbols {
		group := bySymbol[s]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		if usePrevious {
			group = group[:len(group)-1]
		}
		if len(group) < MinWindow {
			continue
		}
		if len(group) > size {
			group = group[len(group)-size:]
		}
		windows = append(windows, Window{bars: group})
	}
	return windows
}
