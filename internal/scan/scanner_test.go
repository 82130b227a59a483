package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	scanerrors "strat-scanner/internal/errors"
	"strat-scanner/internal/models"
	"strat-scanner/internal/strat"
	"strat-scanner/pkg/utils"
)

// fakeFeed serves canned bars per symbol and timeframe.
type fakeFeed struct {
	mu    sync.Mutex
	bars  map[string]map[models.Timeframe][]models.Bar
	fails map[string]error
	calls int
}

func (f *fakeFeed) Name() string { return "fake" }

func (f *fakeFeed) Bars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err, ok := f.fails[symbol]; ok {
		return nil, err
	}
	bars := f.bars[symbol][tf]
	if len(bars) == 0 {
		return nil, scanerrors.ErrNoData
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func testBars(symbol string, ohlc ...[4]float64) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, 0, len(ohlc))
	for i, v := range ohlc {
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: base.AddDate(0, 0, i),
			Open:      v[0],
			High:      v[1],
			Low:       v[2],
			Close:     v[3],
			Volume:    1000,
		})
	}
	return bars
}

// insideBars end in an inside bar against the predecessor.
func insideBars(symbol string) []models.Bar {
	return testBars(symbol,
		[4]float64{9, 10, 8, 9.5},
		[4]float64{9, 11, 7, 10},
		[4]float64{9.5, 10.5, 8.5, 10},
	)
}

func fastRetry() utils.RetryConfig {
	return utils.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func testOptions(tf models.Timeframe, filters strat.PatternSet) Options {
	return Options{
		AssetClass: models.AssetCrypto,
		Timeframe:  tf,
		Filters:    filters,
		Workers:    2,
		Retry:      fastRetry(),
	}
}

func TestScanMatchesAndSorts(t *testing.T) {
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		"BBB/USD": {models.TimeframeMonth: insideBars("BBB/USD")},
		"AAA/USD": {models.TimeframeMonth: insideBars("AAA/USD")},
	}}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"BBB/USD", "AAA/USD"},
		testOptions(models.TimeframeMonth, strat.NewPatternSet(models.PatternInsideBar)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Symbol != "AAA/USD" || matches[1].Symbol != "BBB/USD" {
		t.Errorf("matches not sorted by symbol: %v, %v", matches[0].Symbol, matches[1].Symbol)
	}
	// monthly scans have no higher timeframe
	if matches[0].Continuity != nil {
		t.Errorf("monthly scan must carry no continuity, got %v", matches[0].Continuity)
	}
}

func TestScanFailingSymbolIsDropped(t *testing.T) {
	f := &fakeFeed{
		bars: map[string]map[models.Timeframe][]models.Bar{
			"AAA/USD": {models.TimeframeMonth: insideBars("AAA/USD")},
		},
		fails: map[string]error{"BAD/USD": errors.New("connection reset")},
	}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"AAA/USD", "BAD/USD"},
		testOptions(models.TimeframeMonth, strat.NewPatternSet(models.PatternInsideBar)))
	if err != nil {
		t.Fatalf("per-symbol failure must not abort the scan: %v", err)
	}
	if len(matches) != 1 || matches[0].Symbol != "AAA/USD" {
		t.Errorf("expected only AAA/USD, got %v", matches)
	}
}

func TestScanInsufficientHistoryExcluded(t *testing.T) {
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		"AAA/USD": {models.TimeframeMonth: testBars("AAA/USD",
			[4]float64{9, 10, 8, 9.5},
			[4]float64{9, 11, 7, 10},
		)},
	}}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"AAA/USD"},
		testOptions(models.TimeframeMonth, strat.NewPatternSet(models.PatternInsideBar)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("two-bar symbol must be excluded, got %v", matches)
	}
}

func TestScanContinuityMerged(t *testing.T) {
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		"AAA/USD": {
			models.TimeframeWeek: insideBars("AAA/USD"),
			// two monthly bars: the penultimate (closed) one is green
			models.TimeframeMonth: testBars("AAA/USD",
				[4]float64{9, 10, 8, 9.5},
				[4]float64{9.5, 10, 9, 9.2},
			),
		},
	}}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"AAA/USD"},
		testOptions(models.TimeframeWeek, strat.NewPatternSet(models.PatternInsideBar)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if got := matches[0].Continuity[models.ContinuityMonth]; got != models.ContinuityBullish {
		t.Errorf("expected bullish monthly continuity from the closed bar, got %v", got)
	}
}

func TestScanContinuityFetchFailureDegradesToNeutral(t *testing.T) {
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		// weekly bars present, monthly missing entirely
		"AAA/USD": {models.TimeframeWeek: insideBars("AAA/USD")},
	}}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"AAA/USD"},
		testOptions(models.TimeframeWeek, strat.NewPatternSet(models.PatternInsideBar)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if got := matches[0].Continuity[models.ContinuityMonth]; got != models.ContinuityNeutral {
		t.Errorf("failed continuity fetch must degrade to neutral, got %v", got)
	}
}

func TestScanUnsupportedTimeframeFatal(t *testing.T) {
	s := NewScanner(&fakeFeed{}, zerolog.Nop())

	opts := testOptions(models.Timeframe4Hour, strat.NewPatternSet(models.PatternInsideBar))
	opts.AssetClass = models.AssetStock
	_, err := s.Scan(context.Background(), []string{"AAPL"}, opts)
	if !errors.Is(err, scanerrors.ErrUnsupportedTimeframe) {
		t.Errorf("expected ErrUnsupportedTimeframe, got %v", err)
	}
}

func TestScanUnknownAssetClassFatal(t *testing.T) {
	s := NewScanner(&fakeFeed{}, zerolog.Nop())

	opts := testOptions(models.TimeframeDay, strat.NewPatternSet(models.PatternInsideBar))
	opts.AssetClass = "forex"
	_, err := s.Scan(context.Background(), []string{"EURUSD"}, opts)
	if !errors.Is(err, scanerrors.ErrUnknownAssetClass) {
		t.Errorf("expected ErrUnknownAssetClass, got %v", err)
	}
}

func TestScanEmptyFiltersMatchNothing(t *testing.T) {
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		"AAA/USD": {models.TimeframeMonth: insideBars("AAA/USD")},
	}}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"AAA/USD"},
		testOptions(models.TimeframeMonth, strat.NewPatternSet()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("empty filter set must match nothing, got %v", matches)
	}
}

func TestScanPreviousDayShift(t *testing.T) {
	// the forming daily bar is an outside bar; the closed one before it
	// is inside
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		"AAA/USD": {
			models.TimeframeDay: testBars("AAA/USD",
				[4]float64{9, 10, 8, 9.5},
				[4]float64{9, 11, 7, 10},
				[4]float64{9.5, 10.5, 8.5, 10},
				[4]float64{10, 12, 6, 11},
			),
			models.TimeframeWeek:  insideBars("AAA/USD"),
			models.TimeframeMonth: insideBars("AAA/USD"),
		},
	}}
	s := NewScanner(f, zerolog.Nop())

	matches, err := s.Scan(context.Background(), []string{"AAA/USD"},
		testOptions(models.TimeframePrevDay, strat.NewPatternSet(models.PatternInsideBar)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected the closed inside bar to match, got %d matches", len(matches))
	}
	if matches[0].CodeCurrent != models.Inside {
		t.Errorf("expected current code 1, got %v", matches[0].CodeCurrent)
	}
}

func TestSweepFlattensRows(t *testing.T) {
	f := &fakeFeed{bars: map[string]map[models.Timeframe][]models.Bar{
		"AAA/USD": {
			models.TimeframeWeek:  insideBars("AAA/USD"),
			models.TimeframeMonth: insideBars("AAA/USD"),
		},
	}}
	s := NewScanner(f, zerolog.Nop())

	opts := testOptions("", strat.NewPatternSet(models.PatternInsideBar))
	rows, err := s.Sweep(context.Background(), []string{"AAA/USD"},
		[]models.Timeframe{models.TimeframeWeek, models.TimeframeMonth}, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Pattern != models.PatternInsideBar {
			t.Errorf("unexpected pattern %v", r.Pattern)
		}
	}
}

func TestSweepRejectsUnsupportedTimeframe(t *testing.T) {
	s := NewScanner(&fakeFeed{}, zerolog.Nop())

	opts := testOptions("", strat.NewPatternSet(models.PatternInsideBar))
	opts.AssetClass = models.AssetStock
	_, err := s.Sweep(context.Background(), []string{"AAPL"},
		[]models.Timeframe{models.TimeframeDay, models.Timeframe4Hour}, opts)
	if !errors.Is(err, scanerrors.ErrUnsupportedTimeframe) {
		t.Errorf("expected ErrUnsupportedTimeframe, got %v", err)
	}
}
