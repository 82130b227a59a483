// Package scan composes the feed, classifier and continuity evaluator
// into one scan pipeline.
package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	scanerrors "strat-scanner/internal/errors"
	"strat-scanner/internal/feed"
	"strat-scanner/internal/models"
	"strat-scanner/internal/strat"
	"strat-scanner/pkg/utils"
)

// DefaultWorkers bounds concurrent symbol fetches to respect source rate
// limits.
const DefaultWorkers = 8

// Options configure a scan.
type Options struct {
	AssetClass  models.AssetClass
	Timeframe   models.Timeframe
	Filters     strat.PatternSet
	WindowSize  int
	UsePrevious bool
	Workers     int
	Retry       utils.RetryConfig
}

// Scanner runs strat pattern scans over a watchlist.
type Scanner struct {
	feed   feed.Feed
	logger zerolog.Logger
}

// NewScanner creates a new Scanner over the given feed.
func NewScanner(f feed.Feed, logger zerolog.Logger) *Scanner {
	return &Scanner{feed: f, logger: logger}
}

// SweepRow is one flattened result row of a multi-timeframe sweep.
type SweepRow struct {
	Symbol    string
	Timeframe models.Timeframe
	Timestamp time.Time
	Pattern   models.Pattern
}

// Scan fetches bars for every watchlist symbol, classifies each symbol's
// trailing window and merges in the continuity flags of the required
// higher timeframes. Per-symbol failures are logged and skipped; only an
// invalid timeframe or asset class aborts the scan. An empty result is
// the explicit no-match state, not an error.
func (s *Scanner) Scan(ctx context.Context, symbols []string, opts Options) ([]models.PatternMatch, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	windowSize := opts.WindowSize
	if windowSize < strat.MinWindow {
		windowSize = strat.PreferredWindow
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = utils.DefaultRetryConfig()
	}

	// The previous-day timeframe is a daily fetch with the forming bar
	// dropped by the window shift.
	fetchTF := opts.Timeframe
	usePrevious := opts.UsePrevious
	if fetchTF == models.TimeframePrevDay {
		fetchTF = models.TimeframeDay
		usePrevious = true
	}
	higher := strat.HigherTimeframes(opts.Timeframe)

	// One extra bar covers the shift in previous-bar mode.
	fetchLimit := windowSize
	if usePrevious {
		fetchLimit++
	}

	jobs := make(chan string)
	var (
		mu      sync.Mutex
		matches []models.PatternMatch
		wg      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				match := s.scanSymbol(ctx, symbol, fetchTF, higher, fetchLimit, windowSize, usePrevious, opts)
				if match != nil {
					mu.Lock()
					matches = append(matches, *match)
					mu.Unlock()
				}
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Symbol < matches[j].Symbol
	})
	return matches, nil
}

// scanSymbol fetches, classifies and annotates one symbol. It returns nil
// on fetch failure, insufficient history or no pattern match.
func (s *Scanner) scanSymbol(
	ctx context.Context,
	symbol string,
	fetchTF models.Timeframe,
	higher []models.ContinuityTimeframe,
	fetchLimit, windowSize int,
	usePrevious bool,
	opts Options,
) *models.PatternMatch {
	logger := s.logger.With().Str("symbol", symbol).Logger()

	bars, err := utils.RetryWithResult(ctx, opts.Retry, func() ([]models.Bar, error) {
		return s.feed.Bars(ctx, symbol, fetchTF, fetchLimit)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Dropping symbol: bar fetch failed")
		return nil
	}

	windows := strat.NewWindows(bars, windowSize, usePrevious)
	if len(windows) == 0 {
		logger.Debug().Int("bars", len(bars)).Msg("Excluding symbol: insufficient history")
		return nil
	}

	match := strat.Classify(windows[0], opts.Filters)
	if match == nil {
		return nil
	}

	if len(higher) > 0 {
		match.Continuity = s.continuity(ctx, symbol, higher, opts.Retry, logger)
	}
	return match
}

// continuity evaluates the continuity flag of each required higher
// timeframe from its most recently closed bar. A failed higher-timeframe
// fetch degrades that flag to Neutral rather than dropping the symbol.
func (s *Scanner) continuity(
	ctx context.Context,
	symbol string,
	higher []models.ContinuityTimeframe,
	retry utils.RetryConfig,
	logger zerolog.Logger,
) map[models.ContinuityTimeframe]models.ContinuityFlag {
	flags := make(map[models.ContinuityTimeframe]models.ContinuityFlag, len(higher))
	for _, ctf := range higher {
		bars, err := utils.RetryWithResult(ctx, retry, func() ([]models.Bar, error) {
			return s.feed.Bars(ctx, symbol, strat.BaseTimeframe(ctf), 2)
		})
		if err != nil || len(bars) == 0 {
			logger.Warn().Err(err).Str("timeframe", string(ctf)).Msg("Continuity fetch failed, flag neutral")
			flags[ctf] = models.ContinuityNeutral
			continue
		}
		// The last bar of a higher timeframe is usually still forming;
		// the penultimate one is the last closed bar.
		bar := bars[len(bars)-1]
		if len(bars) >= 2 {
			bar = bars[len(bars)-2]
		}
		flags[ctf] = strat.EvaluateContinuity(bar)
	}
	return flags
}

// Sweep runs the scan across several timeframes and flattens the matches
// into per-pattern rows.
func (s *Scanner) Sweep(ctx context.Context, symbols []string, timeframes []models.Timeframe, opts Options) ([]SweepRow, error) {
	for _, tf := range timeframes {
		if !models.SupportsTimeframe(opts.AssetClass, tf) {
			return nil, fmt.Errorf("%w: %s for asset class %s", scanerrors.ErrUnsupportedTimeframe, tf, opts.AssetClass)
		}
	}

	var rows []SweepRow
	for _, tf := range timeframes {
		tfOpts := opts
		tfOpts.Timeframe = tf
		matches, err := s.Scan(ctx, symbols, tfOpts)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			for _, p := range m.Patterns {
				rows = append(rows, SweepRow{
					Symbol:    m.Symbol,
					Timeframe: tf,
					Timestamp: m.Timestamp,
					Pattern:   p,
				})
			}
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Timeframe < rows[j].Timeframe
	})
	return rows, nil
}

func validate(opts Options) error {
	if opts.AssetClass != models.AssetStock && opts.AssetClass != models.AssetCrypto {
		return fmt.Errorf("%w: %q", scanerrors.ErrUnknownAssetClass, opts.AssetClass)
	}
	if !models.SupportsTimeframe(opts.AssetClass, opts.Timeframe) {
		return fmt.Errorf("%w: %s for asset class %s", scanerrors.ErrUnsupportedTimeframe, opts.Timeframe, opts.AssetClass)
	}
	return nil
}
