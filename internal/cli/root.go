// Package cli provides the command-line interface for the scanner.
package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"strat-scanner/internal/config"
	scanerrors "strat-scanner/internal/errors"
	"strat-scanner/internal/feed"
	"strat-scanner/internal/logging"
	"strat-scanner/internal/models"
	"strat-scanner/internal/scan"
	"strat-scanner/internal/strat"
	"strat-scanner/pkg/utils"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "strat-scanner",
		Short: "Strat candlestick pattern scanner",
		Long: `Strat Scanner classifies the trailing bars of every watchlist symbol
into strat structural codes and named patterns (Hammer, Shooter, Inside
Bar, Outside Bar, 2u Red, 2d Green, RevStrat, 3-2-2), with timeframe
continuity flags from the higher timeframes.

Use 'strat-scanner scan' for a single-timeframe scan and
'strat-scanner sweep' for a wide scan across several timeframes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newScanCmd(app))
	rootCmd.AddCommand(newSweepCmd(app))
	rootCmd.AddCommand(newWatchlistCmd(app))
	rootCmd.AddCommand(newPatternsCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scanner version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "strat-scanner %s\n", Version)
		},
	}
}

// newFeed builds the feed serving an asset class from configuration.
func (app *App) newFeed(class models.AssetClass) (feed.Feed, error) {
	timeout := app.Config.Scanner.RequestTimeoutDuration()
	switch class {
	case models.AssetCrypto:
		return feed.NewBinanceFeed(feed.BinanceConfig{
			BaseURL: app.Config.Binance.BaseURL,
			UseSpot: app.Config.Binance.UseSpot,
			Timeout: timeout,
		}), nil
	case models.AssetStock:
		if app.Config.Alpaca.APIKey == "" || app.Config.Alpaca.APISecret == "" {
			return nil, fmt.Errorf("%w: APCA_API_KEY_ID / APCA_API_SECRET_KEY not set", scanerrors.ErrConfigInvalid)
		}
		return feed.NewAlpacaFeed(feed.AlpacaConfig{
			APIKey:    app.Config.Alpaca.APIKey,
			APISecret: app.Config.Alpaca.APISecret,
			BaseURL:   app.Config.Alpaca.BaseURL,
			DataFeed:  app.Config.Alpaca.DataFeed,
			Timeout:   timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", scanerrors.ErrUnknownAssetClass, class)
	}
}

// scanOptions assembles scan options from config and command flags.
func (app *App) scanOptions(class models.AssetClass, tf models.Timeframe, filters strat.PatternSet, usePrevious bool) scan.Options {
	return scan.Options{
		AssetClass:  class,
		Timeframe:   tf,
		Filters:     filters,
		WindowSize:  app.Config.Scanner.WindowSize,
		UsePrevious: usePrevious,
		Workers:     app.Config.Scanner.Workers,
		Retry: utils.RetryConfig{
			MaxAttempts:   app.Config.Scanner.RetryAttempts,
			InitialDelay:  app.Config.Scanner.RetryDelayDuration(),
			MaxDelay:      2 * time.Second,
			BackoffFactor: 1.5,
		},
	}
}

// watchlistPath resolves the watchlist file for an asset class, honoring
// a command-line override.
func (app *App) watchlistPath(class models.AssetClass, override string) string {
	if override != "" {
		return override
	}
	if class == models.AssetCrypto {
		return app.Config.Watchlist.Crypto
	}
	return app.Config.Watchlist.Stock
}

// parseFilters maps --filter values to pattern tags. Unknown names are
// fatal: a typo must not silently relax the all-match gate.
func parseFilters(names []string) (strat.PatternSet, error) {
	set := strat.NewPatternSet()
	for _, name := range names {
		p, ok := models.ParsePattern(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q (see 'strat-scanner patterns')", scanerrors.ErrUnknownPattern, name)
		}
		set[p] = struct{}{}
	}
	return set, nil
}
