package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"strat-scanner/internal/export"
	"strat-scanner/internal/models"
	"strat-scanner/internal/scan"
	"strat-scanner/internal/watchlist"
)

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a watchlist for strat patterns on one timeframe",
		Long: `Scan every symbol of a watchlist on a single timeframe.

Each symbol's trailing bars are classified into structural codes
(1=inside, 2=directional, 3=outside) and the requested patterns. A symbol
is reported only when it matches every requested --filter pattern at
once. Higher-timeframe continuity flags are shown for timeframes below
monthly.`,
		Example: `  strat-scanner scan --class crypto --timeframe day --filter "Inside Bar"
  strat-scanner scan --class stock --timeframe week --filter Hammer --filter "2d Green"
  strat-scanner scan --class crypto --timeframe 4h --filter Shooter --previous
  strat-scanner scan --class crypto --timeframe day --filter RevStrat --csv results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			class, _ := cmd.Flags().GetString("class")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			filterNames, _ := cmd.Flags().GetStringSlice("filter")
			usePrevious, _ := cmd.Flags().GetBool("previous")
			listPath, _ := cmd.Flags().GetString("watchlist")
			csvPath, _ := cmd.Flags().GetString("csv")

			filters, err := parseFilters(filterNames)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if len(filters) == 0 {
				output.Warning("No --filter patterns selected; a scan with no filters matches nothing.")
				return nil
			}

			assetClass := models.AssetClass(class)
			symbols, err := watchlist.Load(app.watchlistPath(assetClass, listPath))
			if err != nil {
				output.Error("Failed to load watchlist: %v", err)
				return err
			}

			f, err := app.newFeed(assetClass)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			output.Info("Scanning %d %s symbols on %s timeframe...", len(symbols), class, timeframe)

			scanner := scan.NewScanner(f, app.Logger)
			opts := app.scanOptions(assetClass, models.Timeframe(timeframe), filters, usePrevious)
			matches, err := scanner.Scan(ctx, symbols, opts)
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}

			if csvPath != "" {
				if err := export.MatchesToFile(csvPath, matches); err != nil {
					output.Error("CSV export failed: %v", err)
					return err
				}
				output.Success("Results written to %s", csvPath)
			}

			if output.IsJSON() {
				return output.JSON(matches)
			}
			if len(matches) == 0 {
				output.Warning("No matching patterns found.")
				return nil
			}
			renderMatches(output, matches, opts.Timeframe)
			return nil
		},
	}

	cmd.Flags().StringP("class", "c", "crypto", "asset class (stock, crypto)")
	cmd.Flags().StringP("timeframe", "t", "day", "timeframe (4h, 12h, day, previous-day, 3day, week, month)")
	cmd.Flags().StringSliceP("filter", "f", nil, "pattern filter, repeatable; a symbol must match all of them")
	cmd.Flags().Bool("previous", false, "classify the last closed bar instead of the forming one")
	cmd.Flags().StringP("watchlist", "w", "", "watchlist file (default: per-class path from config)")
	cmd.Flags().String("csv", "", "write results to a CSV file")

	return cmd
}

func newPatternsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the supported pattern filters",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			for _, p := range models.AllPatterns() {
				output.Println(string(p))
			}
		},
	}
}

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Show the tickers of a watchlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			class, _ := cmd.Flags().GetString("class")
			listPath, _ := cmd.Flags().GetString("watchlist")

			symbols, err := watchlist.Load(app.watchlistPath(models.AssetClass(class), listPath))
			if err != nil {
				output.Error("Failed to load watchlist: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(symbols)
			}
			for _, s := range symbols {
				output.Println(s)
			}
			output.Dim("%d tickers", len(symbols))
			return nil
		},
	}

	cmd.Flags().StringP("class", "c", "crypto", "asset class (stock, crypto)")
	cmd.Flags().StringP("watchlist", "w", "", "watchlist file (default: per-class path from config)")

	return cmd
}
