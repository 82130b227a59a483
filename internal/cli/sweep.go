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

func newSweepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Wide scan across several timeframes",
		Long: `Run the pattern scan over several timeframes and flatten the results
into one row per symbol, timeframe and matched pattern. Useful for
spotting which timeframes a setup lines up on.`,
		Example: `  strat-scanner sweep --class crypto --timeframes day,week --filter "Inside Bar"
  strat-scanner sweep --class stock --timeframes day,week,month --filter Hammer --csv sweep.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			class, _ := cmd.Flags().GetString("class")
			timeframeNames, _ := cmd.Flags().GetStringSlice("timeframes")
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
				output.Warning("No --filter patterns selected; a sweep with no filters matches nothing.")
				return nil
			}

			timeframes := make([]models.Timeframe, 0, len(timeframeNames))
			for _, name := range timeframeNames {
				timeframes = append(timeframes, models.Timeframe(name))
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

			output.Info("Sweeping %d %s symbols across %d timeframes...", len(symbols), class, len(timeframes))

			scanner := scan.NewScanner(f, app.Logger)
			opts := app.scanOptions(assetClass, "", filters, usePrevious)
			rows, err := scanner.Sweep(ctx, symbols, timeframes, opts)
			if err != nil {
				output.Error("Sweep failed: %v", err)
				return err
			}

			if csvPath != "" {
				if err := export.SweepToFile(csvPath, rows); err != nil {
					output.Error("CSV export failed: %v", err)
					return err
				}
				output.Success("Results written to %s", csvPath)
			}

			if output.IsJSON() {
				return output.JSON(rows)
			}
			if len(rows) == 0 {
				output.Warning("No matching patterns found.")
				return nil
			}
			renderSweep(output, rows)
			return nil
		},
	}

	cmd.Flags().StringP("class", "c", "crypto", "asset class (stock, crypto)")
	cmd.Flags().StringSliceP("timeframes", "t", []string{"day", "week"}, "timeframes to sweep")
	cmd.Flags().StringSliceP("filter", "f", nil, "pattern filter, repeatable; a symbol must match all of them")
	cmd.Flags().Bool("previous", false, "classify the last closed bar instead of the forming one")
	cmd.Flags().StringP("watchlist", "w", "", "watchlist file (default: per-class path from config)")
	cmd.Flags().String("csv", "", "write results to a CSV file")

	return cmd
}
