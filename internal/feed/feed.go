// Package feed provides market-data retrieval clients. Each feed serves
// a normalized chronological bar sequence for one symbol; all source
// shapes are converted at this boundary.
package feed

import (
	"context"

	"strat-scanner/internal/models"
)

// Feed defines the interface for bar retrieval from a market-data source.
type Feed interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Bars fetches the trailing limit bars for one symbol on the given
	// timeframe, oldest first.
	Bars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error)
}
