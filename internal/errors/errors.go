// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrUnknownAssetClass    = errors.New("unknown asset class")
	ErrUnsupportedTimeframe = errors.New("unsupported timeframe")
	ErrUnknownPattern       = errors.New("unknown pattern")
	ErrNoData               = errors.New("no bar data returned")
	ErrRateLimited          = errors.New("rate limited")
	ErrConfigInvalid        = errors.New("invalid configuration")
)

// FeedError represents an error from a market-data source. Feed errors
// are recovered per symbol and never abort a scan.
type FeedError struct {
	Source string
	Symbol string
	Err    error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed error [%s] %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new FeedError.
func NewFeedError(source, symbol string, err error) *FeedError {
	return &FeedError{Source: source, Symbol: symbol, Err: err}
}
