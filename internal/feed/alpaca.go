package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	scanerrors "strat-scanner/internal/errors"
	"strat-scanner/internal/models"
)

const alpacaDataURL = "https://data.alpaca.markets"

// alpacaTimeframes maps scanner timeframes to Alpaca bar timeframes.
// Intraday strat timeframes are not served for stocks.
var alpacaTimeframes = map[models.Timeframe]string{
	models.TimeframeDay:   "1Day",
	models.TimeframeWeek:  "1Week",
	models.TimeframeMonth: "1Month",
}

// alpacaLookbacks sizes the fetch window so the trailing bars are always
// covered, holidays included.
var alpacaLookbacks = map[models.Timeframe]time.Duration{
	models.TimeframeDay:   10 * 24 * time.Hour,
	models.TimeframeWeek:  6 * 7 * 24 * time.Hour,
	models.TimeframeMonth: 120 * 24 * time.Hour,
}

// AlpacaFeed fetches stock bars from the Alpaca market data REST API.
type AlpacaFeed struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	dataFeed   string
	httpClient *http.Client
}

// AlpacaConfig holds configuration for the Alpaca feed.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	DataFeed  string
	Timeout   time.Duration
}

// NewAlpacaFeed creates a new Alpaca feed.
func NewAlpacaFeed(cfg AlpacaConfig) *AlpacaFeed {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = alpacaDataURL
	}
	dataFeed := cfg.DataFeed
	if dataFeed == "" {
		dataFeed = "iex"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &AlpacaFeed{
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		baseURL:    baseURL,
		dataFeed:   dataFeed,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *AlpacaFeed) Name() string {
	return "alpaca"
}

// barsParams are the stock bars request query parameters.
type barsParams struct {
	Timeframe string `url:"timeframe"`
	Start     string `url:"start"`
	End       string `url:"end"`
	Limit     int    `url:"limit"`
	Feed      string `url:"feed"`
}

// alpacaBar is one bar in the Alpaca response payload.
type alpacaBar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// alpacaBarsResponse is the per-symbol bars payload.
type alpacaBarsResponse struct {
	Bars   []alpacaBar `json:"bars"`
	Symbol string      `json:"symbol"`
}

// Bars fetches the trailing bars for one stock symbol.
func (f *AlpacaFeed) Bars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	timeframe, ok := alpacaTimeframes[tf]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", scanerrors.ErrUnsupportedTimeframe, tf, f.Name())
	}

	end := time.Now().UTC()
	start := end.Add(-alpacaLookbacks[tf])

	// Alpaca serves bars oldest-first from the window start, so the
	// request limit must cover the whole lookback; the trailing trim
	// happens downstream.
	requestLimit := limit
	if requestLimit < 100 {
		requestLimit = 100
	}
	params, err := query.Values(barsParams{
		Timeframe: timeframe,
		Start:     start.Format(time.RFC3339),
		End:       end.Format(time.RFC3339),
		Limit:     requestLimit,
		Feed:      f.dataFeed,
	})
	if err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, err)
	}

	endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", f.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, err)
	}
	req.Header.Set("APCA-API-KEY-ID", f.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", f.apiSecret)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, scanerrors.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, scanerrors.NewFeedError(f.Name(), symbol,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload alpacaBarsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, fmt.Errorf("parsing bars: %w", err))
	}
	if len(payload.Bars) == 0 {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, scanerrors.ErrNoData)
	}

	bars := make([]models.Bar, 0, len(payload.Bars))
	for _, b := range payload.Bars {
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: b.Timestamp.UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	return bars, nil
}
