package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	scanerrors "strat-scanner/internal/errors"
	"strat-scanner/internal/models"
)

const (
	binanceFuturesURL = "https://fapi.binance.com"
	binanceSpotURL    = "https://data-api.binance.vision"

	futuresKlinesPath = "/fapi/v1/klines"
	spotKlinesPath    = "/api/v3/klines"
)

// binanceIntervals maps scanner timeframes to Binance kline intervals.
// The previous-day timeframe fetches daily bars; the forming bar is
// dropped later by the window shift.
var binanceIntervals = map[models.Timeframe]string{
	models.Timeframe4Hour:   "4h",
	models.Timeframe12Hour:  "12h",
	models.TimeframeDay:     "1d",
	models.TimeframePrevDay: "1d",
	models.Timeframe3Day:    "3d",
	models.TimeframeWeek:    "1w",
	models.TimeframeMonth:   "1M",
}

// BinanceFeed fetches crypto bars from the Binance klines REST API. The
// futures endpoint is the default; the spot data API serves as a
// geo-restriction fallback.
type BinanceFeed struct {
	baseURL    string
	klinesPath string
	httpClient *http.Client
}

// BinanceConfig holds configuration for the Binance feed.
type BinanceConfig struct {
	BaseURL string
	UseSpot bool
	Timeout time.Duration
}

// NewBinanceFeed creates a new Binance feed.
func NewBinanceFeed(cfg BinanceConfig) *BinanceFeed {
	baseURL := cfg.BaseURL
	klinesPath := futuresKlinesPath
	if cfg.UseSpot {
		klinesPath = spotKlinesPath
		if baseURL == "" {
			baseURL = binanceSpotURL
		}
	}
	if baseURL == "" {
		baseURL = binanceFuturesURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &BinanceFeed{
		baseURL:    baseURL,
		klinesPath: klinesPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *BinanceFeed) Name() string {
	return "binance"
}

// klineParams are the kline request query parameters.
type klineParams struct {
	Symbol   string `url:"symbol"`
	Interval string `url:"interval"`
	Limit    int    `url:"limit"`
}

// Bars fetches the trailing limit klines for one symbol.
func (f *BinanceFeed) Bars(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Bar, error) {
	interval, ok := binanceIntervals[tf]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", scanerrors.ErrUnsupportedTimeframe, tf, f.Name())
	}

	params, err := query.Values(klineParams{
		Symbol:   ConvertSymbol(symbol),
		Interval: interval,
		Limit:    limit,
	})
	if err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, err)
	}

	endpoint := f.baseURL + f.klinesPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, err)
	}

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

	// Klines arrive as raw arrays:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, fmt.Errorf("parsing klines: %w", err))
	}
	if len(rawKlines) == 0 {
		return nil, scanerrors.NewFeedError(f.Name(), symbol, scanerrors.ErrNoData)
	}

	bars := make([]models.Bar, 0, len(rawKlines))
	for _, raw := range rawKlines {
		if len(raw) < 6 {
			return nil, scanerrors.NewFeedError(f.Name(), symbol, fmt.Errorf("short kline row: %d fields", len(raw)))
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			return nil, scanerrors.NewFeedError(f.Name(), symbol, fmt.Errorf("bad kline open time: %v", raw[0]))
		}
		bars = append(bars, models.Bar{
			Symbol:    symbol,
			Timestamp: time.UnixMilli(int64(openTime)).UTC(),
			Open:      parseFloat(raw[1]),
			High:      parseFloat(raw[2]),
			Low:       parseFloat(raw[3]),
			Close:     parseFloat(raw[4]),
			Volume:    parseFloat(raw[5]),
		})
	}
	return bars, nil
}

// ConvertSymbol converts a watchlist symbol like "BTC/USD" to the Binance
// form "BTCUSDT". Symbols without a quote part pass through unchanged.
func ConvertSymbol(symbol string) string {
	base, _, found := strings.Cut(symbol, "/")
	if !found {
		return symbol
	}
	return base + "USDT"
}

func parseFloat(v interface{}) float64 {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return val
	default:
		return 0
	}
}
