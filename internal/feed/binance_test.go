package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	scanerrors "strat-scanner/internal/errors"
	"strat-scanner/internal/models"
)

func TestConvertSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USD":  "BTCUSDT",
		"ETH/EUR":  "ETHUSDT",
		"SOLUSDT":  "SOLUSDT",
		"DOGE/USD": "DOGEUSDT",
	}
	for in, want := range cases {
		if got := ConvertSymbol(in); got != want {
			t.Errorf("ConvertSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBinanceBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "1d" || q.Get("limit") != "4" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1704067200000,"42000.1","43000.5","41500.0","42500.2","1234.5",1704153599999,"0","0","0","0","0"],
			[1704153600000,"42500.2","44000.0","42400.0","43900.9","2345.6",1704239999999,"0","0","0","0","0"]
		]`))
	}))
	defer server.Close()

	f := NewBinanceFeed(BinanceConfig{BaseURL: server.URL, Timeout: time.Second})
	bars, err := f.Bars(context.Background(), "BTC/USD", models.TimeframeDay, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	first := bars[0]
	if first.Symbol != "BTC/USD" {
		t.Errorf("bars must carry the watchlist symbol, got %s", first.Symbol)
	}
	if first.Open != 42000.1 || first.High != 43000.5 || first.Low != 41500.0 || first.Close != 42500.2 {
		t.Errorf("unexpected OHLC: %+v", first)
	}
	if !first.Timestamp.Equal(time.UnixMilli(1704067200000).UTC()) {
		t.Errorf("unexpected timestamp: %v", first.Timestamp)
	}
	if !bars[0].Timestamp.Before(bars[1].Timestamp) {
		t.Error("bars not chronological")
	}
}

func TestBinanceBarsEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	f := NewBinanceFeed(BinanceConfig{BaseURL: server.URL, Timeout: time.Second})
	_, err := f.Bars(context.Background(), "BTC/USD", models.TimeframeDay, 4)
	if !errors.Is(err, scanerrors.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestBinanceBarsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewBinanceFeed(BinanceConfig{BaseURL: server.URL, Timeout: time.Second})
	_, err := f.Bars(context.Background(), "BTC/USD", models.TimeframeDay, 4)
	if !errors.Is(err, scanerrors.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestBinanceBarsUnsupportedTimeframe(t *testing.T) {
	f := NewBinanceFeed(BinanceConfig{})
	_, err := f.Bars(context.Background(), "BTC/USD", "hourly", 4)
	if !errors.Is(err, scanerrors.ErrUnsupportedTimeframe) {
		t.Errorf("expected ErrUnsupportedTimeframe, got %v", err)
	}
}

func TestBinanceSpotPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[[1704067200000,"1","2","0.5","1.5","10",0,"0","0","0","0","0"]]`))
	}))
	defer server.Close()

	f := NewBinanceFeed(BinanceConfig{BaseURL: server.URL, UseSpot: true, Timeout: time.Second})
	if _, err := f.Bars(context.Background(), "ETH/USD", models.Timeframe4Hour, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
