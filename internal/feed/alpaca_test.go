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

func TestAlpacaBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/stocks/AAPL/bars" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("APCA-API-KEY-ID") != "key" || r.Header.Get("APCA-API-SECRET-KEY") != "secret" {
			t.Error("missing credential headers")
		}
		q := r.URL.Query()
		if q.Get("timeframe") != "1Day" || q.Get("feed") != "iex" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"bars": [
				{"t":"2024-01-02T05:00:00Z","o":185.5,"h":186.9,"l":183.4,"c":185.6,"v":12345},
				{"t":"2024-01-03T05:00:00Z","o":185.6,"h":187.2,"l":185.0,"c":186.1,"v":23456}
			],
			"symbol": "AAPL"
		}`))
	}))
	defer server.Close()

	f := NewAlpacaFeed(AlpacaConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL, Timeout: time.Second})
	bars, err := f.Bars(context.Background(), "AAPL", models.TimeframeDay, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Symbol != "AAPL" || bars[0].Open != 185.5 || bars[0].Volume != 12345 {
		t.Errorf("unexpected bar: %+v", bars[0])
	}
}

func TestAlpacaBarsIntradayUnsupported(t *testing.T) {
	f := NewAlpacaFeed(AlpacaConfig{APIKey: "key", APISecret: "secret"})
	_, err := f.Bars(context.Background(), "AAPL", models.Timeframe4Hour, 4)
	if !errors.Is(err, scanerrors.ErrUnsupportedTimeframe) {
		t.Errorf("expected ErrUnsupportedTimeframe, got %v", err)
	}
}

func TestAlpacaBarsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer server.Close()

	f := NewAlpacaFeed(AlpacaConfig{APIKey: "bad", APISecret: "bad", BaseURL: server.URL, Timeout: time.Second})
	_, err := f.Bars(context.Background(), "AAPL", models.TimeframeDay, 4)
	var feedErr *scanerrors.FeedError
	if !errors.As(err, &feedErr) {
		t.Fatalf("expected FeedError, got %v", err)
	}
	if feedErr.Symbol != "AAPL" || feedErr.Source != "alpaca" {
		t.Errorf("unexpected feed error fields: %+v", feedErr)
	}
}
