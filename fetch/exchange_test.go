package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dnldd/replay/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

func TestInterval(t *testing.T) {
	iv, err := interval(shared.FiveMinute)
	assert.Nil(t, err)
	assert.Equal(t, "5m", iv)

	iv, err = interval(shared.OneHour)
	assert.Nil(t, err)
	assert.Equal(t, "1h", iv)

	_, err = interval(shared.Timeframe(99))
	assert.Error(t, err)
}

func TestFetchCandlesPagesChunks(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	// Serve two chunks of two klines each, then an empty chunk.
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		since, err := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		assert.Nil(t, err)

		if requests > 2 {
			fmt.Fprint(w, "[]")
			return
		}

		first := time.UnixMilli(since)
		second := first.Add(time.Minute * 5)
		fmt.Fprintf(w, `[
			[%d, "100", "101", "99", "100.5", "1200", 0],
			[%d, "100.5", "102", "100", "101.5", "1500", 0]
		]`, first.UnixMilli(), second.UnixMilli())
	}))
	defer server.Close()

	client, err := NewExchangeClient(&ExchangeConfig{
		BaseURL: server.URL,
		Logger:  &log.Logger,
	})
	assert.Nil(t, err)

	candles, err := client.FetchCandles(context.Background(), "BTCUSDT",
		shared.FiveMinute, start, start.Add(time.Hour))
	assert.Nil(t, err)
	assert.Equal(t, 4, len(candles))

	assert.Equal(t, float64(100), candles[0].Open)
	assert.Equal(t, 101.5, candles[1].Close)
	assert.Equal(t, "BTCUSDT", candles[0].Market)
	assert.Equal(t, start, candles[0].Date)

	// The second chunk resumes a millisecond after the first chunk's last kline.
	assert.Equal(t, start.Add(time.Minute*5+time.Millisecond), candles[2].Date)
}

func TestFetchCandlesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewExchangeClient(&ExchangeConfig{
		BaseURL: server.URL,
		Logger:  &log.Logger,
	})
	assert.Nil(t, err)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = client.FetchCandles(context.Background(), "BTCUSDT",
		shared.FiveMinute, start, start.Add(time.Hour))
	assert.Error(t, err)
}
