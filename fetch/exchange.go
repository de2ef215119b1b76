package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dnldd/replay/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the default exchange api url.
	BaseURL = "https://api.binance.com"
	// klinesPath is the spot kline endpoint path.
	klinesPath = "/api/v3/klines"
	// chunkLimit is the maximum number of klines fetched per request.
	chunkLimit = 1000
	// requestsPerSecond caps the request rate against the exchange api.
	requestsPerSecond = 10
)

// ExchangeConfig represents the exchange client configuration.
type ExchangeConfig struct {
	// BaseURL is the exchange api url.
	BaseURL string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ExchangeConfig) Validate() error {
	var errs error

	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("base url cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// ExchangeClient represents an exchange spot market data client.
type ExchangeClient struct {
	cfg     *ExchangeConfig
	httpc   http.Client
	limiter *rate.Limiter
}

// Ensure the exchange client implements the CandleSource interface.
var _ shared.CandleSource = (*ExchangeClient)(nil)

// NewExchangeClient instantiates a new exchange client.
func NewExchangeClient(cfg *ExchangeConfig) (*ExchangeClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating exchange config: %w", err)
	}

	return &ExchangeClient{
		cfg:     cfg,
		httpc:   http.Client{Timeout: time.Second * 10},
		limiter: rate.NewLimiter(requestsPerSecond, requestsPerSecond),
	}, nil
}

// interval returns the exchange kline interval for the provided timeframe.
func interval(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.OneMinute:
		return "1m", nil
	case shared.FiveMinute:
		return "5m", nil
	case shared.OneHour:
		return "1h", nil
	case shared.OneDay:
		return "1d", nil
	default:
		return "", fmt.Errorf("no kline interval for timeframe: %s", timeframe.String())
	}
}

// fetchChunk fetches a single chunk of klines starting at the provided time.
func (c *ExchangeClient) fetchChunk(ctx context.Context, market string, iv string, start time.Time, end time.Time) ([]gjson.Result, error) {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("awaiting request slot: %w", err)
	}

	params := url.Values{}
	params.Add("symbol", market)
	params.Add("interval", iv)
	params.Add("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	params.Add("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	params.Add("limit", strconv.Itoa(chunkLimit))

	formedURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, klinesPath, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating kline request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching klines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected kline response status: %s", resp.Status)
	}

	readb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading kline response: %w", err)
	}

	return gjson.ParseBytes(readb).Array(), nil
}

// parseKline parses a candlestick from the provided kline entry. Klines are
// arrays of [open time, open, high, low, close, volume, ...].
func parseKline(entry gjson.Result, market string, timeframe shared.Timeframe) shared.Candlestick {
	fields := entry.Array()

	return shared.Candlestick{
		Date:      time.UnixMilli(fields[0].Int()).UTC(),
		Open:      fields[1].Float(),
		High:      fields[2].Float(),
		Low:       fields[3].Float(),
		Close:     fields[4].Float(),
		Volume:    fields[5].Float(),
		Market:    market,
		Timeframe: timeframe,
	}
}

// FetchCandles fetches the candle sequence for the provided market and range,
// paging through the exchange api in chunks.
func (c *ExchangeClient) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	iv, err := interval(timeframe)
	if err != nil {
		return nil, err
	}

	if end.IsZero() {
		end = time.Now().UTC()
	}

	candles := make([]shared.Candlestick, 0, chunkLimit)
	current := start
	for current.Before(end) {
		chunk, err := c.fetchChunk(ctx, market, iv, current, end)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}

		for idx := range chunk {
			candle := parseKline(chunk[idx], market, timeframe)
			if candle.Date.After(end) {
				break
			}
			candles = append(candles, candle)
		}

		last := time.UnixMilli(chunk[len(chunk)-1].Array()[0].Int()).UTC()
		current = last.Add(time.Millisecond)
	}

	c.cfg.Logger.Info().Msgf("fetched %d %s candles for %s", len(candles), iv, market)

	return candles, nil
}
