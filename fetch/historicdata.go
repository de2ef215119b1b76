package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dnldd/replay/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic data source configuration.
type HistoricDataConfig struct {
	// Market represents the historic data market.
	Market string
	// Timeframe represents the timeframe for the historic data.
	Timeframe shared.Timeframe
	// FilePath is the filepath to the historic market data.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *HistoricDataConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("market cannot be an empty string"))
	}
	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("filepath cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// HistoricData represents a historic market data source backed by a json file.
type HistoricData struct {
	cfg     *HistoricDataConfig
	candles []shared.Candlestick
}

// Ensure the historic data source implements the CandleSource interface.
var _ shared.CandleSource = (*HistoricData)(nil)

// loadHistoricData loads the historic data bytes from the provided file path.
func loadHistoricData(filepath string) ([]gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %v", filepath, err)
	}

	b := gjson.ParseBytes(readb).Array()

	return b, nil
}

// NewHistoricData initializes a new historic data source.
func NewHistoricData(cfg *HistoricDataConfig) (*HistoricData, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating historic data config: %w", err)
	}

	b, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %v", err)
	}

	candles, err := shared.ParseCandlesticks(b, cfg.Market, cfg.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks: %v", err)
	}

	// Candle dates must be strictly increasing and unique for a replay.
	for idx := 1; idx < len(candles); idx++ {
		if !candles[idx].Date.After(candles[idx-1].Date) {
			return nil, fmt.Errorf("candle dates must be strictly increasing, %s does not follow %s",
				candles[idx].Date.Format(shared.DateLayout), candles[idx-1].Date.Format(shared.DateLayout))
		}
	}

	historicData := &HistoricData{
		cfg:     cfg,
		candles: candles,
	}

	if len(candles) > 0 {
		first := candles[0].Date
		last := candles[len(candles)-1].Date
		cfg.Logger.Info().Msgf("loaded %d candles covering %.2f hours, from %s, to %s",
			len(candles), last.Sub(first).Hours(), first.Format(time.RFC1123), last.Format(time.RFC1123))
	}

	return historicData, nil
}

// FetchCandles fetches the candle sequence for the provided market and range.
func (h *HistoricData) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	if market != h.cfg.Market {
		return nil, fmt.Errorf("no historic data for market %s, have %s", market, h.cfg.Market)
	}
	if timeframe != h.cfg.Timeframe {
		return nil, fmt.Errorf("no historic data for timeframe %s, have %s",
			timeframe.String(), h.cfg.Timeframe.String())
	}

	candles := make([]shared.Candlestick, 0, len(h.candles))
	for idx := range h.candles {
		date := h.candles[idx].Date
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			break
		}
		candles = append(candles, h.candles[idx])
	}

	return candles, nil
}
