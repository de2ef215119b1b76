package shared

import (
	"context"
	"time"
)

// CandleSource defines the requirements for supplying an ordered candle
// sequence for a market.
type CandleSource interface {
	// FetchCandles fetches the candle sequence for the provided market and range.
	FetchCandles(ctx context.Context, market string, timeframe Timeframe, start time.Time, end time.Time) ([]Candlestick, error)
}

// SignalSource defines the requirements for generating directional signals
// from a candle sequence. Implementations must return a signal sequence
// index-aligned with the provided candles.
type SignalSource interface {
	// Name returns the label identifying the signal source.
	Name() string
	// RequiredIndicators returns the named indicator fields the source expects
	// resolved on each candle.
	RequiredIndicators() []string
	// GenerateSignals maps the provided candle sequence to an aligned signal sequence.
	GenerateSignals(candles []Candlestick) ([]Signal, error)
}
