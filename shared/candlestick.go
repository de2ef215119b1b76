package shared

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata and derived fields.
	Market     string
	Timeframe  Timeframe
	Indicators map[string]float64
}

// Indicator returns the named indicator value resolved for the candlestick.
func (c *Candlestick) Indicator(name string) (float64, error) {
	value, ok := c.Indicators[name]
	if !ok {
		return 0, fmt.Errorf("no indicator %q resolved for candle at %s",
			name, c.Date.Format(DateLayout))
	}

	return value, nil
}

// SetIndicator sets the named indicator value on the candlestick.
func (c *Candlestick) SetIndicator(name string, value float64) {
	if c.Indicators == nil {
		c.Indicators = make(map[string]float64)
	}

	c.Indicators[name] = value
}

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// String stringifies the provided sentiment.
func (s Sentiment) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}

// ParseCandlesticks parses candlesticks from the provided json data. The candles
// are expected in ascending date order, each candle carrying at minimum open,
// low, high, close, volume and date fields. Any extra numeric fields are
// resolved as named indicator values.
func ParseCandlesticks(data []gjson.Result, market string, timeframe Timeframe) ([]Candlestick, error) {
	candles := make([]Candlestick, len(data))

	for idx := range data {
		var candle Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()

		candle.Market = market
		candle.Timeframe = timeframe

		dt, err := time.Parse(DateLayout, data[idx].Get("date").String())
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick date: %w", err)
		}
		candle.Date = dt

		data[idx].ForEach(func(key, value gjson.Result) bool {
			switch key.String() {
			case "open", "low", "high", "close", "volume", "date":
				// do nothing.
			default:
				if value.Type == gjson.Number {
					candle.SetIndicator(key.String(), value.Float())
				}
			}
			return true
		})

		candles[idx] = candle
	}

	return candles, nil
}
