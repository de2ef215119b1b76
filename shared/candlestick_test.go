package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

func TestFetchSentiment(t *testing.T) {
	tests := []struct {
		name   string
		candle Candlestick
		want   Sentiment
	}{
		{
			name: "neutral candle",
			candle: Candlestick{
				Open:  5,
				Close: 5,
				High:  9,
				Low:   1,
			},
			want: Neutral,
		},
		{
			name: "bullish candle",
			candle: Candlestick{
				Open:  5,
				Close: 15,
				High:  20,
				Low:   1,
			},
			want: Bullish,
		},
		{
			name: "bearish candle",
			candle: Candlestick{
				Open:  15,
				Close: 5,
				High:  20,
				Low:   1,
			},
			want: Bearish,
		},
	}

	for _, test := range tests {
		sentiment := test.candle.FetchSentiment()
		if sentiment != test.want {
			t.Errorf("%s: expected %s sentiment, got %s",
				test.name, test.want.String(), sentiment.String())
		}
	}
}

func TestIndicator(t *testing.T) {
	candle := Candlestick{
		Open:  5,
		Close: 6,
		High:  7,
		Low:   4,
		Date:  time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC),
	}

	// Ensure fetching an unresolved indicator errors.
	_, err := candle.Indicator("ema_12")
	assert.Error(t, err)

	// Ensure a set indicator can be fetched.
	candle.SetIndicator("ema_12", 5.5)
	value, err := candle.Indicator("ema_12")
	assert.Nil(t, err)
	assert.Equal(t, 5.5, value)
}

func TestParseCandlesticks(t *testing.T) {
	data := `[
		{"date":"2024-01-02 09:30:00","open":100,"high":101,"low":99,"close":100.5,"volume":1200,"ema_12":100.2},
		{"date":"2024-01-02 09:35:00","open":100.5,"high":102,"low":100,"close":101.5,"volume":1500,"ema_12":100.6}
	]`

	results := gjson.Parse(data).Array()
	candles, err := ParseCandlesticks(results, "^GSPC", FiveMinute)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(candles))
	assert.Equal(t, float64(100), candles[0].Open)
	assert.Equal(t, 101.5, candles[1].Close)
	assert.Equal(t, "^GSPC", candles[0].Market)
	assert.Equal(t, FiveMinute, candles[0].Timeframe)

	// Ensure extra numeric fields are resolved as indicators.
	ema, err := candles[1].Indicator("ema_12")
	assert.Nil(t, err)
	assert.Equal(t, 100.6, ema)

	// Ensure malformed dates error.
	malformed := gjson.Parse(`[{"date":"01/02/2024","open":1}]`).Array()
	_, err = ParseCandlesticks(malformed, "^GSPC", FiveMinute)
	assert.Error(t, err)
}
