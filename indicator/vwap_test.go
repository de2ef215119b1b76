package indicator

import (
	"testing"

	"github.com/dnldd/replay/shared"
	"github.com/peterldowns/testy/assert"
)

func TestVWAPGenerator(t *testing.T) {
	vwap := NewVWAPGenerator()
	assert.Equal(t, "vwap", vwap.Name())

	first := shared.Candlestick{High: 12, Low: 8, Close: 10, Volume: 100}
	second := shared.Candlestick{High: 16, Low: 12, Close: 14, Volume: 300}

	// Typical price (12+8+10)/3 = 10 with all the volume so far.
	assert.Equal(t, float64(10), vwap.Update(&first))

	// Typical price 14: (10*100 + 14*300) / 400 = 13.
	assert.Equal(t, float64(13), vwap.Update(&second))

	// Zero-volume candles leave the average unchanged.
	empty := shared.Candlestick{High: 20, Low: 18, Close: 19, Volume: 0}
	assert.Equal(t, float64(13), vwap.Update(&empty))

	vwap.Reset()
	assert.Equal(t, float64(10), vwap.Update(&first))
}

func TestEnrichVWAP(t *testing.T) {
	candles := []shared.Candlestick{
		{High: 12, Low: 8, Close: 10, Volume: 100},
		{High: 16, Low: 12, Close: 14, Volume: 300},
	}

	err := Enrich(candles, []string{"vwap"})
	assert.Nil(t, err)

	value, err := candles[1].Indicator("vwap")
	assert.Nil(t, err)
	assert.Equal(t, float64(13), value)
}
