package indicator

import (
	"math"
	"testing"

	"github.com/dnldd/replay/shared"
	"github.com/peterldowns/testy/assert"
)

func TestEMAGenerator(t *testing.T) {
	_, err := NewEMAGenerator(0)
	assert.Error(t, err)

	ema, err := NewEMAGenerator(3)
	assert.Nil(t, err)
	assert.Equal(t, "ema_3", ema.Name())

	// Seeded with a simple mean until a full period is observed.
	assert.Equal(t, float64(10), ema.Update(10))
	assert.Equal(t, float64(11), ema.Update(12))
	assert.Equal(t, float64(12), ema.Update(14))

	// Afterwards the recursive average applies: (16-12)*0.5 + 12 = 14.
	assert.Equal(t, float64(14), ema.Update(16))

	ema.Reset()
	assert.Equal(t, float64(20), ema.Update(20))
}

func TestATRGenerator(t *testing.T) {
	_, err := NewATRGenerator(-1)
	assert.Error(t, err)

	atr, err := NewATRGenerator(2)
	assert.Nil(t, err)

	first := shared.Candlestick{High: 12, Low: 8, Close: 10}
	second := shared.Candlestick{High: 14, Low: 11, Close: 13}
	third := shared.Candlestick{High: 13, Low: 9, Close: 10}

	// First true range has no prior close: high - low = 4.
	assert.Equal(t, float64(4), atr.Update(&first))

	// Second true range: max(3, |14-10|, |11-10|) = 4, seeded mean = 4.
	assert.Equal(t, float64(4), atr.Update(&second))

	// Third true range: max(4, |13-13|, |9-13|) = 4, wilder: (4*1+4)/2 = 4.
	assert.Equal(t, float64(4), atr.Update(&third))
}

func TestEnrich(t *testing.T) {
	candles := []shared.Candlestick{
		{Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Open: 11, High: 13, Low: 10, Close: 12, Volume: 120},
		{Open: 12, High: 14, Low: 11, Close: 13, Volume: 140},
	}

	err := Enrich(candles, []string{"ema_2", "atr", "volume"})
	assert.Nil(t, err)

	for idx := range candles {
		ema, err := candles[idx].Indicator("ema_2")
		assert.Nil(t, err)
		if math.IsNaN(ema) {
			t.Fatalf("ema at %d is NaN", idx)
		}

		_, err = candles[idx].Indicator("atr")
		assert.Nil(t, err)
	}

	// Ensure unsupported indicator names error.
	err = Enrich(candles, []string{"macd"})
	assert.Error(t, err)
}
