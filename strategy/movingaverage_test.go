package strategy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnldd/replay/shared"
	"github.com/peterldowns/testy/assert"
)

// testCandles creates a candle sequence with synthetic fast/slow ema fields.
// The fast ema starts below the slow ema, crosses above it at crossUp and
// back below at crossDown.
func testCandles(n, crossUp, crossDown int) []shared.Candlestick {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

	candles := make([]shared.Candlestick, n)
	for idx := range candles {
		candles[idx] = shared.Candlestick{
			Open:      10,
			High:      11,
			Low:       9,
			Close:     10,
			Volume:    float64(100 + idx*10),
			Date:      start.Add(time.Duration(idx) * time.Minute * 5),
			Market:    "^GSPC",
			Timeframe: shared.FiveMinute,
		}

		fast := 9.0
		if idx >= crossUp && idx < crossDown {
			fast = 11.0
		}
		candles[idx].SetIndicator("ema_12", fast)
		candles[idx].SetIndicator("ema_26", 10)
		candles[idx].SetIndicator("atr", 1+float64(idx)*0.1)
	}

	return candles
}

func TestMovingAverageConfigValidate(t *testing.T) {
	_, err := NewMovingAverage(&MovingAverageConfig{FastPeriod: 0, SlowPeriod: 26})
	assert.Error(t, err)

	_, err = NewMovingAverage(&MovingAverageConfig{FastPeriod: 26, SlowPeriod: 12})
	assert.Error(t, err)

	ma, err := NewMovingAverage(&MovingAverageConfig{FastPeriod: 12, SlowPeriod: 26})
	assert.Nil(t, err)
	assert.Equal(t, "ma_12_26", ma.Name())
}

func TestRequiredIndicators(t *testing.T) {
	ma, err := NewMovingAverage(&MovingAverageConfig{FastPeriod: 12, SlowPeriod: 26})
	assert.Nil(t, err)
	assert.Equal(t, []string{"ema_12", "ema_26", "atr", "volume"}, ma.RequiredIndicators())

	ma, err = NewMovingAverage(&MovingAverageConfig{FastPeriod: 12, SlowPeriod: 26, UseTrendFilter: true})
	assert.Nil(t, err)
	assert.Equal(t, []string{"ema_12", "ema_26", "atr", "volume", "ema_200"}, ma.RequiredIndicators())
}

func TestGenerateSignals(t *testing.T) {
	ma, err := NewMovingAverage(&MovingAverageConfig{FastPeriod: 12, SlowPeriod: 26})
	assert.Nil(t, err)

	candles := testCandles(30, 20, 25)
	signals, err := ma.GenerateSignals(candles)
	assert.Nil(t, err)
	assert.Equal(t, len(candles), len(signals))

	// A long pulse on the upward cross, a short pulse on the downward cross,
	// flat everywhere else.
	for idx := range signals {
		want := shared.SignalFlat
		switch idx {
		case 20:
			want = shared.SignalLong
		case 25:
			want = shared.SignalShort
		}
		if signals[idx] != want {
			t.Errorf("signal at %d: expected %s, got %s",
				idx, want.String(), signals[idx].String())
		}
	}
}

func TestGenerateSignalsTrendFilter(t *testing.T) {
	ma, err := NewMovingAverage(&MovingAverageConfig{
		FastPeriod:     12,
		SlowPeriod:     26,
		UseTrendFilter: true,
	})
	assert.Nil(t, err)

	// A flat ema 200 has no strong trend slope, so every cross is suppressed.
	candles := testCandles(30, 20, 25)
	for idx := range candles {
		candles[idx].SetIndicator("ema_200", 10)
	}

	signals, err := ma.GenerateSignals(candles)
	assert.Nil(t, err)
	for idx := range signals {
		if signals[idx] != shared.SignalFlat {
			t.Fatalf("expected flat signal at %d, got %s", idx, signals[idx].String())
		}
	}
}

func TestGenerateSignalsMissingIndicator(t *testing.T) {
	ma, err := NewMovingAverage(&MovingAverageConfig{FastPeriod: 12, SlowPeriod: 26})
	assert.Nil(t, err)

	candles := testCandles(10, 5, 8)
	for idx := range candles {
		delete(candles[idx].Indicators, "atr")
	}

	_, err = ma.GenerateSignals(candles)
	assert.Error(t, err)
}

func TestGenerateSignalsEmptySequence(t *testing.T) {
	ma, err := NewMovingAverage(&MovingAverageConfig{FastPeriod: 12, SlowPeriod: 26})
	assert.Nil(t, err)

	signals, err := ma.GenerateSignals(nil)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(signals))
}

func TestLoadParams(t *testing.T) {
	data := `strategy:
  fast_period: 8
  slow_period: 20
  use_trend_filter: true
  min_volume_percentile: 30
  min_atr_percentile: 25
`
	path := filepath.Join(t.TempDir(), "params.yaml")
	err := os.WriteFile(path, []byte(data), 0o644)
	assert.Nil(t, err)

	params, err := LoadParams(path)
	assert.Nil(t, err)
	assert.Equal(t, 8, params.FastPeriod)
	assert.Equal(t, 20, params.SlowPeriod)
	assert.Equal(t, true, params.UseTrendFilter)
	assert.Equal(t, float64(30), params.MinVolumePercentile)

	ma, err := NewMovingAverageFromParams(params)
	assert.Nil(t, err)
	assert.Equal(t, "ma_8_20", ma.Name())

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
