package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dnldd/replay/shared"
)

const (
	// rollingWindow is the lookback window for volume and volatility baselines.
	rollingWindow = 24
	// slopeLookback is the lookback used for the trend slope.
	slopeLookback = 12
	// minSlope is the minimum trend slope magnitude considered strong.
	minSlope = 0.001
)

// MovingAverageConfig represents the moving average crossover strategy
// configuration.
type MovingAverageConfig struct {
	// FastPeriod is the fast ema period.
	FastPeriod int
	// SlowPeriod is the slow ema period.
	SlowPeriod int
	// UseTrendFilter toggles the ema 200 trend filter.
	UseTrendFilter bool
	// MinVolumePercentile is the minimum volume ratio percentile for a valid signal.
	MinVolumePercentile float64
	// MinATRPercentile is the minimum volatility ratio percentile for a valid signal.
	MinATRPercentile float64
}

// Validate asserts the config sane inputs.
func (cfg *MovingAverageConfig) Validate() error {
	var errs error

	if cfg.FastPeriod <= 0 {
		errs = errors.Join(errs, fmt.Errorf("fast period must be positive, got %d", cfg.FastPeriod))
	}
	if cfg.SlowPeriod <= cfg.FastPeriod {
		errs = errors.Join(errs, fmt.Errorf("slow period must exceed the fast period, got %d and %d",
			cfg.SlowPeriod, cfg.FastPeriod))
	}

	return errs
}

// MovingAverage represents a moving average crossover signal source with
// trend, volume and volatility filters.
type MovingAverage struct {
	cfg *MovingAverageConfig
}

// Ensure the moving average strategy implements the SignalSource interface.
var _ shared.SignalSource = (*MovingAverage)(nil)

// NewMovingAverage initializes a new moving average crossover strategy.
func NewMovingAverage(cfg *MovingAverageConfig) (*MovingAverage, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating moving average config: %w", err)
	}

	return &MovingAverage{cfg: cfg}, nil
}

// Name returns the label identifying the signal source.
func (m *MovingAverage) Name() string {
	return fmt.Sprintf("ma_%d_%d", m.cfg.FastPeriod, m.cfg.SlowPeriod)
}

// RequiredIndicators returns the named indicator fields the strategy expects
// resolved on each candle.
func (m *MovingAverage) RequiredIndicators() []string {
	indicators := []string{
		fmt.Sprintf("ema_%d", m.cfg.FastPeriod),
		fmt.Sprintf("ema_%d", m.cfg.SlowPeriod),
		"atr",
		"volume",
	}
	if m.cfg.UseTrendFilter {
		indicators = append(indicators, "ema_200")
	}

	return indicators
}

// rollingMean returns the rolling mean of the provided values, replicating
// the first complete window's mean across the warmup prefix.
func rollingMean(values []float64, window int) []float64 {
	if window > len(values) {
		window = len(values)
	}

	means := make([]float64, len(values))
	var sum float64
	for idx := 0; idx < window; idx++ {
		sum += values[idx]
	}

	first := sum / float64(window)
	for idx := 0; idx < window && idx < len(values); idx++ {
		means[idx] = first
	}

	for idx := window; idx < len(values); idx++ {
		sum += values[idx] - values[idx-window]
		means[idx] = sum / float64(window)
	}

	return means
}

// percentile returns the q-th percentile of the provided values using linear
// interpolation.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := q / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	return sorted[lower] + (rank-float64(lower))*(sorted[upper]-sorted[lower])
}

// GenerateSignals maps the provided candle sequence to an aligned signal
// sequence. A long pulse is emitted when the fast ema crosses above the slow
// ema, a short pulse on the opposite cross, both gated by volume, volatility
// and optional trend filters.
func (m *MovingAverage) GenerateSignals(candles []shared.Candlestick) ([]shared.Signal, error) {
	signals := make([]shared.Signal, len(candles))
	if len(candles) == 0 {
		return signals, nil
	}

	fastName := fmt.Sprintf("ema_%d", m.cfg.FastPeriod)
	slowName := fmt.Sprintf("ema_%d", m.cfg.SlowPeriod)

	fast := make([]float64, len(candles))
	slow := make([]float64, len(candles))
	atr := make([]float64, len(candles))
	volume := make([]float64, len(candles))
	trend := make([]float64, len(candles))

	for idx := range candles {
		var err error
		fast[idx], err = candles[idx].Indicator(fastName)
		if err != nil {
			return nil, err
		}
		slow[idx], err = candles[idx].Indicator(slowName)
		if err != nil {
			return nil, err
		}
		atr[idx], err = candles[idx].Indicator("atr")
		if err != nil {
			return nil, err
		}
		volume[idx] = candles[idx].Volume

		if m.cfg.UseTrendFilter {
			trend[idx], err = candles[idx].Indicator("ema_200")
			if err != nil {
				return nil, err
			}
		}
	}

	// Volume and volatility ratios relative to their rolling baselines.
	volMeans := rollingMean(volume, rollingWindow)
	atrMeans := rollingMean(atr, rollingWindow)

	volRatio := make([]float64, len(candles))
	atrRatio := make([]float64, len(candles))
	for idx := range candles {
		if volMeans[idx] != 0 {
			volRatio[idx] = volume[idx] / volMeans[idx]
		}
		if atrMeans[idx] != 0 {
			atrRatio[idx] = atr[idx] / atrMeans[idx]
		}
	}

	minVolRatio := percentile(volRatio, m.cfg.MinVolumePercentile)
	minATRRatio := percentile(atrRatio, m.cfg.MinATRPercentile)

	for idx := 1; idx < len(candles); idx++ {
		crossedUp := fast[idx-1] <= slow[idx-1] && fast[idx] > slow[idx]
		crossedDown := fast[idx-1] > slow[idx-1] && fast[idx] <= slow[idx]
		if !crossedUp && !crossedDown {
			continue
		}

		if volRatio[idx] <= minVolRatio || atrRatio[idx] <= minATRRatio {
			continue
		}

		long := crossedUp
		short := crossedDown

		if m.cfg.UseTrendFilter {
			if idx < slopeLookback {
				continue
			}

			priceAboveTrend := candles[idx].Close > trend[idx]
			slope := (trend[idx] - trend[idx-slopeLookback]) / (trend[idx] + 1e-8)

			// Crosses are faded relative to the prevailing trend: longs only
			// against a strong downtrend below it, shorts only against a
			// strong uptrend above it.
			long = long && !priceAboveTrend && slope < -minSlope
			short = short && priceAboveTrend && slope > minSlope
		}

		switch {
		case long:
			signals[idx] = shared.SignalLong
		case short:
			signals[idx] = shared.SignalShort
		}
	}

	return signals, nil
}
