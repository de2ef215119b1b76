package indicator

import (
	"fmt"
	"math"

	"github.com/dnldd/replay/shared"
)

const (
	// DefaultATRPeriod is the standard average true range period.
	DefaultATRPeriod = 14
)

// ATRGenerator represents the Average True Range indicator, updated
// cumulatively bar by bar using wilder smoothing.
type ATRGenerator struct {
	period    int
	count     int
	sum       float64
	current   float64
	prevClose float64
}

// NewATRGenerator initializes an ATR indicator with the provided period.
func NewATRGenerator(period int) (*ATRGenerator, error) {
	if period <= 0 {
		return nil, fmt.Errorf("atr period must be positive, got %d", period)
	}

	return &ATRGenerator{period: period}, nil
}

// Name returns the indicator field name resolved by the generator.
func (a *ATRGenerator) Name() string {
	return "atr"
}

// trueRange returns the true range of the provided candle relative to the
// previous close.
func (a *ATRGenerator) trueRange(candle *shared.Candlestick) float64 {
	if a.count == 0 {
		return candle.High - candle.Low
	}

	return math.Max(candle.High-candle.Low,
		math.Max(math.Abs(candle.High-a.prevClose), math.Abs(candle.Low-a.prevClose)))
}

// Update advances the ATR with the provided candle and returns the current
// value. The range is seeded with a simple mean until a full period of true
// ranges has been observed.
func (a *ATRGenerator) Update(candle *shared.Candlestick) float64 {
	tr := a.trueRange(candle)
	a.count++
	a.prevClose = candle.Close

	if a.count <= a.period {
		a.sum += tr
		a.current = a.sum / float64(a.count)
		return a.current
	}

	a.current = (a.current*float64(a.period-1) + tr) / float64(a.period)

	return a.current
}

// Reset resets the generator for a fresh series.
func (a *ATRGenerator) Reset() {
	a.count = 0
	a.sum = 0
	a.current = 0
	a.prevClose = 0
}
