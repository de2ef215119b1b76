package indicator

import (
	"fmt"
)

// EMAGenerator represents the Exponential Moving Average indicator for a
// single period, updated cumulatively bar by bar.
type EMAGenerator struct {
	period  int
	count   int
	sum     float64
	current float64
}

// NewEMAGenerator initializes an EMA indicator with the provided period.
func NewEMAGenerator(period int) (*EMAGenerator, error) {
	if period <= 0 {
		return nil, fmt.Errorf("ema period must be positive, got %d", period)
	}

	return &EMAGenerator{period: period}, nil
}

// Name returns the indicator field name resolved by the generator.
func (e *EMAGenerator) Name() string {
	return fmt.Sprintf("ema_%d", e.period)
}

// Update advances the EMA with the provided close and returns the current
// value. The average is seeded with a simple mean until a full period of
// values has been observed.
func (e *EMAGenerator) Update(close float64) float64 {
	e.count++

	if e.count <= e.period {
		e.sum += close
		e.current = e.sum / float64(e.count)
		return e.current
	}

	multiplier := 2 / float64(e.period+1)
	e.current = (close-e.current)*multiplier + e.current

	return e.current
}

// Reset resets the generator for a fresh series.
func (e *EMAGenerator) Reset() {
	e.count = 0
	e.sum = 0
	e.current = 0
}
