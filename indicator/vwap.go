package indicator

import (
	"github.com/dnldd/replay/shared"
)

// VWAPGenerator represents the Volume Weighted Average Price indicator,
// accumulated cumulatively over the replayed session.
type VWAPGenerator struct {
	typicalPriceVolume float64
	volume             float64
	current            float64
}

// NewVWAPGenerator initializes a VWAP indicator.
func NewVWAPGenerator() *VWAPGenerator {
	return &VWAPGenerator{}
}

// Name returns the indicator field name resolved by the generator.
func (v *VWAPGenerator) Name() string {
	return "vwap"
}

// Update advances the VWAP with the provided candle and returns the current
// value. Zero-volume candles leave the average unchanged.
func (v *VWAPGenerator) Update(candle *shared.Candlestick) float64 {
	typicalPrice := (candle.High + candle.Low + candle.Close) / 3
	v.typicalPriceVolume += typicalPrice * candle.Volume
	v.volume += candle.Volume

	if v.volume == 0 {
		return v.current
	}

	v.current = v.typicalPriceVolume / v.volume

	return v.current
}

// Reset resets the generator for a fresh series.
func (v *VWAPGenerator) Reset() {
	v.typicalPriceVolume = 0
	v.volume = 0
	v.current = 0
}
