package indicator

import (
	"fmt"

	"github.com/dnldd/replay/shared"
)

// Enrich resolves the named indicator fields required by a signal source on
// the provided candle sequence. Supported names are ema_<period>, atr and vwap.
// Candles are mutated in place.
func Enrich(candles []shared.Candlestick, names []string) error {
	for _, name := range names {
		switch {
		case name == "atr":
			atr, err := NewATRGenerator(DefaultATRPeriod)
			if err != nil {
				return err
			}
			for idx := range candles {
				candles[idx].SetIndicator(atr.Name(), atr.Update(&candles[idx]))
			}

		case len(name) > 4 && name[:4] == "ema_":
			var period int
			_, err := fmt.Sscanf(name, "ema_%d", &period)
			if err != nil {
				return fmt.Errorf("parsing ema period from %q: %v", name, err)
			}

			ema, err := NewEMAGenerator(period)
			if err != nil {
				return err
			}
			for idx := range candles {
				candles[idx].SetIndicator(ema.Name(), ema.Update(candles[idx].Close))
			}

		case name == "vwap":
			vwap := NewVWAPGenerator()
			for idx := range candles {
				candles[idx].SetIndicator(vwap.Name(), vwap.Update(&candles[idx]))
			}

		case name == "volume":
			// Volume is already a native candle field.

		default:
			return fmt.Errorf("unsupported indicator: %s", name)
		}
	}

	return nil
}
