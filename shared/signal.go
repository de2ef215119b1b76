package shared

// Direction represents the side of a market position.
type Direction int

const (
	Flat Direction = iota
	Long
	Short
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	case Flat:
		return "flat"
	default:
		return "unknown"
	}
}

// Signal represents a per-candle directional signal.
type Signal int

const (
	SignalShort Signal = -1
	SignalFlat  Signal = 0
	SignalLong  Signal = 1
)

// Direction returns the position side targeted by the signal. Any positive
// signal targets a long, any negative a short.
func (s Signal) Direction() Direction {
	switch {
	case s > 0:
		return Long
	case s < 0:
		return Short
	default:
		return Flat
	}
}

// String stringifies the provided signal.
func (s Signal) String() string {
	return s.Direction().String()
}
