package shared

import (
	"fmt"
)

const (
	// DateLayout is the format layout for parsing candle dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneMinute Timeframe = iota
	FiveMinute
	OneHour
	OneDay
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case OneHour:
		return "1H"
	case OneDay:
		return "1D"
	default:
		return "unknown"
	}
}

// ParseTimeframe parses a timeframe from the provided string.
func ParseTimeframe(timeframe string) (Timeframe, error) {
	switch timeframe {
	case "1m":
		return OneMinute, nil
	case "5m":
		return FiveMinute, nil
	case "1H", "1h":
		return OneHour, nil
	case "1D", "1d":
		return OneDay, nil
	default:
		return 0, fmt.Errorf("unknown timeframe: %s", timeframe)
	}
}
