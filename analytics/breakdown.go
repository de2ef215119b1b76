package analytics

import (
	"time"

	"github.com/dnldd/replay/backtest"
)

// TradeBreakdown represents a read-only reporting projection of a single
// closed trade. It is not consumed by any metric calculation.
type TradeBreakdown struct {
	EntryTime  time.Time
	ExitTime   time.Time
	Duration   time.Duration
	Direction  string
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	PNL        float64
	PNLPercent float64
	Strategy   string
}

// GenerateTradeBreakdown projects the provided trades into per-trade
// breakdown rows for reporting.
func GenerateTradeBreakdown(trades []*backtest.Trade) []TradeBreakdown {
	breakdown := make([]TradeBreakdown, len(trades))

	for idx := range trades {
		trade := trades[idx]
		breakdown[idx] = TradeBreakdown{
			EntryTime:  trade.EntryTime,
			ExitTime:   trade.ExitTime,
			Duration:   trade.ExitTime.Sub(trade.EntryTime),
			Direction:  trade.Direction.String(),
			EntryPrice: trade.EntryPrice,
			ExitPrice:  trade.ExitPrice,
			Size:       trade.Size,
			PNL:        trade.PNL,
			PNLPercent: trade.PNLPercent,
			Strategy:   trade.Strategy,
		}
	}

	return breakdown
}
