package backtest

import (
	"time"

	"github.com/dnldd/replay/shared"
	"github.com/google/uuid"
)

// Trade represents a completed round trip created when a position closes.
// Trades are immutable once recorded.
type Trade struct {
	ID         string
	Market     string
	Strategy   string
	Direction  shared.Direction
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	PNL        float64
	PNLPercent float64
}

// position represents the single open lot held during a replay. Its entry
// details and size are fixed at creation and do not change while open.
type position struct {
	entryTime  time.Time
	entryPrice float64
	direction  shared.Direction
	size       float64
}

// newTrade creates the trade record for the provided closed position.
func newTrade(pos *position, candle *shared.Candlestick, strategy string, pnl float64, pnlPercent float64) *Trade {
	return &Trade{
		ID:         uuid.New().String(),
		Market:     candle.Market,
		Strategy:   strategy,
		Direction:  pos.direction,
		Size:       pos.size,
		EntryPrice: pos.entryPrice,
		ExitPrice:  candle.Close,
		EntryTime:  pos.entryTime,
		ExitTime:   candle.Date,
		PNL:        pnl,
		PNLPercent: pnlPercent,
	}
}
