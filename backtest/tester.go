package backtest

import (
	"errors"
	"fmt"

	"github.com/dnldd/replay/shared"
	"github.com/rs/zerolog"
)

// TesterConfig represents the strategy tester configuration.
type TesterConfig struct {
	// InitialCapital is the starting capital for a run.
	InitialCapital float64
	// PositionSize is the fraction of capital committed per position.
	PositionSize float64
	// MaxPositions is the maximum number of simultaneously open positions.
	// The tester holds at most one open lot, so only a value of one is valid.
	MaxPositions int
	// Commission is the commission rate charged on the closing leg of a round trip.
	Commission float64
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *TesterConfig) Validate() error {
	var errs error

	if cfg.InitialCapital <= 0 {
		errs = errors.Join(errs, fmt.Errorf("initial capital must be positive, got %f", cfg.InitialCapital))
	}
	if cfg.PositionSize <= 0 || cfg.PositionSize > 1 {
		errs = errors.Join(errs, fmt.Errorf("position size fraction must be in (0, 1], got %f", cfg.PositionSize))
	}
	if cfg.MaxPositions != 1 {
		errs = errors.Join(errs, fmt.Errorf("max positions must be 1, got %d", cfg.MaxPositions))
	}
	if cfg.Commission < 0 {
		errs = errors.Join(errs, fmt.Errorf("commission rate cannot be negative, got %f", cfg.Commission))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Tester replays a directional signal sequence against a candle sequence,
// producing a deterministic list of closed trades. A tester owns its capital,
// position and trade state exclusively; concurrent runs need one tester each.
type Tester struct {
	cfg      *TesterConfig
	capital  float64
	position *position
	trades   []*Trade
}

// NewTester initializes a new strategy tester.
func NewTester(cfg *TesterConfig) (*Tester, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating tester config: %w", err)
	}

	tester := &Tester{cfg: cfg}
	tester.Reset()

	return tester, nil
}

// Reset reinitializes the tester to its configured starting state for a
// fresh, independent run.
func (t *Tester) Reset() {
	t.capital = t.cfg.InitialCapital
	t.position = nil
	t.trades = []*Trade{}
}

// Capital returns the tester's current capital.
func (t *Tester) Capital() float64 {
	return t.capital
}

// Trades returns the closed trades recorded by the tester.
func (t *Tester) Trades() []*Trade {
	return t.trades
}

// positionSize returns the quantity affordable at the provided price using
// the configured fraction of current capital.
func (t *Tester) positionSize(price float64) float64 {
	return (t.capital * t.cfg.PositionSize) / price
}

// closePosition closes the open position at the provided candle's close,
// deducting commission on the closing leg, and records the resulting trade.
func (t *Tester) closePosition(candle *shared.Candlestick, strategy string) *Trade {
	pos := t.position
	exitPrice := candle.Close

	var pnl float64
	switch pos.direction {
	case shared.Long:
		pnl = pos.size * (exitPrice - pos.entryPrice)
	case shared.Short:
		pnl = pos.size * (pos.entryPrice - exitPrice)
	}

	pnl -= pos.size * exitPrice * t.cfg.Commission
	pnlPercent := pnl / (pos.size * pos.entryPrice)

	t.capital += pnl

	trade := newTrade(pos, candle, strategy, pnl, pnlPercent)
	t.trades = append(t.trades, trade)
	t.position = nil

	t.cfg.Logger.Debug().Msgf("closed %s position for %s: entry %f, exit %f, pnl %f",
		trade.Direction.String(), trade.Market, trade.EntryPrice, trade.ExitPrice, trade.PNL)

	return trade
}

// executeTrade transitions the tester's position state toward the provided
// target direction at the given candle. An open position targeted by the
// opposite side or flat is closed first; a new position is then opened and
// sized from the post-close capital when the target is directional. The
// closed trade is returned when the transition closes a position.
func (t *Tester) executeTrade(candle *shared.Candlestick, target shared.Direction, strategy string) *Trade {
	current := shared.Flat
	if t.position != nil {
		current = t.position.direction
	}

	if target == current {
		return nil
	}

	var trade *Trade
	if current != shared.Flat {
		trade = t.closePosition(candle, strategy)
	}

	if target != shared.Flat {
		t.position = &position{
			entryTime:  candle.Date,
			entryPrice: candle.Close,
			direction:  target,
			size:       t.positionSize(candle.Close),
		}
	}

	return trade
}

// Run replays the provided signal sequence against the candle sequence and
// returns the resulting closed trades. The signal sequence must be
// index-aligned with the candles. The tester is reset before the replay so
// every run starts from the configured initial capital, and any position
// still open after the final candle is force closed at its close price so
// the terminal state is always flat.
func (t *Tester) Run(candles []shared.Candlestick, signals []shared.Signal, strategy string) ([]*Trade, error) {
	if len(candles) != len(signals) {
		return nil, fmt.Errorf("misaligned candle and signal sequences: %d candles, %d signals",
			len(candles), len(signals))
	}

	t.Reset()

	for idx := range candles {
		t.executeTrade(&candles[idx], signals[idx].Direction(), strategy)
	}

	if t.position != nil {
		t.executeTrade(&candles[len(candles)-1], shared.Flat, strategy)
	}

	return t.trades, nil
}

// RunSource generates signals from the provided source and replays them
// against the candle sequence.
func (t *Tester) RunSource(candles []shared.Candlestick, source shared.SignalSource) ([]*Trade, error) {
	signals, err := source.GenerateSignals(candles)
	if err != nil {
		return nil, fmt.Errorf("generating signals: %w", err)
	}

	return t.Run(candles, signals, source.Name())
}
