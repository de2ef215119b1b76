package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dnldd/replay/analytics"
	"github.com/dnldd/replay/backtest"
	"github.com/dnldd/replay/database"
	"github.com/dnldd/replay/indicator"
	"github.com/dnldd/replay/report"
	"github.com/dnldd/replay/shared"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// BacktestConfig represents the configuration struct for the backtest service.
type BacktestConfig struct {
	// Market represents the market being backtested.
	Market string
	// Timeframe represents the candle timeframe being replayed.
	Timeframe shared.Timeframe
	// Start is the inclusive start of the replayed range.
	Start time.Time
	// End is the inclusive end of the replayed range.
	End time.Time
	// Source supplies the candles to replay.
	Source shared.CandleSource
	// Strategy generates the signals driving the replay.
	Strategy shared.SignalSource
	// InitialCapital is the starting capital for the run.
	InitialCapital float64
	// PositionSize is the fraction of capital committed per position.
	PositionSize float64
	// Commission is the commission rate applied on position close.
	Commission float64
	// RiskFreeRate is the annual risk free rate for risk-adjusted metrics.
	RiskFreeRate float64
	// Store persists run results, optional.
	Store database.RunStorer
	// Output receives the rendered run report.
	Output io.Writer
	// RerunInterval schedules periodic re-runs when set.
	RerunInterval time.Duration
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *BacktestConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("market cannot be an empty string"))
	}
	if cfg.Source == nil {
		errs = errors.Join(errs, fmt.Errorf("candle source cannot be nil"))
	}
	if cfg.Strategy == nil {
		errs = errors.Join(errs, fmt.Errorf("strategy cannot be nil"))
	}
	if !cfg.End.After(cfg.Start) {
		errs = errors.Join(errs, fmt.Errorf("end of replayed range must be after its start"))
	}
	if cfg.Output == nil {
		errs = errors.Join(errs, fmt.Errorf("report output cannot be nil"))
	}
	if cfg.RerunInterval < 0 {
		errs = errors.Join(errs, fmt.Errorf("rerun interval cannot be negative"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Backtest represents a signal replay service.
type Backtest struct {
	cfg      *BacktestConfig
	tester   *backtest.Tester
	analyzer *analytics.Analyzer
	console  *report.Console
	logger   *zerolog.Logger
	wg       sync.WaitGroup
}

// NewBacktest initializes a new backtest service.
func NewBacktest(cfg *BacktestConfig) (*Backtest, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "backtest").Logger()

	testerLogger := logger.With().Str("component", "tester").Logger()
	tester, err := backtest.NewTester(&backtest.TesterConfig{
		InitialCapital: cfg.InitialCapital,
		PositionSize:   cfg.PositionSize,
		MaxPositions:   1,
		Commission:     cfg.Commission,
		Logger:         &testerLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tester: %v", err)
	}

	analyzer, err := analytics.NewAnalyzer(&analytics.AnalyzerConfig{
		InitialCapital: cfg.InitialCapital,
		RiskFreeRate:   cfg.RiskFreeRate,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analyzer: %v", err)
	}

	service := &Backtest{
		cfg:      cfg,
		tester:   tester,
		analyzer: analyzer,
		console:  report.NewConsole(cfg.Output),
		logger:   &logger,
	}

	return service, nil
}

// runOnce replays the configured range once and reports the results.
func (b *Backtest) runOnce(ctx context.Context) error {
	candles, err := b.cfg.Source.FetchCandles(ctx, b.cfg.Market, b.cfg.Timeframe, b.cfg.Start, b.cfg.End)
	if err != nil {
		return fmt.Errorf("fetching candles: %v", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s in the replayed range", b.cfg.Market)
	}

	err = indicator.Enrich(candles, b.cfg.Strategy.RequiredIndicators())
	if err != nil {
		return fmt.Errorf("enriching candles: %v", err)
	}

	trades, err := b.tester.RunSource(candles, b.cfg.Strategy)
	if err != nil {
		return fmt.Errorf("replaying candles: %v", err)
	}

	curve, metrics := b.analyzer.Analyze(trades)

	b.console.PrintMetrics(b.cfg.Strategy.Name(), metrics)
	b.console.PrintTrades(analytics.GenerateTradeBreakdown(trades))

	if b.cfg.Store != nil {
		runID := uuid.New().String()

		err = b.cfg.Store.PersistTrades(ctx, runID, trades)
		if err != nil {
			return fmt.Errorf("persisting trades: %v", err)
		}

		err = b.cfg.Store.PersistMetrics(ctx, runID, metrics)
		if err != nil {
			return fmt.Errorf("persisting metrics: %v", err)
		}

		b.logger.Info().Msgf("persisted run %s: %d trades over %d equity points",
			runID, len(trades), len(curve))
	}

	return nil
}

// Run handles the lifecycle processes of the backtest service.
func (b *Backtest) Run(ctx context.Context) {
	if b.cfg.RerunInterval == 0 {
		err := b.runOnce(ctx)
		if err != nil {
			b.logger.Error().Err(err).Msg("backtest run failed")
		}

		b.logger.Info().Msgf("backtest for %s done", b.cfg.Market)
		b.cfg.Cancel()
		return
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		b.logger.Error().Err(err).Msg("creating job scheduler")
		b.cfg.Cancel()
		return
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(b.cfg.RerunInterval),
		gocron.NewTask(func() {
			err := b.runOnce(ctx)
			if err != nil {
				b.logger.Error().Err(err).Msg("scheduled backtest run failed")
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		b.logger.Error().Err(err).Msg("scheduling backtest job")
		b.cfg.Cancel()
		return
	}

	scheduler.Start()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		<-ctx.Done()
		err := scheduler.Shutdown()
		if err != nil {
			b.logger.Error().Err(err).Msg("shutting down job scheduler")
		}
	}()

	b.wg.Wait()
}
