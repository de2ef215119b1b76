package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dnldd/replay/database"
	"github.com/dnldd/replay/fetch"
	"github.com/dnldd/replay/service"
	"github.com/dnldd/replay/shared"
	"github.com/dnldd/replay/strategy"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

// newCandleSource creates the candle source selected by the config.
func newCandleSource(ctx context.Context, cfg *Config, timeframe shared.Timeframe, logger *zerolog.Logger) (shared.CandleSource, error) {
	switch cfg.Source {
	case "file":
		sourceLogger := logger.With().Str("component", "historicdata").Logger()
		return fetch.NewHistoricData(&fetch.HistoricDataConfig{
			Market:    cfg.Market,
			Timeframe: timeframe,
			FilePath:  cfg.DataFilepath,
			Logger:    &sourceLogger,
		})
	case "warehouse":
		sourceLogger := logger.With().Str("component", "warehouse").Logger()
		return fetch.NewWarehouse(ctx, &fetch.WarehouseConfig{
			Addr:     cfg.WarehouseAddr,
			Database: cfg.WarehouseDatabase,
			Table:    cfg.WarehouseTable,
			User:     cfg.WarehouseUser,
			Pass:     cfg.WarehousePass,
			Logger:   &sourceLogger,
		})
	default:
		sourceLogger := logger.With().Str("component", "exchange").Logger()
		return fetch.NewExchangeClient(&fetch.ExchangeConfig{
			BaseURL: fetch.BaseURL,
			Logger:  &sourceLogger,
		})
	}
}

func main() {
	cfg := Config{
		Timeframe:      "1H",
		Source:         "file",
		InitialCapital: 10_000,
		PositionSize:   0.1,
	}
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zlog.With().Str("service", "replay").Logger()

	timeframe, err := shared.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		log.Printf("parsing timeframe: %v", err)
		return
	}

	start, err := time.Parse(shared.DateLayout, cfg.Start)
	if err != nil {
		log.Printf("parsing start of replayed range: %v", err)
		return
	}

	end, err := time.Parse(shared.DateLayout, cfg.End)
	if err != nil {
		log.Printf("parsing end of replayed range: %v", err)
		return
	}

	source, err := newCandleSource(ctx, &cfg, timeframe, &logger)
	if err != nil {
		log.Printf("creating candle source: %v", err)
		return
	}

	params, err := strategy.LoadParams(cfg.StrategyParamsFilepath)
	if err != nil {
		log.Printf("loading strategy params: %v", err)
		return
	}

	movingAverage, err := strategy.NewMovingAverageFromParams(params)
	if err != nil {
		log.Printf("creating strategy: %v", err)
		return
	}

	var store database.RunStorer
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			log.Printf("creating database: %v", err)
			return
		}

		store = db
	}

	backtestCfg := service.BacktestConfig{
		Market:         cfg.Market,
		Timeframe:      timeframe,
		Start:          start,
		End:            end,
		Source:         source,
		Strategy:       movingAverage,
		InitialCapital: cfg.InitialCapital,
		PositionSize:   cfg.PositionSize,
		Commission:     cfg.Commission,
		RiskFreeRate:   cfg.RiskFreeRate,
		Store:          store,
		Output:         os.Stdout,
		Cancel:         cancel,
	}
	backtest, err := service.NewBacktest(&backtestCfg)
	if err != nil {
		log.Printf("creating backtest service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	backtest.Run(ctx)
}
