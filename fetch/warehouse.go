package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/dnldd/replay/shared"
	"github.com/rs/zerolog"
)

const (
	// fetchCandlesSQL selects the candle range for a market and interval in
	// ascending date order.
	fetchCandlesSQL = "SELECT ts, open, high, low, close, volume FROM %s WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC"
)

// WarehouseConfig represents the candle warehouse configuration.
type WarehouseConfig struct {
	// Addr is the clickhouse connection address.
	Addr string
	// Database is the warehouse database.
	Database string
	// Table is the candle table.
	Table string
	// User is the warehouse user.
	User string
	// Pass is the warehouse user pass.
	Pass string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *WarehouseConfig) Validate() error {
	var errs error

	if cfg.Addr == "" {
		errs = errors.Join(errs, fmt.Errorf("warehouse address cannot be an empty string"))
	}
	if cfg.Database == "" {
		errs = errors.Join(errs, fmt.Errorf("warehouse database cannot be an empty string"))
	}
	if cfg.Table == "" {
		errs = errors.Join(errs, fmt.Errorf("warehouse table cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Warehouse represents a clickhouse backed candle source.
type Warehouse struct {
	cfg  *WarehouseConfig
	conn driver.Conn
}

// Ensure the warehouse implements the CandleSource interface.
var _ shared.CandleSource = (*Warehouse)(nil)

// NewWarehouse initializes a new candle warehouse connection.
func NewWarehouse(ctx context.Context, cfg *WarehouseConfig) (*Warehouse, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating warehouse config: %w", err)
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Pass,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating warehouse connection: %w", err)
	}

	err = conn.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("pinging warehouse: %w", err)
	}

	return &Warehouse{
		cfg:  cfg,
		conn: conn,
	}, nil
}

// FetchCandles fetches the candle sequence for the provided market and range.
func (w *Warehouse) FetchCandles(ctx context.Context, market string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}

	query := fmt.Sprintf(fetchCandlesSQL, w.cfg.Table)
	rows, err := w.conn.Query(ctx, query, market, timeframe.String(), start, end)
	if err != nil {
		return nil, fmt.Errorf("querying warehouse candles: %w", err)
	}
	defer rows.Close()

	candles := make([]shared.Candlestick, 0, chunkLimit)
	for rows.Next() {
		var candle shared.Candlestick
		err = rows.Scan(&candle.Date, &candle.Open, &candle.High, &candle.Low,
			&candle.Close, &candle.Volume)
		if err != nil {
			return nil, fmt.Errorf("scanning warehouse candle: %w", err)
		}

		candle.Market = market
		candle.Timeframe = timeframe
		candles = append(candles, candle)
	}

	w.cfg.Logger.Info().Msgf("fetched %d %s candles for %s from warehouse",
		len(candles), timeframe.String(), market)

	return candles, nil
}

// Close closes the warehouse connection.
func (w *Warehouse) Close() error {
	return w.conn.Close()
}
