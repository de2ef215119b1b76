package database

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/replay/analytics"
	"github.com/dnldd/replay/backtest"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createTradeTableSQL = "CREATE TABLE IF NOT EXISTS trade (id TEXT PRIMARY KEY, run TEXT, market TEXT, strategy TEXT, direction TEXT, size REAL, entryprice REAL, exitprice REAL, entrytime INTEGER, exittime INTEGER, pnl REAL, pnlpercent REAL)"
	createRunTableSQL   = "CREATE TABLE IF NOT EXISTS run (id TEXT, name TEXT, value REAL, createdon INTEGER, PRIMARY KEY (id, name))"
	persistTradeSQL     = "INSERT INTO trade(id, run, market, strategy, direction, size, entryprice, exitprice, entrytime, exittime, pnl, pnlpercent) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)"
	persistRunMetricSQL = "INSERT INTO run(id, name, value, createdon) VALUES(?,?,?,?)"
)

// RunStorer defines the requirements for storing backtest runs.
type RunStorer interface {
	// PersistTrades stores the provided closed trades under the given run id.
	PersistTrades(ctx context.Context, runID string, trades []*backtest.Trade) error
	// PersistMetrics stores the provided run metrics under the given run id.
	PersistMetrics(ctx context.Context, runID string, metrics *analytics.Metrics) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the RunStorer interface.
var _ RunStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createTradeTableSQL},
		{SQL: createRunTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// PersistTrades stores the provided closed trades under the given run id.
func (db *Database) PersistTrades(ctx context.Context, runID string, trades []*backtest.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	statements := make(rqlitehttp.SQLStatements, 0, len(trades))
	for _, trade := range trades {
		if trade.ExitTime.Before(trade.EntryTime) {
			db.cfg.Logger.Error().Msgf("unexpected trade state for persistence: %s", spew.Sdump(trade))
			continue
		}

		statements = append(statements, &rqlitehttp.SQLStatement{
			SQL: persistTradeSQL,
			PositionalParams: []any{trade.ID, runID, trade.Market, trade.Strategy,
				trade.Direction.String(), trade.Size, trade.EntryPrice, trade.ExitPrice,
				trade.EntryTime.Unix(), trade.ExitTime.Unix(), trade.PNL, trade.PNLPercent},
		})
	}

	resp, err := db.client.Execute(ctx, statements,
		&rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting trades for run %s: %d -> %s", runID, idx, errStr)
	}

	return nil
}

// PersistMetrics stores the provided run metrics under the given run id.
func (db *Database) PersistMetrics(ctx context.Context, runID string, metrics *analytics.Metrics) error {
	now := time.Now().Unix()

	flat := metrics.Map()
	statements := make(rqlitehttp.SQLStatements, 0, len(flat))
	for name, value := range flat {
		// Infinity sentinels cannot be represented in the json request body.
		if math.IsInf(value, 1) {
			value = math.MaxFloat64
		}

		statements = append(statements, &rqlitehttp.SQLStatement{
			SQL:              persistRunMetricSQL,
			PositionalParams: []any{runID, name, value, now},
		})
	}

	resp, err := db.client.Execute(ctx, statements,
		&rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting metrics for run %s: %d -> %s", runID, idx, errStr)
	}

	return nil
}
