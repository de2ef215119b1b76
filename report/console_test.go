package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dnldd/replay/analytics"
	"github.com/dnldd/replay/backtest"
	"github.com/dnldd/replay/shared"
)

func TestPrintMetrics(t *testing.T) {
	buf := new(bytes.Buffer)
	console := NewConsole(buf)

	metrics := &analytics.Metrics{
		TotalTrades:   4,
		WinningTrades: 3,
		LosingTrades:  1,
		WinRate:       0.75,
		NetProfit:     320,
		ProfitFactor:  math.Inf(1),
		SortinoRatio:  math.Inf(1),
	}

	console.PrintMetrics("ma_12_26", metrics)

	output := buf.String()
	for _, want := range []string{"ma_12_26", "Total Trades", "75.00%", "INF"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestPrintTrades(t *testing.T) {
	entry := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	trades := []*backtest.Trade{
		{
			Market:     "BTCUSDT",
			Strategy:   "ma_12_26",
			Direction:  shared.Long,
			Size:       2,
			EntryPrice: 100,
			ExitPrice:  110,
			EntryTime:  entry,
			ExitTime:   entry.Add(time.Hour),
			PNL:        20,
			PNLPercent: 0.1,
		},
	}

	buf := new(bytes.Buffer)
	console := NewConsole(buf)
	console.PrintTrades(analytics.GenerateTradeBreakdown(trades))

	output := buf.String()
	for _, want := range []string{"1 trades", "long", "100.00", "110.00", "10.00%"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestPrintTradesEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	console := NewConsole(buf)
	console.PrintTrades(nil)

	if !strings.Contains(buf.String(), "No closed trades") {
		t.Errorf("expected empty trade notice, got: %s", buf.String())
	}
}

func TestPrintEquityCurve(t *testing.T) {
	curve := []analytics.EquityPoint{
		{
			Date:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Equity:      10100,
			Peak:        10100,
			Drawdown:    0,
			DrawdownPct: 0,
		},
		{
			Date:        time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
			Equity:      10050,
			Peak:        10100,
			Drawdown:    50,
			DrawdownPct: 50.0 / 10100,
		},
	}

	buf := new(bytes.Buffer)
	console := NewConsole(buf)
	console.PrintEquityCurve(curve)

	output := buf.String()
	for _, want := range []string{"Equity curve", "10100.00", "10050.00", "50.00"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}
