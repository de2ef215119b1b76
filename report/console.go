package report

import (
	"fmt"
	"io"
	"math"

	"github.com/dnldd/replay/analytics"
	"github.com/olekukonko/tablewriter"
)

// Console renders run results as text tables on a writer.
type Console struct {
	out io.Writer
}

// NewConsole creates a console reporter writing to the provided writer.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// formatRatio renders a ratio value, substituting a readable label for the
// positive infinity sentinel.
func formatRatio(value float64) string {
	if math.IsInf(value, 1) {
		return "INF"
	}

	return fmt.Sprintf("%.4f", value)
}

// PrintMetrics renders the performance metrics summary table.
func (c *Console) PrintMetrics(strategy string, metrics *analytics.Metrics) {
	fmt.Fprintf(c.out, "\nPerformance summary — %s\n", strategy)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")

	table.Append("Total Trades", fmt.Sprintf("%d", metrics.TotalTrades))
	table.Append("Winning Trades", fmt.Sprintf("%d", metrics.WinningTrades))
	table.Append("Losing Trades", fmt.Sprintf("%d", metrics.LosingTrades))
	table.Append("Win Rate", fmt.Sprintf("%.2f%%", metrics.WinRate*100))
	table.Append("Gross Profit", fmt.Sprintf("%.2f", metrics.GrossProfit))
	table.Append("Gross Loss", fmt.Sprintf("%.2f", metrics.GrossLoss))
	table.Append("Net Profit", fmt.Sprintf("%.2f", metrics.NetProfit))
	table.Append("Profit Factor", formatRatio(metrics.ProfitFactor))
	table.Append("Avg Profit", fmt.Sprintf("%.2f", metrics.AvgProfit))
	table.Append("Avg Loss", fmt.Sprintf("%.2f", metrics.AvgLoss))
	table.Append("Avg Trade", fmt.Sprintf("%.2f", metrics.AvgTrade))
	table.Append("Max Drawdown", fmt.Sprintf("%.2f", metrics.MaxDrawdown))
	table.Append("Max Drawdown %", fmt.Sprintf("%.2f%%", metrics.MaxDrawdownPct*100))
	table.Append("Sharpe Ratio", formatRatio(metrics.SharpeRatio))
	table.Append("Sortino Ratio", formatRatio(metrics.SortinoRatio))
	table.Append("Std Dev", fmt.Sprintf("%.4f", metrics.StdDev))
	table.Append("Skewness", fmt.Sprintf("%.4f", metrics.Skewness))
	table.Append("Kurtosis", fmt.Sprintf("%.4f", metrics.Kurtosis))

	table.Render()
}

// PrintTrades renders the per-trade breakdown table.
func (c *Console) PrintTrades(breakdown []analytics.TradeBreakdown) {
	if len(breakdown) == 0 {
		fmt.Fprintln(c.out, "\nNo closed trades.")
		return
	}

	fmt.Fprintf(c.out, "\nTrade breakdown — %d trades\n", len(breakdown))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Side", "Entry", "Exit", "Entry$", "Exit$", "Size", "PnL", "PnL%")

	for idx := range breakdown {
		row := breakdown[idx]
		table.Append(
			fmt.Sprintf("%d", idx+1),
			row.Direction,
			row.EntryTime.Format("2006-01-02 15:04"),
			row.ExitTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", row.EntryPrice),
			fmt.Sprintf("%.2f", row.ExitPrice),
			fmt.Sprintf("%.4f", row.Size),
			fmt.Sprintf("%.2f", row.PNL),
			fmt.Sprintf("%.2f%%", row.PNLPercent*100),
		)
	}

	table.Render()
}

// PrintEquityCurve renders the per-trade equity curve table.
func (c *Console) PrintEquityCurve(curve []analytics.EquityPoint) {
	if len(curve) == 0 {
		return
	}

	fmt.Fprintln(c.out, "\nEquity curve")

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Equity", "Peak", "Drawdown", "Drawdown%")

	for idx := range curve {
		point := curve[idx]
		table.Append(
			point.Date.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", point.Equity),
			fmt.Sprintf("%.2f", point.Peak),
			fmt.Sprintf("%.2f", point.Drawdown),
			fmt.Sprintf("%.2f%%", point.DrawdownPct*100),
		)
	}

	table.Render()
}
