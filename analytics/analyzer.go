package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dnldd/replay/backtest"
)

const (
	// DefaultRiskFreeRate is the annualized risk free rate used when none is configured.
	DefaultRiskFreeRate = 0.02
	// DefaultPeriodsPerYear is the number of return periods assumed in a trading year.
	DefaultPeriodsPerYear = 252
)

// EquityPoint represents one point of the equity curve, recorded at a trade's
// exit time.
type EquityPoint struct {
	Date        time.Time
	Equity      float64
	Peak        float64
	Drawdown    float64
	DrawdownPct float64
}

// Metrics represents the performance metrics derived from a trade list.
type Metrics struct {
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRate        float64
	GrossProfit    float64
	GrossLoss      float64
	NetProfit      float64
	ProfitFactor   float64
	AvgProfit      float64
	AvgLoss        float64
	AvgTrade       float64
	MaxDrawdown    float64
	MaxDrawdownPct float64
	SharpeRatio    float64
	SortinoRatio   float64
	StdDev         float64
	Skewness       float64
	Kurtosis       float64
}

// Map flattens the metrics into a named scalar mapping suitable for direct
// serialization by persistence and reporting layers.
func (m *Metrics) Map() map[string]float64 {
	return map[string]float64{
		"total_trades":     float64(m.TotalTrades),
		"winning_trades":   float64(m.WinningTrades),
		"losing_trades":    float64(m.LosingTrades),
		"win_rate":         m.WinRate,
		"gross_profit":     m.GrossProfit,
		"gross_loss":       m.GrossLoss,
		"net_profit":       m.NetProfit,
		"profit_factor":    m.ProfitFactor,
		"avg_profit":       m.AvgProfit,
		"avg_loss":         m.AvgLoss,
		"avg_trade":        m.AvgTrade,
		"max_drawdown":     m.MaxDrawdown,
		"max_drawdown_pct": m.MaxDrawdownPct,
		"sharpe_ratio":     m.SharpeRatio,
		"sortino_ratio":    m.SortinoRatio,
		"std_dev":          m.StdDev,
		"skewness":         m.Skewness,
		"kurtosis":         m.Kurtosis,
	}
}

// AnalyzerConfig represents the performance analyzer configuration.
type AnalyzerConfig struct {
	// InitialCapital is the starting capital the analyzed trades were produced from.
	InitialCapital float64
	// RiskFreeRate is the annualized risk free rate for risk-adjusted metrics.
	RiskFreeRate float64
	// PeriodsPerYear is the number of return periods in a trading year.
	PeriodsPerYear int
}

// Validate asserts the config sane inputs.
func (cfg *AnalyzerConfig) Validate() error {
	var errs error

	if cfg.InitialCapital <= 0 {
		errs = errors.Join(errs, fmt.Errorf("initial capital must be positive, got %f", cfg.InitialCapital))
	}
	if cfg.PeriodsPerYear < 0 {
		errs = errors.Join(errs, fmt.Errorf("periods per year cannot be negative, got %d", cfg.PeriodsPerYear))
	}

	return errs
}

// Analyzer derives equity curves and performance metrics from an ordered trade
// list. It is pure and holds no state beyond its configuration, so the same
// trade list always yields identical results.
type Analyzer struct {
	cfg *AnalyzerConfig
}

// NewAnalyzer initializes a new performance analyzer.
func NewAnalyzer(cfg *AnalyzerConfig) (*Analyzer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating analyzer config: %w", err)
	}

	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = DefaultRiskFreeRate
	}
	if cfg.PeriodsPerYear == 0 {
		cfg.PeriodsPerYear = DefaultPeriodsPerYear
	}

	return &Analyzer{cfg: cfg}, nil
}

// EquityCurve builds the per-trade equity curve from the provided trades,
// ordered by exit time. An empty trade list yields an empty curve.
func (a *Analyzer) EquityCurve(trades []*backtest.Trade) []EquityPoint {
	curve := make([]EquityPoint, len(trades))

	equity := a.cfg.InitialCapital
	peak := math.Inf(-1)
	for idx := range trades {
		equity += trades[idx].PNL
		if equity > peak {
			peak = equity
		}

		drawdown := peak - equity
		curve[idx] = EquityPoint{
			Date:        trades[idx].ExitTime,
			Equity:      equity,
			Peak:        peak,
			Drawdown:    drawdown,
			DrawdownPct: drawdown / peak,
		}
	}

	return curve
}

// returns derives the percent change series between consecutive equity points.
func returns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	changes := make([]float64, 0, len(curve)-1)
	for idx := 1; idx < len(curve); idx++ {
		changes = append(changes, (curve[idx].Equity-curve[idx-1].Equity)/curve[idx-1].Equity)
	}

	return changes
}

// mean returns the arithmetic mean of the provided values, zero when empty.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// centralMoment returns the k-th central moment of the provided values.
func centralMoment(values []float64, avg float64, k float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += math.Pow(v-avg, k)
	}

	return sum / float64(len(values))
}

// sharpeRatio computes the annualized sharpe ratio over the provided excess
// returns. A zero standard deviation yields zero rather than a division error.
func (a *Analyzer) sharpeRatio(excess []float64) float64 {
	avg := mean(excess)
	stdev := math.Sqrt(centralMoment(excess, avg, 2))
	if stdev == 0 {
		return 0
	}

	return math.Sqrt(float64(a.cfg.PeriodsPerYear)) * avg / stdev
}

// sortinoRatio computes the annualized sortino ratio over the provided excess
// returns, penalizing only downside deviation. No downside yields positive
// infinity, meaning no observed losses.
func (a *Analyzer) sortinoRatio(excess []float64) float64 {
	var downside bool
	squared := make([]float64, len(excess))
	for idx, v := range excess {
		if v < 0 {
			downside = true
			squared[idx] = v * v
		}
	}

	if !downside {
		return math.Inf(1)
	}

	downsideDev := math.Sqrt(mean(squared))
	if downsideDev == 0 {
		return 0
	}

	return math.Sqrt(float64(a.cfg.PeriodsPerYear)) * mean(excess) / downsideDev
}

// CalculateMetrics derives performance metrics from the provided trades and
// their equity curve. An empty trade list yields zeroed metrics.
func (a *Analyzer) CalculateMetrics(trades []*backtest.Trade, curve []EquityPoint) *Metrics {
	metrics := &Metrics{}
	if len(trades) == 0 {
		return metrics
	}

	pnl := make([]float64, len(trades))
	var profits, losses []float64
	for idx := range trades {
		pnl[idx] = trades[idx].PNL
		switch {
		case trades[idx].PNL > 0:
			profits = append(profits, trades[idx].PNL)
		case trades[idx].PNL < 0:
			losses = append(losses, trades[idx].PNL)
		}
	}

	metrics.TotalTrades = len(trades)
	metrics.WinningTrades = len(profits)
	metrics.LosingTrades = len(losses)
	metrics.WinRate = float64(len(profits)) / float64(len(trades))

	for _, p := range profits {
		metrics.GrossProfit += p
	}
	for _, l := range losses {
		metrics.GrossLoss += math.Abs(l)
	}
	metrics.NetProfit = metrics.GrossProfit - metrics.GrossLoss

	// A zero gross loss means no observed losses, represented by the positive
	// infinity sentinel rather than an error.
	metrics.ProfitFactor = math.Inf(1)
	if metrics.GrossLoss > 0 {
		metrics.ProfitFactor = metrics.GrossProfit / metrics.GrossLoss
	}

	metrics.AvgProfit = mean(profits)
	metrics.AvgLoss = mean(losses)
	metrics.AvgTrade = mean(pnl)

	for idx := range curve {
		if curve[idx].Drawdown > metrics.MaxDrawdown {
			metrics.MaxDrawdown = curve[idx].Drawdown
		}
		if curve[idx].DrawdownPct > metrics.MaxDrawdownPct {
			metrics.MaxDrawdownPct = curve[idx].DrawdownPct
		}
	}

	excess := returns(curve)
	rfPerPeriod := a.cfg.RiskFreeRate / float64(a.cfg.PeriodsPerYear)
	for idx := range excess {
		excess[idx] -= rfPerPeriod
	}

	metrics.SharpeRatio = a.sharpeRatio(excess)
	metrics.SortinoRatio = a.sortinoRatio(excess)

	// Distribution statistics are computed over raw per-trade pnl using
	// population moments. Zero variance yields zero skewness and kurtosis.
	avg := mean(pnl)
	variance := centralMoment(pnl, avg, 2)
	metrics.StdDev = math.Sqrt(variance)
	if variance > 0 {
		metrics.Skewness = centralMoment(pnl, avg, 3) / math.Pow(variance, 1.5)
		metrics.Kurtosis = centralMoment(pnl, avg, 4)/(variance*variance) - 3
	}

	return metrics
}

// Analyze derives the equity curve and metrics for the provided trade list.
func (a *Analyzer) Analyze(trades []*backtest.Trade) ([]EquityPoint, *Metrics) {
	curve := a.EquityCurve(trades)
	return curve, a.CalculateMetrics(trades, curve)
}
