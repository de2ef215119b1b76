package optimize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dnldd/replay/analytics"
	"github.com/dnldd/replay/backtest"
	"github.com/dnldd/replay/indicator"
	"github.com/dnldd/replay/shared"
	"github.com/dnldd/replay/strategy"
	"github.com/rs/zerolog"
)

const (
	// defaultWorkers is the fallback sweep concurrency.
	defaultWorkers = 4
)

// Result represents the outcome of evaluating a single strategy candidate.
type Result struct {
	Strategy string
	Trades   []*backtest.Trade
	Curve    []analytics.EquityPoint
	Metrics  *analytics.Metrics
}

// SweepConfig represents the parameter sweep configuration.
type SweepConfig struct {
	// Tester is the backtest configuration applied to every candidate.
	Tester backtest.TesterConfig
	// Analyzer is the analytics configuration applied to every candidate.
	Analyzer analytics.AnalyzerConfig
	// Workers is the number of concurrent evaluation workers.
	Workers int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane defaults are set.
func (cfg *SweepConfig) Validate() error {
	var errs error

	if err := cfg.Tester.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := cfg.Analyzer.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if cfg.Workers < 0 {
		errs = errors.Join(errs, fmt.Errorf("workers cannot be negative: %d", cfg.Workers))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Sweep evaluates a set of strategy candidates over the same candle history
// and ranks them by risk-adjusted performance.
type Sweep struct {
	cfg *SweepConfig
}

// NewSweep initializes a new parameter sweep.
func NewSweep(cfg *SweepConfig) (*Sweep, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers
	}

	return &Sweep{cfg: cfg}, nil
}

// GridMovingAverage expands the provided period lists into moving average
// strategy candidates, skipping pairs where the fast period does not lead
// the slow period.
func GridMovingAverage(base strategy.MovingAverageConfig, fastPeriods []int, slowPeriods []int) ([]shared.SignalSource, error) {
	sources := make([]shared.SignalSource, 0, len(fastPeriods)*len(slowPeriods))

	for _, fast := range fastPeriods {
		for _, slow := range slowPeriods {
			if fast >= slow {
				continue
			}

			cfg := base
			cfg.FastPeriod = fast
			cfg.SlowPeriod = slow

			source, err := strategy.NewMovingAverage(&cfg)
			if err != nil {
				return nil, fmt.Errorf("creating candidate %d/%d: %w", fast, slow, err)
			}

			sources = append(sources, source)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid fast/slow period pairs in grid")
	}

	return sources, nil
}

// evaluate runs a single candidate through an isolated tester and analyzer.
func (s *Sweep) evaluate(candles []shared.Candlestick, source shared.SignalSource) (*Result, error) {
	testerCfg := s.cfg.Tester
	tester, err := backtest.NewTester(&testerCfg)
	if err != nil {
		return nil, err
	}

	analyzerCfg := s.cfg.Analyzer
	analyzer, err := analytics.NewAnalyzer(&analyzerCfg)
	if err != nil {
		return nil, err
	}

	trades, err := tester.RunSource(candles, source)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", source.Name(), err)
	}

	curve, metrics := analyzer.Analyze(trades)

	return &Result{
		Strategy: source.Name(),
		Trades:   trades,
		Curve:    curve,
		Metrics:  metrics,
	}, nil
}

// Run evaluates all candidates concurrently and returns their results sorted
// by descending sharpe ratio, ties broken by net profit. Candle indicators
// are enriched once for the union of candidate requirements before the
// workers start.
func (s *Sweep) Run(ctx context.Context, candles []shared.Candlestick, sources []shared.SignalSource) ([]*Result, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no strategy candidates provided")
	}

	seen := make(map[string]struct{})
	required := make([]string, 0)
	for _, source := range sources {
		for _, name := range source.RequiredIndicators() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			required = append(required, name)
		}
	}

	err := indicator.Enrich(candles, required)
	if err != nil {
		return nil, fmt.Errorf("enriching candles: %w", err)
	}

	jobs := make(chan shared.SignalSource, len(sources))
	results := make([]*Result, 0, len(sources))

	var mtx sync.Mutex
	var errs error
	var wg sync.WaitGroup

	for range s.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for source := range jobs {
				if ctx.Err() != nil {
					return
				}

				result, err := s.evaluate(candles, source)

				mtx.Lock()
				if err != nil {
					errs = errors.Join(errs, err)
				} else {
					results = append(results, result)
				}
				mtx.Unlock()
			}
		}()
	}

	for _, source := range sources {
		jobs <- source
	}
	close(jobs)

	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errs != nil {
		return nil, errs
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Metrics.SharpeRatio != results[j].Metrics.SharpeRatio {
			return results[i].Metrics.SharpeRatio > results[j].Metrics.SharpeRatio
		}

		return results[i].Metrics.NetProfit > results[j].Metrics.NetProfit
	})

	s.cfg.Logger.Info().Msgf("evaluated %d strategy candidates, best: %s",
		len(results), results[0].Strategy)

	return results, nil
}
