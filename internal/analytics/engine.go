// Package analytics computes the risk/return summary for a weighted
// basket of holdings.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"FinSentinel/internal/model"
)

// periodsPerYear annualizes daily-period statistics.
const periodsPerYear = 252.0

// InvalidPortfolioError reports unusable raw weights.
type InvalidPortfolioError struct {
	Reason string
}

func (e *InvalidPortfolioError) Error() string {
	return "invalid portfolio: " + e.Reason
}

// IncompletePricingError aborts an analysis when one or more symbols
// could not be resolved at all. Partial metrics are never returned:
// silently dropping a holding would corrupt the weight-sum invariant.
type IncompletePricingError struct {
	MissingSymbols []string
}

func (e *IncompletePricingError) Error() string {
	return "portfolio pricing incomplete, unresolved symbols: " + strings.Join(e.MissingSymbols, ", ")
}

// PriceResolver is the pricing dependency of the engine.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string) (model.PriceRecord, error)
}

// SeriesBuilder is the return-history dependency of the engine.
type SeriesBuilder interface {
	Build(ctx context.Context, symbol string, lookbackMonths int) (model.ReturnSeries, error)
}

// Engine computes PortfolioMetrics. Stateless per call; price fetches
// underneath may hit the resolver's cache.
type Engine struct {
	resolver       PriceResolver
	series         SeriesBuilder
	lookbackMonths int
	tolerance      model.RiskTolerance
	log            zerolog.Logger
}

// NewEngine creates an analytics engine.
func NewEngine(r PriceResolver, s SeriesBuilder, lookbackMonths int, tolerance model.RiskTolerance, log zerolog.Logger) *Engine {
	return &Engine{
		resolver:       r,
		series:         s,
		lookbackMonths: lookbackMonths,
		tolerance:      tolerance,
		log:            log.With().Str("component", "analytics").Logger(),
	}
}

// normalizeWeights merges duplicate symbols and rescales raw weights to
// sum to 1. Cash holdings keep their weight under the CASH key.
func normalizeWeights(holdings []model.Holding) (map[string]float64, error) {
	if len(holdings) == 0 {
		return nil, &InvalidPortfolioError{Reason: "no holdings"}
	}
	raw := make(map[string]float64)
	total := 0.0
	for _, h := range holdings {
		if h.RawWeight < 0 {
			return nil, &InvalidPortfolioError{Reason: fmt.Sprintf("negative weight for %s", h.Symbol)}
		}
		key := model.CashSymbol
		if !h.IsCash() {
			key = strings.ToUpper(strings.TrimSpace(h.Symbol))
		}
		raw[key] += h.RawWeight
		total += h.RawWeight
	}
	if total <= 0 {
		return nil, &InvalidPortfolioError{Reason: "weights must sum to a positive value"}
	}
	weights := make(map[string]float64, len(raw))
	for sym, w := range raw {
		weights[sym] = w / total
	}
	return weights, nil
}

// Analyze prices the basket, builds aligned return series and computes
// the full metrics summary per configured risk tolerance.
func (e *Engine) Analyze(ctx context.Context, holdings []model.Holding, riskFreeRate float64) (model.PortfolioMetrics, error) {
	weights, err := normalizeWeights(holdings)
	if err != nil {
		return model.PortfolioMetrics{}, err
	}

	symbols := make([]string, 0, len(weights))
	for sym := range weights {
		if sym != model.CashSymbol {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	// Resolutions for distinct symbols touch disjoint cache keys, so
	// they can run concurrently.
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		missing   []string
		seriesBy  = make(map[string]model.ReturnSeries, len(symbols))
		seriesErr error
	)
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if _, err := e.resolver.Resolve(ctx, sym); err != nil {
				mu.Lock()
				missing = append(missing, sym)
				mu.Unlock()
				return
			}
			series, err := e.series.Build(ctx, sym, e.lookbackMonths)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if seriesErr == nil {
					seriesErr = err
				}
				return
			}
			seriesBy[sym] = series
		}(sym)
	}
	wg.Wait()

	if len(missing) > 0 {
		sort.Strings(missing)
		return model.PortfolioMetrics{}, &IncompletePricingError{MissingSymbols: missing}
	}
	if seriesErr != nil {
		return model.PortfolioMetrics{}, seriesErr
	}

	metrics := e.compute(weights, symbols, seriesBy, riskFreeRate)
	e.log.Info().
		Int("holdings", len(weights)).
		Float64("expected_return", metrics.ExpectedReturn).
		Float64("volatility", metrics.Volatility).
		Bool("approx", metrics.VolatilityApprox).
		Msg("portfolio analyzed")
	return metrics, nil
}

func (e *Engine) compute(weights map[string]float64, symbols []string, seriesBy map[string]model.ReturnSeries, riskFreeRate float64) model.PortfolioMetrics {
	metrics := model.PortfolioMetrics{HHI: hhi(weights)}

	// All symbols in one evaluation must share the same window: trim
	// every series to the shortest common length, dropping the oldest
	// periods. Cash contributes zeros of matching length.
	window := 0
	for i, sym := range symbols {
		n := len(seriesBy[sym].Returns)
		if i == 0 || n < window {
			window = n
		}
	}

	if len(symbols) == 0 || window == 0 {
		// Pure cash (or degenerate empty windows): zero return, zero
		// volatility, undefined Sharpe.
		metrics.RiskFit = fitLabel(0, e.tolerance)
		return metrics
	}

	expected := 0.0
	combined := make([]float64, window)
	for _, sym := range symbols {
		w := weights[sym]
		rets := seriesBy[sym].Returns
		rets = rets[len(rets)-window:]
		expected += w * stat.Mean(rets, nil)
		for t, r := range rets {
			combined[t] += w * r
		}
	}
	metrics.ExpectedReturn = expected * periodsPerYear

	if window >= 2 {
		// Stddev of the combined weighted series carries the full
		// pairwise covariance between holdings.
		metrics.Volatility = stat.StdDev(combined, nil) * math.Sqrt(periodsPerYear)
	} else {
		// Too few overlapping periods for covariance: fall back to the
		// weighted average of individual volatilities.
		metrics.VolatilityApprox = true
		approx := 0.0
		for _, sym := range symbols {
			rets := seriesBy[sym].Returns
			if len(rets) >= 2 {
				approx += weights[sym] * stat.StdDev(rets, nil)
			}
		}
		metrics.Volatility = approx * math.Sqrt(periodsPerYear)
	}

	if metrics.Volatility > 0 {
		sharpe := (metrics.ExpectedReturn - riskFreeRate) / metrics.Volatility
		metrics.Sharpe = &sharpe
	}

	metrics.VaR95 = historicalVaR95(combined)
	metrics.RiskFit = fitLabel(metrics.Volatility, e.tolerance)
	return metrics
}

// hhi is the Herfindahl-Hirschman concentration index, cash included.
func hhi(weights map[string]float64) float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w * w
	}
	return sum
}

// historicalVaR95 is the 5th empirical percentile of the combined
// period return distribution, annualized and clamped non-positive.
func historicalVaR95(combined []float64) float64 {
	sorted := make([]float64, len(combined))
	copy(sorted, combined)
	sort.Float64s(sorted)
	q := stat.Quantile(0.05, stat.Empirical, sorted, nil)
	return math.Min(0, q*math.Sqrt(periodsPerYear))
}

// volCeilings maps a risk tolerance tier to the annualized volatility
// it can stomach.
var volCeilings = map[model.RiskTolerance]float64{
	model.ToleranceConservative: 0.10,
	model.ToleranceModerate:     0.20,
	model.ToleranceAggressive:   0.35,
}

func fitLabel(vol float64, tolerance model.RiskTolerance) string {
	ceiling, ok := volCeilings[tolerance]
	if !ok {
		return "unknown"
	}
	if vol < ceiling {
		return "fit"
	}
	return "too_volatile"
}
