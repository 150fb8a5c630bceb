// Package returns builds time-ordered period return series from
// historical closing prices.
package returns

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"FinSentinel/internal/model"
	"FinSentinel/internal/provider"
)

// SeriesTooShortError reports that a symbol has too few price points to
// produce even a single return.
type SeriesTooShortError struct {
	Symbol string
	Points int
}

func (e *SeriesTooShortError) Error() string {
	return fmt.Sprintf("return series for %s: %d price points, need at least 2", e.Symbol, e.Points)
}

// MixedBasisError reports that the underlying price source changed
// basis mid-window. Series must never silently mix bases.
type MixedBasisError struct {
	Symbol string
}

func (e *MixedBasisError) Error() string {
	return fmt.Sprintf("return series for %s mixes price bases", e.Symbol)
}

// Builder computes simple period-over-period returns from a bar source.
type Builder struct {
	bars provider.BarSource
	log  zerolog.Logger
}

// NewBuilder creates a Builder over the given bar source.
func NewBuilder(bars provider.BarSource, log zerolog.Logger) *Builder {
	return &Builder{bars: bars, log: log.With().Str("component", "returns").Logger()}
}

// Build fetches closes for the lookback window and converts them into
// simple returns, oldest first: r[i] = p[i]/p[i-1] - 1.
func (b *Builder) Build(ctx context.Context, symbol string, lookbackMonths int) (model.ReturnSeries, error) {
	closes, err := b.bars.DailyCloses(ctx, symbol, lookbackMonths)
	if err != nil {
		return model.ReturnSeries{}, fmt.Errorf("fetch closes for %s: %w", symbol, err)
	}
	if len(closes) < 2 {
		return model.ReturnSeries{}, &SeriesTooShortError{Symbol: symbol, Points: len(closes)}
	}

	basis := closes[0].Basis
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i].Basis != basis {
			return model.ReturnSeries{}, &MixedBasisError{Symbol: symbol}
		}
		prev := closes[i-1].Price
		if prev <= 0 {
			return model.ReturnSeries{}, fmt.Errorf("return series for %s: non-positive price at %s",
				symbol, closes[i-1].Time.Format("2006-01-02"))
		}
		rets = append(rets, closes[i].Price/prev-1)
	}

	b.log.Debug().Str("symbol", symbol).Int("periods", len(rets)).Msg("built return series")
	return model.ReturnSeries{Symbol: symbol, Returns: rets, Basis: basis}, nil
}
