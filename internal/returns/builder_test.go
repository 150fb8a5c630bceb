package returns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"FinSentinel/internal/model"
	"FinSentinel/internal/provider"
)

func closes(basis model.PriceBasis, prices ...float64) []model.Close {
	out := make([]model.Close, len(prices))
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		out[i] = model.Close{Time: day.AddDate(0, 0, i), Price: p, Basis: basis}
	}
	return out
}

func TestBuild_SimpleReturns(t *testing.T) {
	bars := &provider.MockBarSource{Closes: map[string][]model.Close{
		"AAPL": closes(model.BasisAdjustedClose, 100, 110, 99),
	}}
	b := NewBuilder(bars, zerolog.Nop())

	series, err := b.Build(context.Background(), "AAPL", 6)
	require.NoError(t, err)
	require.Equal(t, "AAPL", series.Symbol)
	require.Equal(t, model.BasisAdjustedClose, series.Basis)
	require.Len(t, series.Returns, 2)
	require.InDelta(t, 0.10, series.Returns[0], 1e-12)
	require.InDelta(t, -0.10, series.Returns[1], 1e-12)
}

func TestBuild_TooFewPoints(t *testing.T) {
	bars := &provider.MockBarSource{Closes: map[string][]model.Close{
		"NEWIPO": closes(model.BasisAdjustedClose, 42),
	}}
	b := NewBuilder(bars, zerolog.Nop())

	_, err := b.Build(context.Background(), "NEWIPO", 6)
	var tooShort *SeriesTooShortError
	require.ErrorAs(t, err, &tooShort)
	require.Equal(t, "NEWIPO", tooShort.Symbol)
	require.Equal(t, 1, tooShort.Points)
}

func TestBuild_RejectsMixedBasis(t *testing.T) {
	mixed := closes(model.BasisAdjustedClose, 100, 101)
	mixed = append(mixed, model.Close{Time: mixed[1].Time.AddDate(0, 0, 1), Price: 102, Basis: model.BasisIntraday})
	bars := &provider.MockBarSource{Closes: map[string][]model.Close{"MIX": mixed}}
	b := NewBuilder(bars, zerolog.Nop())

	_, err := b.Build(context.Background(), "MIX", 6)
	var mixedErr *MixedBasisError
	require.ErrorAs(t, err, &mixedErr)
}

func TestBuild_SourceErrorWrapped(t *testing.T) {
	cause := errors.New("provider unreachable")
	b := NewBuilder(&provider.MockBarSource{Err: cause}, zerolog.Nop())

	_, err := b.Build(context.Background(), "AAPL", 6)
	require.ErrorIs(t, err, cause)
}

func TestBuild_NonPositivePrice(t *testing.T) {
	bars := &provider.MockBarSource{Closes: map[string][]model.Close{
		"BAD": closes(model.BasisAdjustedClose, 100, 0, 50),
	}}
	b := NewBuilder(bars, zerolog.Nop())

	_, err := b.Build(context.Background(), "BAD", 6)
	require.Error(t, err)
}
