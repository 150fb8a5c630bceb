package provider

import (
	"context"

	"FinSentinel/internal/model"
)

// Provider is the capability every price source implements. A provider
// either returns a usable quote or an error; the resolver treats any
// error (including context timeouts) as that provider's failure.
type Provider interface {
	Fetch(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
	Source() model.PriceSource
}

// BarSource supplies historical daily closes for return computation.
// All closes in one response share a single price basis.
type BarSource interface {
	DailyCloses(ctx context.Context, symbol string, lookbackMonths int) ([]model.Close, error)
}
