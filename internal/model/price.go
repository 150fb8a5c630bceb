package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource labels the provenance of a price value.
type PriceSource string

const (
	SourcePrimary           PriceSource = "PRIMARY"
	SourceSecondaryIntraday PriceSource = "SECONDARY_INTRADAY"
	SourceSecondaryClose    PriceSource = "SECONDARY_CLOSE"
	SourceCache             PriceSource = "CACHE"
)

// PriceBasis identifies which kind of price a value was derived from.
// A return series must be built from a single basis.
type PriceBasis string

const (
	BasisAdjustedClose PriceBasis = "ADJUSTED_CLOSE"
	BasisIntraday      PriceBasis = "INTRADAY"
)

// PriceRecord is a resolved price with its provenance. Records are
// immutable: a new fetch produces a new record.
type PriceRecord struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
	Source PriceSource     `json:"source"`
	// Stale is set when an expired cache entry was served because every
	// live provider failed.
	Stale bool `json:"stale,omitempty"`
}

// CacheEntry wraps a PriceRecord with its expiry. The entry is valid
// iff now is strictly before ExpiresAt.
type CacheEntry struct {
	Record    PriceRecord
	ExpiresAt time.Time
}

// Valid reports whether the entry is still within its TTL at the given
// instant. An entry expiring exactly at now is already expired.
func (e CacheEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Quote is the normalized shape returned by every price provider.
type Quote struct {
	Symbol string
	Price  decimal.Decimal
	AsOf   time.Time
}

// Close is a single daily closing price used for return computation.
type Close struct {
	Time  time.Time
	Price float64
	Basis PriceBasis
}
