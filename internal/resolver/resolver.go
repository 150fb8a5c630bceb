// Package resolver orchestrates the provider fallback chain and the
// price cache, normalizing heterogeneous provider failures into a
// single failure shape.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"FinSentinel/internal/cache"
	"FinSentinel/internal/model"
	"FinSentinel/internal/provider"
)

// ResolutionFailure is returned when every provider and the cache have
// been exhausted for a symbol.
type ResolutionFailure struct {
	Symbol    string
	Attempted []string
}

func (e *ResolutionFailure) Error() string {
	return fmt.Sprintf("could not resolve price for %s (attempted: %s)",
		e.Symbol, strings.Join(e.Attempted, ", "))
}

// Resolver resolves a symbol to a price record. Providers are tried in
// priority order; a provider is only attempted after the previous one
// is confirmed failed. Cache is the fallback of last resort.
type Resolver struct {
	providers []provider.Provider
	cache     *cache.Store
	timeout   time.Duration
	log       zerolog.Logger
}

// New creates a resolver over an ordered provider chain.
func New(providers []provider.Provider, store *cache.Store, timeout time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{
		providers: providers,
		cache:     store,
		timeout:   timeout,
		log:       log.With().Str("component", "resolver").Logger(),
	}
}

// Normalize canonicalizes a caller-supplied symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Resolve walks the provider chain, caching on the first success. When
// all providers fail, a valid cache entry is served as CACHE and an
// expired one as CACHE with Stale set. No cache entry at all yields a
// ResolutionFailure. Failure paths have no side effects.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (model.PriceRecord, error) {
	symbol = Normalize(symbol)

	// Per-key exclusive section: two concurrent resolutions of one
	// symbol must not interleave their check-then-write sequences.
	unlock := r.cache.Lock(symbol)
	defer unlock()

	attempted := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		quote, err := p.Fetch(attemptCtx, symbol)
		cancel()
		if err != nil {
			r.log.Debug().Str("symbol", symbol).Str("provider", p.Name()).Err(err).
				Msg("provider attempt failed")
			attempted = append(attempted, p.Name())
			continue
		}

		rec := model.PriceRecord{
			Symbol: symbol,
			Price:  quote.Price,
			AsOf:   quote.AsOf,
			Source: p.Source(),
		}
		if err := r.cache.Put(rec); err != nil {
			// A broken cache must not fail a successful resolution.
			r.log.Warn().Str("symbol", symbol).Err(err).Msg("cache write failed")
		}
		return rec, nil
	}

	entry, ok, err := r.cache.Get(symbol)
	if err != nil {
		r.log.Warn().Str("symbol", symbol).Err(err).Msg("cache read failed")
	}
	if ok {
		rec := entry.Record
		rec.Source = model.SourceCache
		if !entry.Valid(time.Now()) {
			// Stale is better than nothing once every live provider is
			// down, but callers must be able to surface the staleness.
			rec.Stale = true
			r.log.Warn().Str("symbol", symbol).Time("expired_at", entry.ExpiresAt).
				Msg("serving expired cache entry")
		}
		return rec, nil
	}

	return model.PriceRecord{}, &ResolutionFailure{Symbol: symbol, Attempted: attempted}
}

// Invalidate drops the cached entry for a symbol (forget-me/testing).
func (r *Resolver) Invalidate(symbol string) error {
	return r.cache.Invalidate(Normalize(symbol))
}
