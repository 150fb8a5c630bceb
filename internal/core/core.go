// Package core assembles the price resolver, the portfolio analytics
// engine and the fraud detector over the shared database. Callers
// consume these and nothing else.
package core

import (
	"database/sql"

	"github.com/rs/zerolog"

	"FinSentinel/internal/analytics"
	"FinSentinel/internal/cache"
	"FinSentinel/internal/config"
	"FinSentinel/internal/fraud"
	"FinSentinel/internal/history"
	"FinSentinel/internal/model"
	"FinSentinel/internal/provider"
	"FinSentinel/internal/resolver"
	"FinSentinel/internal/returns"
)

// Core bundles the assistant's engines and their backing stores.
type Core struct {
	Resolver  *resolver.Resolver
	Analytics *analytics.Engine
	Fraud     *fraud.Detector

	PriceCache *cache.Store
}

// New builds the full dependency graph from configuration and an open
// database handle.
func New(cfg *config.Config, db *sql.DB, log zerolog.Logger) (*Core, error) {
	priceCache, err := cache.NewStore(db, cfg.CacheTTL(), log)
	if err != nil {
		return nil, err
	}
	counterparties, err := history.NewStore(db, log)
	if err != nil {
		return nil, err
	}

	yahoo := provider.NewYahooClient(cfg.Proxy)
	providers := []provider.Provider{
		provider.NewAlphaVantage(cfg.Providers.AlphaVantageKey, cfg.Proxy),
		&provider.YahooIntraday{YahooClient: yahoo},
		&provider.YahooClose{YahooClient: yahoo},
	}

	res := resolver.New(providers, priceCache, cfg.ProviderTimeout(), log)
	builder := returns.NewBuilder(yahoo, log)

	return &Core{
		Resolver: res,
		Analytics: analytics.NewEngine(res, builder,
			cfg.Portfolio.LookbackMonths,
			model.RiskTolerance(cfg.Portfolio.RiskTolerance), log),
		Fraud: fraud.NewDetector(counterparties, fraud.Policy{
			LargeAmountThreshold: cfg.Fraud.LargeAmountThreshold,
			OddHourStart:         cfg.Fraud.OddHourStart,
			OddHourEnd:           cfg.Fraud.OddHourEnd,
			ZScoreThreshold:      cfg.Fraud.ZScoreThreshold,
			MinHistory:           cfg.Fraud.MinHistory,
		}, log),
		PriceCache: priceCache,
	}, nil
}
