// Package cache is the persistent price cache. It is the sole owner of
// cached price records; the resolver reads and writes only through it.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"FinSentinel/internal/keylock"
	"FinSentinel/internal/model"
)

// Store is a SQLite-backed symbol -> price cache. At most one entry per
// symbol; a successful fresh fetch overwrites it (last write wins).
type Store struct {
	db    *sql.DB
	ttl   time.Duration
	locks *keylock.KeyLock
	log   zerolog.Logger
}

// NewStore wraps an open database and runs the cache migrations.
func NewStore(db *sql.DB, ttl time.Duration, log zerolog.Logger) (*Store, error) {
	s := &Store{
		db:    db,
		ttl:   ttl,
		locks: keylock.New(),
		log:   log.With().Str("component", "price_cache").Logger(),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate price cache: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_cache (
			symbol     TEXT PRIMARY KEY,
			price      TEXT NOT NULL,
			as_of      INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			source     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_cache_expiry ON price_cache(expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Lock acquires the exclusive section for a symbol. The resolver wraps
// its check-TTL-then-fetch-then-write sequence in it so two concurrent
// resolutions of the same symbol cannot interleave.
func (s *Store) Lock(symbol string) func() {
	return s.locks.Lock(symbol)
}

// Put stores a fresh record, overwriting any previous entry for the
// symbol. The entry expires at record.AsOf + TTL.
func (s *Store) Put(rec model.PriceRecord) error {
	expiresAt := rec.AsOf.Add(s.ttl)
	_, err := s.db.Exec(`INSERT INTO price_cache (symbol, price, as_of, expires_at, source)
		VALUES (?,?,?,?,?)
		ON CONFLICT(symbol) DO UPDATE SET
			price=excluded.price, as_of=excluded.as_of,
			expires_at=excluded.expires_at, source=excluded.source`,
		rec.Symbol, rec.Price.String(), rec.AsOf.Unix(), expiresAt.Unix(), string(rec.Source),
	)
	if err != nil {
		return fmt.Errorf("cache put %s: %w", rec.Symbol, err)
	}
	s.log.Debug().Str("symbol", rec.Symbol).Time("expires_at", expiresAt).Msg("cached price")
	return nil
}

// Get returns the entry for a symbol, expired or not. The second return
// value is false when no entry exists at all. Callers decide what an
// expired entry is worth via CacheEntry.Valid.
func (s *Store) Get(symbol string) (model.CacheEntry, bool, error) {
	row := s.db.QueryRow(
		`SELECT price, as_of, expires_at, source FROM price_cache WHERE symbol = ?`, symbol)

	var (
		priceStr  string
		asOf      int64
		expiresAt int64
		source    string
	)
	if err := row.Scan(&priceStr, &asOf, &expiresAt, &source); err != nil {
		if err == sql.ErrNoRows {
			return model.CacheEntry{}, false, nil
		}
		return model.CacheEntry{}, false, fmt.Errorf("cache get %s: %w", symbol, err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("cache get %s: bad price %q: %w", symbol, priceStr, err)
	}
	return model.CacheEntry{
		Record: model.PriceRecord{
			Symbol: symbol,
			Price:  price,
			AsOf:   time.Unix(asOf, 0),
			Source: model.PriceSource(source),
		},
		ExpiresAt: time.Unix(expiresAt, 0),
	}, true, nil
}

// Invalidate removes the entry for a symbol, if any.
func (s *Store) Invalidate(symbol string) error {
	unlock := s.locks.Lock(symbol)
	defer unlock()
	if _, err := s.db.Exec(`DELETE FROM price_cache WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", symbol, err)
	}
	return nil
}

// PruneExpired deletes entries whose expiry is at or before now and
// returns how many were removed.
func (s *Store) PruneExpired(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM price_cache WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.log.Info().Int64("removed", n).Msg("pruned expired cache entries")
	}
	return n, nil
}
