// Package history is the append-only ledger of past transaction
// amounts per counterparty. The fraud detector reads and writes only
// through it.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"FinSentinel/internal/keylock"
)

// Store persists per-counterparty amount sequences in SQLite. Rows are
// only ever appended, except under an explicit per-counterparty erase.
type Store struct {
	db    *sql.DB
	locks *keylock.KeyLock
	log   zerolog.Logger
}

// NewStore wraps an open database and runs the history migrations.
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	s := &Store{
		db:    db,
		locks: keylock.New(),
		log:   log.With().Str("component", "counterparty_history").Logger(),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate counterparty history: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS counterparty_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			counterparty TEXT NOT NULL,
			amount       TEXT NOT NULL,
			recorded_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_counterparty ON counterparty_history(counterparty)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append records one transaction amount for a counterparty.
func (s *Store) Append(counterparty string, amount decimal.Decimal) error {
	unlock := s.locks.Lock(counterparty)
	defer unlock()

	_, err := s.db.Exec(
		`INSERT INTO counterparty_history (counterparty, amount, recorded_at) VALUES (?,?,?)`,
		counterparty, amount.String(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("history append %s: %w", counterparty, err)
	}
	return nil
}

// Amounts returns the counterparty's past amounts, oldest first. An
// unknown counterparty yields an empty slice, not an error.
func (s *Store) Amounts(counterparty string) ([]decimal.Decimal, error) {
	rows, err := s.db.Query(
		`SELECT amount FROM counterparty_history WHERE counterparty = ? ORDER BY id`, counterparty)
	if err != nil {
		return nil, fmt.Errorf("history read %s: %w", counterparty, err)
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("history read %s: %w", counterparty, err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("history read %s: bad amount %q: %w", counterparty, raw, err)
		}
		amounts = append(amounts, amount)
	}
	return amounts, rows.Err()
}

// Erase removes all history for a counterparty. Used for privacy
// deletion requests; afterwards the counterparty is unknown again.
func (s *Store) Erase(counterparty string) error {
	unlock := s.locks.Lock(counterparty)
	defer unlock()

	res, err := s.db.Exec(`DELETE FROM counterparty_history WHERE counterparty = ?`, counterparty)
	if err != nil {
		return fmt.Errorf("history erase %s: %w", counterparty, err)
	}
	n, _ := res.RowsAffected()
	s.log.Info().Str("counterparty", counterparty).Int64("removed", n).Msg("erased counterparty history")
	return nil
}
