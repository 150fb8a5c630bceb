package history

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"FinSentinel/internal/sqlite"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := NewStore(db, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestAppendAndAmounts_Ordered(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "history.db"))

	for _, v := range []int64{100, 110, 95} {
		require.NoError(t, store.Append("ConEd", decimal.NewFromInt(v)))
	}

	amounts, err := store.Amounts("ConEd")
	require.NoError(t, err)
	require.Len(t, amounts, 3)
	require.True(t, amounts[0].Equal(decimal.NewFromInt(100)))
	require.True(t, amounts[2].Equal(decimal.NewFromInt(95)))
}

func TestAmounts_UnknownCounterparty(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "history.db"))

	amounts, err := store.Amounts("nobody")
	require.NoError(t, err)
	require.Empty(t, amounts)
}

func TestErase_RemovesOnlyThatKey(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "history.db"))

	require.NoError(t, store.Append("Verizon", decimal.NewFromInt(80)))
	require.NoError(t, store.Append("Landlord", decimal.NewFromInt(2000)))

	require.NoError(t, store.Erase("Verizon"))

	amounts, err := store.Amounts("Verizon")
	require.NoError(t, err)
	require.Empty(t, amounts)

	amounts, err = store.Amounts("Landlord")
	require.NoError(t, err)
	require.Len(t, amounts, 1)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first := newTestStore(t, path)
	require.NoError(t, first.Append("Landlord", decimal.NewFromInt(2000)))

	second := newTestStore(t, path)
	amounts, err := second.Amounts("Landlord")
	require.NoError(t, err)
	require.Len(t, amounts, 1)
}

func TestAppend_ConcurrentSameKey(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "history.db"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, store.Append("Gym", decimal.NewFromInt(45)))
		}()
	}
	wg.Wait()

	amounts, err := store.Amounts("Gym")
	require.NoError(t, err)
	require.Len(t, amounts, 20)
}
