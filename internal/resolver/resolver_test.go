package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"FinSentinel/internal/cache"
	"FinSentinel/internal/model"
	"FinSentinel/internal/provider"
	"FinSentinel/internal/sqlite"
)

func newTestCache(t *testing.T, ttl time.Duration) *cache.Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store, err := cache.NewStore(db, ttl, zerolog.Nop())
	require.NoError(t, err)
	return store
}

// slowProvider blocks until its context expires, simulating an
// unreachable endpoint.
type slowProvider struct{}

func (s *slowProvider) Name() string              { return "slow" }
func (s *slowProvider) Source() model.PriceSource { return model.SourcePrimary }
func (s *slowProvider) Fetch(ctx context.Context, _ string) (model.Quote, error) {
	<-ctx.Done()
	return model.Quote{}, ctx.Err()
}

func TestResolve_PrimarySuccess(t *testing.T) {
	store := newTestCache(t, time.Hour)
	primary := &provider.MockProvider{
		ProviderName: "primary", SourceLabel: model.SourcePrimary,
		Price: decimal.NewFromInt(100),
	}
	secondary := &provider.MockProvider{
		ProviderName: "secondary", SourceLabel: model.SourceSecondaryIntraday,
		Price: decimal.NewFromInt(999),
	}
	r := New([]provider.Provider{primary, secondary}, store, time.Second, zerolog.Nop())

	rec, err := r.Resolve(context.Background(), "nvda")
	require.NoError(t, err)
	require.Equal(t, "NVDA", rec.Symbol)
	require.Equal(t, model.SourcePrimary, rec.Source)
	require.False(t, rec.Stale)
	require.Equal(t, 0, secondary.Calls, "secondary must not be tried after primary succeeds")

	entry, ok, err := store.Get("NVDA")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, entry.Record.Price.Equal(decimal.NewFromInt(100)))
}

func TestResolve_FallsBackToSecondaryAndCaches(t *testing.T) {
	store := newTestCache(t, time.Hour)
	primary := &provider.MockProvider{
		ProviderName: "primary", SourceLabel: model.SourcePrimary,
		Err: errors.New("connection refused"),
	}
	secondary := &provider.MockProvider{
		ProviderName: "secondary", SourceLabel: model.SourceSecondaryIntraday,
		Price: decimal.NewFromFloat(101.5),
	}
	r := New([]provider.Provider{primary, secondary}, store, time.Second, zerolog.Nop())

	rec, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, model.SourceSecondaryIntraday, rec.Source)

	entry, ok, err := store.Get("AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.SourceSecondaryIntraday, entry.Record.Source)

	// Within TTL with every provider disabled, the cached record is
	// returned unchanged, labeled as cache.
	primary.Err = errors.New("down")
	secondary.Err = errors.New("down")
	cached, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, model.SourceCache, cached.Source)
	require.False(t, cached.Stale)
	require.True(t, cached.Price.Equal(rec.Price))
}

func TestResolve_ExpiredEntryServedStale(t *testing.T) {
	store := newTestCache(t, time.Hour)
	require.NoError(t, store.Put(model.PriceRecord{
		Symbol: "IBM",
		Price:  decimal.NewFromInt(140),
		AsOf:   time.Now().Add(-2 * time.Hour), // expired an hour ago
		Source: model.SourcePrimary,
	}))

	down := &provider.MockProvider{ProviderName: "primary", Err: errors.New("down")}
	r := New([]provider.Provider{down}, store, time.Second, zerolog.Nop())

	rec, err := r.Resolve(context.Background(), "IBM")
	require.NoError(t, err)
	require.Equal(t, model.SourceCache, rec.Source)
	require.True(t, rec.Stale)
	require.True(t, rec.Price.Equal(decimal.NewFromInt(140)))
}

func TestResolve_AllExhausted(t *testing.T) {
	store := newTestCache(t, time.Hour)
	r := New([]provider.Provider{
		&provider.MockProvider{ProviderName: "primary", Err: errors.New("down")},
		&provider.MockProvider{ProviderName: "secondary", Err: errors.New("down")},
	}, store, time.Second, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "DELISTED")
	var failure *ResolutionFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "DELISTED", failure.Symbol)
	require.Equal(t, []string{"primary", "secondary"}, failure.Attempted)

	// Failure paths leave no cache side effects.
	_, ok, getErr := store.Get("DELISTED")
	require.NoError(t, getErr)
	require.False(t, ok)
}

func TestResolve_TimeoutAdvancesChain(t *testing.T) {
	store := newTestCache(t, time.Hour)
	fallback := &provider.MockProvider{
		ProviderName: "fallback", SourceLabel: model.SourceSecondaryClose,
		Price: decimal.NewFromInt(55),
	}
	r := New([]provider.Provider{&slowProvider{}, fallback}, store, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	rec, err := r.Resolve(context.Background(), "SPY")
	require.NoError(t, err)
	require.Equal(t, model.SourceSecondaryClose, rec.Source)
	require.Less(t, time.Since(start), time.Second, "timeout must bound the stalled provider")
}

func TestInvalidate(t *testing.T) {
	store := newTestCache(t, time.Hour)
	ok := &provider.MockProvider{ProviderName: "primary", Price: decimal.NewFromInt(10)}
	r := New([]provider.Provider{ok}, store, time.Second, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "VTI")
	require.NoError(t, err)
	require.NoError(t, r.Invalidate("vti"))

	ok.Err = errors.New("down")
	_, err = r.Resolve(context.Background(), "VTI")
	var failure *ResolutionFailure
	require.ErrorAs(t, err, &failure)
}
