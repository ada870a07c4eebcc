package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/storage"
	"solana-dexpaid-bot/internal/storage/postgres"
)

func TestTokenStore_UpsertAndGetByName(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTokenStore(pool)

	record := &domain.TokenRecord{
		TokenName:     "Foo",
		Symbol:        "FOO",
		MarketCap:     50000,
		PairCreatedAt: ptr(int64(1699999000000)),
		DexPaidAt:     ptr(int64(1700000000000)),
		Holders:       321,
		Volume24h:     1234.5,
		HasSocials:    true,
	}
	require.NoError(t, store.Upsert(ctx, record))

	got, err := store.GetByName(ctx, "Foo")
	require.NoError(t, err)

	assert.Equal(t, "Foo", got.TokenName)
	assert.Equal(t, "FOO", got.Symbol)
	assert.Equal(t, 50000.0, got.MarketCap)
	assert.Equal(t, 50000.0, got.FirstMarketCap)
	assert.Equal(t, 50000.0, got.AllTimeHigh)
	require.NotNil(t, got.PairCreatedAt)
	assert.Equal(t, int64(1699999000000), *got.PairCreatedAt)
	require.NotNil(t, got.DexPaidAt)
	assert.Equal(t, int64(1700000000000), *got.DexPaidAt)
	assert.Equal(t, int64(321), got.Holders)
	assert.Equal(t, 1234.5, got.Volume24h)
	assert.True(t, got.HasSocials)
	assert.NotZero(t, got.LoggedAt)
}

func TestTokenStore_UpsertConflictSemantics(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTokenStore(pool)

	require.NoError(t, store.Upsert(ctx, &domain.TokenRecord{
		TokenName: "Foo", Symbol: "FOO", MarketCap: 50000, LoggedAt: 1700000000000,
	}))
	require.NoError(t, store.Upsert(ctx, &domain.TokenRecord{
		TokenName: "Foo", Symbol: "FOO", MarketCap: 90000, Holders: 42, Volume24h: 777,
	}))

	got, err := store.GetByName(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, 90000.0, got.MarketCap)
	assert.Equal(t, 50000.0, got.FirstMarketCap, "first recorded market cap is immutable")
	assert.Equal(t, 90000.0, got.AllTimeHigh)
	assert.Equal(t, int64(42), got.Holders)
	assert.Equal(t, 777.0, got.Volume24h)
	assert.Equal(t, int64(1700000000000), got.LoggedAt, "logged_at stamped at first insert only")

	// Market cap falls back: current value follows, the high-water mark stays.
	require.NoError(t, store.Upsert(ctx, &domain.TokenRecord{
		TokenName: "Foo", Symbol: "FOO", MarketCap: 10000,
	}))

	got, err = store.GetByName(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, got.MarketCap)
	assert.Equal(t, 90000.0, got.AllTimeHigh)
	assert.GreaterOrEqual(t, got.AllTimeHigh, got.MarketCap)
}

func TestTokenStore_GetByNameNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)
	_, err := store.GetByName(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
