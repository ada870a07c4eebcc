package watcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-dexpaid-bot/internal/dedup"
	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/sampler"
	"solana-dexpaid-bot/internal/storage"
	"solana-dexpaid-bot/internal/storage/memory"
)

type fakeVerifier struct {
	calls   atomic.Int32
	payment domain.PaymentRecord
}

func (f *fakeVerifier) CheckPaid(_ context.Context, _, _ string) domain.PaymentRecord {
	f.calls.Add(1)
	return f.payment
}

type fakeEnricher struct {
	calls     atomic.Int32
	snapshots []domain.PairSnapshot
}

func (f *fakeEnricher) TokenPairs(_ context.Context, _, _ string) []domain.PairSnapshot {
	f.calls.Add(1)
	return f.snapshots
}

func ptr[T any](v T) *T { return &v }

// fixture wires a watcher over in-memory stores with short-lived samplers.
type fixture struct {
	watcher  *Watcher
	verifier *fakeVerifier
	enricher *fakeEnricher
	cache    *dedup.SeenCache
	tokens   *memory.TokenStore
	prices   *memory.PriceStore
	registry *sampler.Registry
}

func newFixture(verifier *fakeVerifier, enricher *fakeEnricher) *fixture {
	cache := dedup.NewSeenCache(100, time.Hour)
	tokens := memory.NewTokenStore()
	prices := memory.NewPriceStore()
	registry := sampler.NewRegistry(4, nil)
	s := sampler.New(enricher, prices, "solana", time.Millisecond, time.Millisecond, nil, nil)

	w := New(Options{
		Verifier: verifier,
		Enricher: enricher,
		Cache:    cache,
		Tokens:   tokens,
		Sampler:  s,
		Registry: registry,
		Config:   Config{EnrichDelay: -1},
	})
	return &fixture{
		watcher:  w,
		verifier: verifier,
		enricher: enricher,
		cache:    cache,
		tokens:   tokens,
		prices:   prices,
		registry: registry,
	}
}

func TestInspect_PaidTokenIsRecordedAndSampled(t *testing.T) {
	paidAt := int64(1700000000000)
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true, PaymentTimestamp: &paidAt}}
	enricher := &fakeEnricher{snapshots: []domain.PairSnapshot{{
		Name:       "Foo",
		Symbol:     "FOO",
		MarketCap:  50_000,
		Holders:    120,
		Volume24h:  9_000,
		HasSocials: true,
		PriceUSD:   ptr(0.0005),
	}}}
	f := newFixture(verifier, enricher)

	ctx := context.Background()
	f.watcher.Inspect(ctx, []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}})
	f.registry.Wait()

	record, err := f.tokens.GetByName(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, "FOO", record.Symbol)
	assert.Equal(t, 50_000.0, record.MarketCap)
	assert.Equal(t, 50_000.0, record.FirstMarketCap)
	assert.Equal(t, 50_000.0, record.AllTimeHigh)
	require.NotNil(t, record.DexPaidAt)
	assert.Equal(t, paidAt, *record.DexPaidAt)
	assert.Equal(t, int64(120), record.Holders)
	assert.True(t, record.HasSocials)
	assert.NotZero(t, record.LoggedAt)

	samples, err := f.prices.GetByAddress(ctx, "Tkn1")
	require.NoError(t, err)
	require.NotEmpty(t, samples, "sampler must have produced at least one sample")
	assert.Equal(t, "Foo", samples[0].TokenName)

	stats := f.watcher.Stats()
	assert.Equal(t, int64(1), stats.TokensScanned)
	assert.Equal(t, int64(1), stats.DexPaidSniped)
	assert.False(t, stats.LastDetection.IsZero())
}

func TestInspect_SecondPassShortCircuitsAtCache(t *testing.T) {
	paidAt := int64(1700000000000)
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true, PaymentTimestamp: &paidAt}}
	enricher := &fakeEnricher{snapshots: []domain.PairSnapshot{{Name: "Foo", Symbol: "FOO", MarketCap: 50_000}}}
	f := newFixture(verifier, enricher)

	ctx := context.Background()
	profiles := []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}}

	f.watcher.Inspect(ctx, profiles)
	f.registry.Wait()
	require.Equal(t, int32(1), f.verifier.calls.Load())

	f.watcher.Inspect(ctx, profiles)
	f.registry.Wait()

	assert.Equal(t, int32(1), f.verifier.calls.Load(), "cached address must not be re-verified")
	stats := f.watcher.Stats()
	assert.Equal(t, int64(2), stats.TokensScanned)
	assert.Equal(t, int64(1), stats.DexPaidSniped)
}

func TestInspect_UnpaidTokenStaysEligible(t *testing.T) {
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: false}}
	enricher := &fakeEnricher{}
	f := newFixture(verifier, enricher)

	ctx := context.Background()
	profiles := []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}}

	f.watcher.Inspect(ctx, profiles)
	f.watcher.Inspect(ctx, profiles)

	assert.Equal(t, int32(2), f.verifier.calls.Load(), "unpaid token is re-verified every cycle")
	assert.False(t, f.cache.Contains(ctx, "Tkn1"))
	assert.Equal(t, int64(0), f.watcher.Stats().DexPaidSniped)
}

func TestInspect_NoPairsAbandonsButKeepsCacheEntry(t *testing.T) {
	paidAt := int64(1700000000000)
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true, PaymentTimestamp: &paidAt}}
	enricher := &fakeEnricher{} // no pairs
	f := newFixture(verifier, enricher)

	ctx := context.Background()
	profiles := []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}}

	f.watcher.Inspect(ctx, profiles)

	assert.True(t, f.cache.Contains(ctx, "Tkn1"), "abandoned token stays parked for the TTL window")
	assert.Equal(t, int64(0), f.watcher.Stats().DexPaidSniped)
	assert.Equal(t, 0, f.registry.ActiveCount())

	// Within the window the verifier is not consulted again.
	f.watcher.Inspect(ctx, profiles)
	assert.Equal(t, int32(1), f.verifier.calls.Load())
}

func TestInspect_MarketCapCeilingSuppressesWriteOnly(t *testing.T) {
	paidAt := int64(1700000000000)
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true, PaymentTimestamp: &paidAt}}
	enricher := &fakeEnricher{snapshots: []domain.PairSnapshot{{Name: "Whale", Symbol: "WHL", MarketCap: 100_001}}}
	f := newFixture(verifier, enricher)

	ctx := context.Background()
	f.watcher.Inspect(ctx, []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}})
	f.registry.Wait()

	_, err := f.tokens.GetByName(ctx, "Whale")
	assert.ErrorIs(t, err, storage.ErrNotFound, "over-ceiling record must never be persisted")

	// The detection itself still counts and its price stream is tracked.
	assert.Equal(t, int64(1), f.watcher.Stats().DexPaidSniped)
	samples, err := f.prices.GetByAddress(ctx, "Tkn1")
	require.NoError(t, err)
	assert.NotEmpty(t, samples)
}

func TestInspect_FiltersMalformedAndForeignProfiles(t *testing.T) {
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true}}
	enricher := &fakeEnricher{}
	f := newFixture(verifier, enricher)

	f.watcher.Inspect(context.Background(), []domain.TokenProfile{
		{TokenAddress: "", ChainID: "solana"},
		{TokenAddress: "Tkn1", ChainID: ""},
		{TokenAddress: "0xdeadbeef", ChainID: "ethereum"},
		{TokenAddress: "bad0address", ChainID: "solana"}, // '0' is outside the base58 alphabet
	})

	assert.Equal(t, int32(0), f.verifier.calls.Load())
	assert.Equal(t, int64(4), f.watcher.Stats().TokensScanned)
}

func TestInspect_AthTracksRepeatedUpserts(t *testing.T) {
	paidAt := int64(1700000000000)
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true, PaymentTimestamp: &paidAt}}
	enricher := &fakeEnricher{snapshots: []domain.PairSnapshot{{Name: "Foo", Symbol: "FOO", MarketCap: 50_000}}}
	f := newFixture(verifier, enricher)

	ctx := context.Background()

	f.watcher.Inspect(ctx, []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}})
	f.registry.Wait()

	// Market cap dips on the next sighting of the same token name.
	enricher.snapshots = []domain.PairSnapshot{{Name: "Foo", Symbol: "FOO", MarketCap: 30_000}}
	f.watcher.Inspect(ctx, []domain.TokenProfile{{TokenAddress: "Tkn2", ChainID: "solana"}})
	f.registry.Wait()

	record, err := f.tokens.GetByName(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, 30_000.0, record.MarketCap)
	assert.Equal(t, 50_000.0, record.FirstMarketCap, "first recorded cap is immutable")
	assert.Equal(t, 50_000.0, record.AllTimeHigh, "ATH never decreases")
}

func TestInspect_WaitsBeforeEnrichment(t *testing.T) {
	paidAt := int64(1700000000000)
	verifier := &fakeVerifier{payment: domain.PaymentRecord{Paid: true, PaymentTimestamp: &paidAt}}
	enricher := &fakeEnricher{snapshots: []domain.PairSnapshot{{Name: "Foo", Symbol: "FOO", MarketCap: 50_000}}}
	f := newFixture(verifier, enricher)
	f.watcher.cfg.EnrichDelay = 30 * time.Millisecond

	start := time.Now()
	f.watcher.Inspect(context.Background(), []domain.TokenProfile{{TokenAddress: "Tkn1", ChainID: "solana"}})
	f.registry.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond,
		"pair fetch must wait for the listing to settle")
	assert.Equal(t, int64(1), f.watcher.Stats().DexPaidSniped)
}

func TestConfigDefaults(t *testing.T) {
	w := New(Options{})

	assert.Equal(t, DefaultChainID, w.cfg.ChainID)
	assert.Equal(t, DefaultPollInterval, w.cfg.PollInterval)
	assert.Equal(t, float64(DefaultMaxMarketCap), w.cfg.MaxMarketCap)
	assert.Equal(t, DefaultEnrichDelay, w.cfg.EnrichDelay)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	verifier := &fakeVerifier{}
	enricher := &fakeEnricher{}
	f := newFixture(verifier, enricher)
	f.watcher.cfg.PollInterval = time.Millisecond
	f.watcher.feed = feedFunc(func(context.Context) ([]domain.TokenProfile, error) {
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.watcher.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

type feedFunc func(ctx context.Context) ([]domain.TokenProfile, error)

func (f feedFunc) LatestProfiles(ctx context.Context) ([]domain.TokenProfile, error) {
	return f(ctx)
}
