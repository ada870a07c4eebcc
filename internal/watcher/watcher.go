// Package watcher drives the detection pipeline: poll the discovery feed,
// verify payment status for fresh candidates, persist qualifying tokens and
// hand each one to a price sampling job.
package watcher

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"solana-dexpaid-bot/internal/dedup"
	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/observability"
	"solana-dexpaid-bot/internal/sampler"
	"solana-dexpaid-bot/internal/storage"
)

// Defaults matching the original deployment.
const (
	DefaultChainID      = "solana"
	DefaultPollInterval = time.Second
	DefaultMaxMarketCap = 100_000 // USD; the bot only cares about low caps
	DefaultEnrichDelay  = 3 * time.Second
)

// FeedSource yields the latest token profiles from the discovery feed.
type FeedSource interface {
	LatestProfiles(ctx context.Context) ([]domain.TokenProfile, error)
}

// PaymentVerifier reports whether a token's listing payment is approved.
type PaymentVerifier interface {
	CheckPaid(ctx context.Context, chainID, tokenAddress string) domain.PaymentRecord
}

// PairEnricher yields current pair snapshots for a token.
type PairEnricher interface {
	TokenPairs(ctx context.Context, chainID, tokenAddress string) []domain.PairSnapshot
}

// Config holds the watcher tunables.
type Config struct {
	ChainID      string        // target chain, default "solana"
	PollInterval time.Duration // feed poll period, default 1s
	MaxMarketCap float64       // upsert ceiling in USD, default 100k
	EnrichDelay  time.Duration // wait before the pair fetch, default 3s, negative disables
}

// Stats is a snapshot of the watcher's process-wide counters.
type Stats struct {
	TokensScanned int64
	DexPaidSniped int64
	LastDetection time.Time // zero until the first detection
}

// Options for creating a Watcher.
type Options struct {
	Feed     FeedSource
	Verifier PaymentVerifier
	Enricher PairEnricher
	Cache    dedup.Cache
	Tokens   storage.TokenStore
	Sampler  *sampler.Sampler
	Registry *sampler.Registry
	Config   Config
	Logger   *log.Logger
	Metrics  *observability.Metrics
}

// Watcher owns the inspection loop. Single writer for the dedup cache and
// the counters; samplers it launches only share the price store.
type Watcher struct {
	feed     FeedSource
	verifier PaymentVerifier
	enricher PairEnricher
	cache    dedup.Cache
	tokens   storage.TokenStore
	sampler  *sampler.Sampler
	registry *sampler.Registry
	cfg      Config
	logger   *log.Logger
	metrics  *observability.Metrics

	mu    sync.RWMutex
	stats Stats
}

// New creates a Watcher. Zero Config fields fall back to the defaults.
func New(opts Options) *Watcher {
	cfg := opts.Config
	if cfg.ChainID == "" {
		cfg.ChainID = DefaultChainID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxMarketCap <= 0 {
		cfg.MaxMarketCap = DefaultMaxMarketCap
	}
	if cfg.EnrichDelay == 0 {
		cfg.EnrichDelay = DefaultEnrichDelay
	}
	return &Watcher{
		feed:     opts.Feed,
		verifier: opts.Verifier,
		enricher: opts.Enricher,
		cache:    opts.Cache,
		tokens:   opts.Tokens,
		sampler:  opts.Sampler,
		registry: opts.Registry,
		cfg:      cfg,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Run polls the feed once per PollInterval until ctx is cancelled.
// There is no failure path out of the loop: a cycle with no data is logged
// and the next tick proceeds.
func (w *Watcher) Run(ctx context.Context) error {
	w.logf("watcher started chain=%s poll=%s ceiling=%.0f", w.cfg.ChainID, w.cfg.PollInterval, w.cfg.MaxMarketCap)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	lastStatsLog := time.Now()
	for {
		w.pollOnce(ctx)

		if time.Since(lastStatsLog) >= time.Minute {
			s := w.Stats()
			w.logf("stats scanned=%d sniped=%d last_detection=%s active_samplers=%d",
				s.TokensScanned, s.DexPaidSniped, formatDetection(s.LastDetection), w.registry.ActiveCount())
			lastStatsLog = time.Now()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pollOnce fetches the latest profiles and inspects them.
func (w *Watcher) pollOnce(ctx context.Context) {
	if w.metrics != nil {
		w.metrics.PollCycles.Inc()
	}

	profiles, err := w.feed.LatestProfiles(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		w.logf("poll: no feed data: %v", err)
		if w.metrics != nil {
			w.metrics.PollFailures.Inc()
		}
		return
	}

	if len(profiles) > 0 {
		w.Inspect(ctx, profiles)
	}
}

// Inspect processes candidates in feed order. Errors on one candidate never
// block the rest of the pass.
func (w *Watcher) Inspect(ctx context.Context, profiles []domain.TokenProfile) {
	for _, profile := range profiles {
		w.bumpScanned()

		addr, chain := profile.TokenAddress, profile.ChainID
		switch {
		case addr == "" || chain == "":
			w.skip(observability.SkipMissingFields)
			continue
		case chain != w.cfg.ChainID:
			w.skip(observability.SkipWrongChain)
			continue
		case chain == "solana" && !validBase58(addr):
			w.logf("inspect: dropping malformed address %q", addr)
			w.skip(observability.SkipBadAddress)
			continue
		case w.cache.Contains(ctx, addr):
			w.skip(observability.SkipCacheHit)
			continue
		}

		payment := w.verifier.CheckPaid(ctx, chain, addr)
		if !payment.Paid {
			// Not cached: the candidate stays eligible for the next cycle.
			w.skip(observability.SkipNotPaid)
			continue
		}

		// Mark processed before enrichment so an overlapping cycle cannot
		// double-process the same address.
		w.cache.Insert(ctx, addr)

		// Fresh listings often have no pair yet at the instant the payment
		// clears; give the screener a moment before fetching.
		if w.cfg.EnrichDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.cfg.EnrichDelay):
			}
		}

		pairs := w.enricher.TokenPairs(ctx, chain, addr)
		if len(pairs) == 0 {
			// The cache entry stays: this token is parked for a full TTL
			// window even though nothing was persisted.
			w.logf("inspect: paid token %s has no usable pairs, abandoning until cache expiry", addr)
			w.skip(observability.SkipNoPairs)
			continue
		}

		// First pair is treated as the primary one.
		record := recordFromPair(pairs[0], payment)

		// The ceiling only suppresses the row write. The token still counts
		// as a detection and its price stream is still tracked.
		if record.MarketCap > w.cfg.MaxMarketCap {
			w.logf("inspect: not recording %q market cap %.0f exceeds ceiling %.0f",
				record.TokenName, record.MarketCap, w.cfg.MaxMarketCap)
			w.skip(observability.SkipCapCeiling)
		} else if err := w.tokens.Upsert(ctx, record); err != nil {
			// Best-effort: the sampler still runs so the price stream exists
			// even when the record write failed.
			w.logf("inspect: upsert %q failed: %v", record.TokenName, err)
			if w.metrics != nil {
				w.metrics.StoreErrors.Inc()
			}
		} else if w.metrics != nil {
			w.metrics.TokenUpserts.Inc()
		}

		if err := w.registry.Launch(ctx, w.sampler, addr, record.TokenName); err != nil {
			w.logf("inspect: sampler for %s not launched: %v", addr, err)
		}

		w.bumpSniped()
		w.logf("sniped dex-paid token name=%q symbol=%q address=%s market_cap=%.0f",
			record.TokenName, record.Symbol, addr, record.MarketCap)
	}
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// recordFromPair derives the persisted record from the primary pair and the
// payment details.
func recordFromPair(p domain.PairSnapshot, payment domain.PaymentRecord) *domain.TokenRecord {
	return &domain.TokenRecord{
		TokenName:     p.Name,
		Symbol:        p.Symbol,
		MarketCap:     p.MarketCap,
		PairCreatedAt: p.PairCreatedAt,
		DexPaidAt:     payment.PaymentTimestamp,
		Holders:       p.Holders,
		Volume24h:     p.Volume24h,
		HasSocials:    p.HasSocials,
	}
}

// validBase58 reports whether the address survives a base58 decode. The feed
// occasionally carries garbage; decoding catches characters outside the
// alphabet without constraining length.
func validBase58(addr string) bool {
	_, err := base58.Decode(addr)
	return err == nil
}

func (w *Watcher) bumpScanned() {
	w.mu.Lock()
	w.stats.TokensScanned++
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.TokensScanned.Inc()
	}
}

func (w *Watcher) bumpSniped() {
	now := time.Now()
	w.mu.Lock()
	w.stats.DexPaidSniped++
	w.stats.LastDetection = now
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.DexPaidSniped.Inc()
		w.metrics.LastDetectionTime.Set(float64(now.Unix()))
	}
}

func (w *Watcher) skip(reason string) {
	if w.metrics != nil {
		w.metrics.CandidatesSkipped.WithLabelValues(reason).Inc()
	}
}

func (w *Watcher) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

func formatDetection(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
