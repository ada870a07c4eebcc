// Package sampler runs fixed-length price tracking jobs for detected tokens.
// A job is fire-and-forget: it shares nothing with the inspection loop beyond
// the price store and stops on its own after the configured duration.
package sampler

import (
	"context"
	"log"
	"time"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/observability"
	"solana-dexpaid-bot/internal/storage"
)

// Default sampling window: one sample per minute for six hours.
const (
	DefaultDuration = 6 * time.Hour
	DefaultInterval = time.Minute
)

// PairFetcher yields current pair snapshots for a token. An empty result is
// a normal outcome at any tick.
type PairFetcher interface {
	TokenPairs(ctx context.Context, chainID, tokenAddress string) []domain.PairSnapshot
}

// Sampler takes periodic price samples and appends them to the price store.
type Sampler struct {
	pairs    PairFetcher
	prices   storage.PriceStore
	chainID  string
	duration time.Duration
	interval time.Duration
	logger   *log.Logger
	metrics  *observability.Metrics
	now      func() time.Time // test hook
}

// New creates a Sampler. Non-positive duration/interval fall back to the
// defaults. logger and metrics may be nil.
func New(pairs PairFetcher, prices storage.PriceStore, chainID string, duration, interval time.Duration, logger *log.Logger, metrics *observability.Metrics) *Sampler {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		pairs:    pairs,
		prices:   prices,
		chainID:  chainID,
		duration: duration,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// TotalChecks returns the fixed number of ticks a job will run.
func (s *Sampler) TotalChecks() int {
	return int(s.duration / s.interval)
}

// Track samples the token price once per interval until the tick budget is
// spent or ctx is cancelled. Every tick writes one sample; a persistence
// failure is logged and the job keeps going, so one bad write never costs
// the rest of the stream.
func (s *Sampler) Track(ctx context.Context, tokenAddress, tokenName string) {
	total := s.TotalChecks()
	s.logf("sampler start token=%s name=%q ticks=%d interval=%s", tokenAddress, tokenName, total, s.interval)

	for i := 0; i < total; i++ {
		pairs := s.pairs.TokenPairs(ctx, s.chainID, tokenAddress)

		var price *float64
		if len(pairs) > 0 {
			price = pairs[0].PriceUSD
		}

		sample := &domain.PriceSample{
			TokenName:    tokenName,
			TokenAddress: tokenAddress,
			Timestamp:    s.now().UnixMilli(),
			PriceUSD:     price,
		}
		if err := s.prices.Insert(ctx, sample); err != nil {
			s.logf("sampler tick %d/%d token=%s persist failed: %v", i+1, total, tokenAddress, err)
			if s.metrics != nil {
				s.metrics.SamplerErrors.Inc()
			}
		}
		if s.metrics != nil {
			s.metrics.SamplerTicks.Inc()
		}

		if i == total-1 {
			break
		}
		select {
		case <-ctx.Done():
			s.logf("sampler stop token=%s after %d/%d ticks: %v", tokenAddress, i+1, total, ctx.Err())
			return
		case <-time.After(s.interval):
		}
	}

	s.logf("sampler done token=%s name=%q", tokenAddress, tokenName)
}

func (s *Sampler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
