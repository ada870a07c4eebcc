package memory

import (
	"context"
	"sort"
	"sync"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu        sync.RWMutex
	byAddress map[string][]*domain.PriceSample
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{byAddress: make(map[string][]*domain.PriceSample)}
}

// Insert appends one price sample.
func (s *PriceStore) Insert(_ context.Context, sample *domain.PriceSample) error {
	if sample == nil || sample.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sampleCopy := *sample
	s.byAddress[sample.TokenAddress] = append(s.byAddress[sample.TokenAddress], &sampleCopy)
	return nil
}

// GetByAddress retrieves all samples for a token address, ordered by timestamp ASC.
func (s *PriceStore) GetByAddress(_ context.Context, tokenAddress string) ([]*domain.PriceSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := s.byAddress[tokenAddress]
	out := make([]*domain.PriceSample, len(samples))
	for i, sample := range samples {
		sampleCopy := *sample
		out[i] = &sampleCopy
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

var _ storage.PriceStore = (*PriceStore)(nil)
