package memory

import (
	"context"
	"sync"
	"time"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	byName map[string]*domain.TokenRecord
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{byName: make(map[string]*domain.TokenRecord)}
}

// Upsert inserts or updates a record keyed by token name, mirroring the
// SQL conflict arm: only market_cap, all_time_high, holders and volume_24h
// change on an existing row.
func (s *TokenStore) Upsert(_ context.Context, r *domain.TokenRecord) error {
	if r == nil || r.TokenName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byName[r.TokenName]
	if !ok {
		recCopy := *r
		recCopy.FirstMarketCap = r.MarketCap
		recCopy.AllTimeHigh = r.MarketCap
		if recCopy.LoggedAt == 0 {
			recCopy.LoggedAt = time.Now().UnixMilli()
		}
		s.byName[r.TokenName] = &recCopy
		return nil
	}

	existing.MarketCap = r.MarketCap
	if r.MarketCap > existing.AllTimeHigh {
		existing.AllTimeHigh = r.MarketCap
	}
	existing.Holders = r.Holders
	existing.Volume24h = r.Volume24h
	return nil
}

// GetByName retrieves a record by token name. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByName(_ context.Context, tokenName string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byName[tokenName]
	if !ok {
		return nil, storage.ErrNotFound
	}

	recCopy := *r
	return &recCopy, nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
