package storage

import (
	"context"

	"solana-dexpaid-bot/internal/domain"
)

// TokenStore provides access to the tokens table.
type TokenStore interface {
	// Upsert inserts or updates a record keyed by token name.
	//
	// On first insert, first_recorded_market_cap and all_time_high are both
	// initialized from r.MarketCap, and logged_at is stamped (r.LoggedAt, or
	// the current time when zero). On conflict, only market_cap, holders and
	// volume_24h are updated, and all_time_high is raised to
	// max(existing, r.MarketCap); first_recorded_market_cap and logged_at
	// never change. r.FirstMarketCap and r.AllTimeHigh are ignored as inputs.
	Upsert(ctx context.Context, r *domain.TokenRecord) error

	// GetByName retrieves a record by token name. Returns ErrNotFound if
	// not exists.
	GetByName(ctx context.Context, tokenName string) (*domain.TokenRecord, error)
}

// PriceStore provides access to the prices table. Append-only.
type PriceStore interface {
	// Insert appends one price sample.
	Insert(ctx context.Context, s *domain.PriceSample) error

	// GetByAddress retrieves all samples for a token address, ordered by
	// timestamp ASC.
	GetByAddress(ctx context.Context, tokenAddress string) ([]*domain.PriceSample, error)
}
