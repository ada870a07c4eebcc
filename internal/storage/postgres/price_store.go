package postgres

import (
	"context"
	"fmt"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/storage"
)

// PriceStore implements storage.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *Pool
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// Insert appends one price sample.
func (s *PriceStore) Insert(ctx context.Context, sample *domain.PriceSample) error {
	if sample == nil || sample.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO prices (token_name, token_address, timestamp_ms, price_usd)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		sample.TokenName,
		sample.TokenAddress,
		sample.Timestamp,
		sample.PriceUSD,
	)
	if err != nil {
		return fmt.Errorf("insert price sample for %s: %w", sample.TokenAddress, err)
	}
	return nil
}

// GetByAddress retrieves all samples for a token address, ordered by timestamp ASC.
func (s *PriceStore) GetByAddress(ctx context.Context, tokenAddress string) ([]*domain.PriceSample, error) {
	query := `
		SELECT token_name, token_address, timestamp_ms, price_usd
		FROM prices
		WHERE token_address = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query prices by address: %w", err)
	}
	defer rows.Close()

	var samples []*domain.PriceSample
	for rows.Next() {
		var sample domain.PriceSample
		if err := rows.Scan(
			&sample.TokenName,
			&sample.TokenAddress,
			&sample.Timestamp,
			&sample.PriceUSD,
		); err != nil {
			return nil, fmt.Errorf("scan price sample: %w", err)
		}
		samples = append(samples, &sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price samples: %w", err)
	}

	return samples, nil
}
