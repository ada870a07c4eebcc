package clickhouse

import (
	"context"
	"fmt"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/storage"
)

// PriceStore implements storage.PriceStore using ClickHouse.
// Used when long sample retention matters more than transactional writes;
// the MergeTree table does not enforce uniqueness, which is fine for an
// append-only tick stream.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// Insert appends one price sample.
func (s *PriceStore) Insert(ctx context.Context, sample *domain.PriceSample) error {
	if sample == nil || sample.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO prices (token_name, token_address, timestamp_ms, price_usd)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(
		sample.TokenName,
		sample.TokenAddress,
		uint64(sample.Timestamp),
		sample.PriceUSD,
	); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByAddress retrieves all samples for a token address, ordered by timestamp ASC.
func (s *PriceStore) GetByAddress(ctx context.Context, tokenAddress string) ([]*domain.PriceSample, error) {
	query := `
		SELECT token_name, token_address, timestamp_ms, price_usd
		FROM prices
		WHERE token_address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query prices by address: %w", err)
	}
	defer rows.Close()

	var samples []*domain.PriceSample
	for rows.Next() {
		var (
			sample      domain.PriceSample
			timestampMs uint64
		)
		if err := rows.Scan(
			&sample.TokenName,
			&sample.TokenAddress,
			&timestampMs,
			&sample.PriceUSD,
		); err != nil {
			return nil, fmt.Errorf("scan price sample: %w", err)
		}
		sample.Timestamp = int64(timestampMs)
		samples = append(samples, &sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price samples: %w", err)
	}

	return samples, nil
}
