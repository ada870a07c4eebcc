package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-dexpaid-bot/internal/domain"
	"solana-dexpaid-bot/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or updates a record keyed by token name. The conflict arm is
// a single atomic statement so a re-detection racing a concurrent upsert for
// the same name serializes at the row level.
func (s *TokenStore) Upsert(ctx context.Context, r *domain.TokenRecord) error {
	if r == nil || r.TokenName == "" {
		return storage.ErrInvalidInput
	}

	loggedAt := r.LoggedAt
	if loggedAt == 0 {
		loggedAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO tokens (
			token_name, symbol, market_cap, first_recorded_market_cap,
			all_time_high, pair_created_at, dex_paid_at, holders,
			volume_24h, has_socials, logged_at
		) VALUES ($1, $2, $3, $3, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (token_name) DO UPDATE SET
			market_cap = EXCLUDED.market_cap,
			all_time_high = GREATEST(tokens.all_time_high, EXCLUDED.market_cap),
			holders = EXCLUDED.holders,
			volume_24h = EXCLUDED.volume_24h
	`

	_, err := s.pool.Exec(ctx, query,
		r.TokenName,
		r.Symbol,
		r.MarketCap,
		r.PairCreatedAt,
		r.DexPaidAt,
		r.Holders,
		r.Volume24h,
		r.HasSocials,
		loggedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token %s: %w", r.TokenName, err)
	}
	return nil
}

// GetByName retrieves a record by token name. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByName(ctx context.Context, tokenName string) (*domain.TokenRecord, error) {
	query := `
		SELECT token_name, symbol, market_cap, first_recorded_market_cap,
		       all_time_high, pair_created_at, dex_paid_at, holders,
		       volume_24h, has_socials, logged_at
		FROM tokens
		WHERE token_name = $1
	`

	row := s.pool.QueryRow(ctx, query, tokenName)
	r, err := scanTokenRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by name: %w", err)
	}
	return r, nil
}

// scanTokenRecord scans a single row into TokenRecord.
func scanTokenRecord(row pgx.Row) (*domain.TokenRecord, error) {
	var r domain.TokenRecord

	err := row.Scan(
		&r.TokenName,
		&r.Symbol,
		&r.MarketCap,
		&r.FirstMarketCap,
		&r.AllTimeHigh,
		&r.PairCreatedAt,
		&r.DexPaidAt,
		&r.Holders,
		&r.Volume24h,
		&r.HasSocials,
		&r.LoggedAt,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}
