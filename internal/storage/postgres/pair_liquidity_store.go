package postgres

import (
	"context"
	"fmt"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// PairLiquidityStore implements storage.PairLiquidityStore using PostgreSQL.
type PairLiquidityStore struct {
	pool *Pool
}

// NewPairLiquidityStore creates a new PairLiquidityStore.
func NewPairLiquidityStore(pool *Pool) *PairLiquidityStore {
	return &PairLiquidityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairLiquidityStore = (*PairLiquidityStore)(nil)

// Get retrieves the record for a pair key. Returns ErrNotFound if no
// deposit has been recorded for the pair.
func (s *PairLiquidityStore) Get(ctx context.Context, token, counter domain.Address) (*domain.PairLiquidityRecord, error) {
	query := `
		SELECT token_address, counter_asset, units, updated_at
		FROM pair_liquidity
		WHERE token_address = $1 AND counter_asset = $2
	`

	var r domain.PairLiquidityRecord
	err := s.pool.QueryRow(ctx, query, string(token), string(counter)).Scan(
		&r.Token,
		&r.CounterAsset,
		&r.Units,
		&r.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pair liquidity: %w", err)
	}

	return &r, nil
}

// Add additively records liquidity units for a pair and returns the
// updated record. The upsert makes the addition atomic.
func (s *PairLiquidityStore) Add(ctx context.Context, token, counter domain.Address, units uint64, nowMs int64) (*domain.PairLiquidityRecord, error) {
	if !token.Valid() || !counter.Valid() {
		return nil, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pair_liquidity (token_address, counter_asset, units, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_address, counter_asset) DO UPDATE SET
			units = pair_liquidity.units + EXCLUDED.units,
			updated_at = EXCLUDED.updated_at
		RETURNING token_address, counter_asset, units, updated_at
	`

	var r domain.PairLiquidityRecord
	err := s.pool.QueryRow(ctx, query, string(token), string(counter), units, nowMs).Scan(
		&r.Token,
		&r.CounterAsset,
		&r.Units,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add pair liquidity: %w", err)
	}

	return &r, nil
}

// List retrieves all pair records, ordered by (token, counter) ASC.
func (s *PairLiquidityStore) List(ctx context.Context) ([]*domain.PairLiquidityRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token_address, counter_asset, units, updated_at
		FROM pair_liquidity
		ORDER BY token_address ASC, counter_asset ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pair liquidity: %w", err)
	}
	defer rows.Close()

	var records []*domain.PairLiquidityRecord
	for rows.Next() {
		var r domain.PairLiquidityRecord
		if err := rows.Scan(&r.Token, &r.CounterAsset, &r.Units, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pair liquidity row: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair liquidity rows: %w", err)
	}

	return records, nil
}
