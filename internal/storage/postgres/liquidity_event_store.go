package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// LiquidityEventStore implements storage.LiquidityEventStore using PostgreSQL.
type LiquidityEventStore struct {
	pool *Pool
}

// NewLiquidityEventStore creates a new LiquidityEventStore.
func NewLiquidityEventStore(pool *Pool) *LiquidityEventStore {
	return &LiquidityEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LiquidityEventStore = (*LiquidityEventStore)(nil)

const liquidityEventColumns = `seq, provider, pair_token, pair_counter, token_used, base_used, liquidity_units, token_refund, base_refund, timestamp`

// Insert appends a new event. Returns ErrDuplicateKey if seq exists.
func (s *LiquidityEventStore) Insert(ctx context.Context, e *domain.LiquidityEvent) error {
	query := `
		INSERT INTO liquidity_events (` + liquidityEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Seq,
		string(e.Provider),
		string(e.PairToken),
		string(e.PairCounter),
		e.TokenUsed,
		e.BaseUsed,
		e.LiquidityUnits,
		e.TokenRefund,
		e.BaseRefund,
		e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert liquidity event: %w", err)
	}
	return nil
}

// GetByProvider retrieves all events for a provider, ordered by seq ASC.
func (s *LiquidityEventStore) GetByProvider(ctx context.Context, provider domain.Address) ([]*domain.LiquidityEvent, error) {
	query := `
		SELECT ` + liquidityEventColumns + `
		FROM liquidity_events
		WHERE provider = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, string(provider))
	if err != nil {
		return nil, fmt.Errorf("get liquidity events by provider: %w", err)
	}
	defer rows.Close()

	return scanLiquidityEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] ms (inclusive),
// ordered by seq ASC.
func (s *LiquidityEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LiquidityEvent, error) {
	query := `
		SELECT ` + liquidityEventColumns + `
		FROM liquidity_events
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get liquidity events by time range: %w", err)
	}
	defer rows.Close()

	return scanLiquidityEvents(rows)
}

// LastSeq returns the highest stored seq, or 0 when empty.
func (s *LiquidityEventStore) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM liquidity_events`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last liquidity seq: %w", err)
	}
	return seq, nil
}

// scanLiquidityEvents scans multiple rows into a slice of LiquidityEvent.
func scanLiquidityEvents(rows pgx.Rows) ([]*domain.LiquidityEvent, error) {
	var events []*domain.LiquidityEvent

	for rows.Next() {
		var e domain.LiquidityEvent
		err := rows.Scan(
			&e.Seq,
			&e.Provider,
			&e.PairToken,
			&e.PairCounter,
			&e.TokenUsed,
			&e.BaseUsed,
			&e.LiquidityUnits,
			&e.TokenRefund,
			&e.BaseRefund,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan liquidity event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity event rows: %w", err)
	}

	return events, nil
}
