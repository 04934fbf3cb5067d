package storage

import (
	"context"

	"meme-token-ledger/internal/domain"
)

// AccountStore provides access to accounts storage.
type AccountStore interface {
	// Get retrieves an account by address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, addr domain.Address) (*domain.Account, error)

	// Save upserts all given accounts as a single atomic unit: either every
	// account (including its allowances) is persisted, or none is.
	Save(ctx context.Context, accounts ...*domain.Account) error

	// List retrieves all accounts, ordered by address ASC.
	List(ctx context.Context) ([]*domain.Account, error)
}

// PairLiquidityStore provides access to pair_liquidity storage.
type PairLiquidityStore interface {
	// Get retrieves the record for a pair key. Returns ErrNotFound if no
	// deposit has been recorded for the pair.
	Get(ctx context.Context, token, counter domain.Address) (*domain.PairLiquidityRecord, error)

	// Add additively records liquidity units for a pair, creating the record
	// on first deposit, and returns the updated record.
	Add(ctx context.Context, token, counter domain.Address, units uint64, nowMs int64) (*domain.PairLiquidityRecord, error)

	// List retrieves all pair records, ordered by (token, counter) ASC.
	List(ctx context.Context) ([]*domain.PairLiquidityRecord, error)
}

// TransferEventStore provides access to transfer_events storage.
type TransferEventStore interface {
	// Insert appends a new event. Returns ErrDuplicateKey if seq exists.
	Insert(ctx context.Context, e *domain.TransferEvent) error

	// GetByAccount retrieves all events where the address is sender or
	// recipient, ordered by seq ASC.
	GetByAccount(ctx context.Context, addr domain.Address) ([]*domain.TransferEvent, error)

	// GetByTimeRange retrieves events within [start, end] ms (inclusive),
	// ordered by seq ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransferEvent, error)

	// GetSince retrieves events with seq > afterSeq, ordered by seq ASC.
	GetSince(ctx context.Context, afterSeq int64) ([]*domain.TransferEvent, error)

	// LastSeq returns the highest stored seq, or 0 when empty.
	LastSeq(ctx context.Context) (int64, error)
}

// LiquidityEventStore provides access to liquidity_events storage.
type LiquidityEventStore interface {
	// Insert appends a new event. Returns ErrDuplicateKey if seq exists.
	Insert(ctx context.Context, e *domain.LiquidityEvent) error

	// GetByProvider retrieves all events for a provider, ordered by seq ASC.
	GetByProvider(ctx context.Context, provider domain.Address) ([]*domain.LiquidityEvent, error)

	// GetByTimeRange retrieves events within [start, end] ms (inclusive),
	// ordered by seq ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LiquidityEvent, error)

	// LastSeq returns the highest stored seq, or 0 when empty.
	LastSeq(ctx context.Context) (int64, error)
}

// TransferVolumeStore provides access to transfer_volume_daily storage.
// Inserts are additive per day, so partial aggregates may be flushed
// repeatedly for the same day.
type TransferVolumeStore interface {
	// InsertBulk adds aggregate points; points for an existing day are
	// summed into it.
	InsertBulk(ctx context.Context, points []*domain.TransferVolumePoint) error

	// GetByTimeRange retrieves merged per-day points with day start within
	// [start, end] ms (inclusive), ordered by day ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransferVolumePoint, error)
}
