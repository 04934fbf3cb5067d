package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// TransferEventStore implements storage.TransferEventStore using PostgreSQL.
type TransferEventStore struct {
	pool *Pool
}

// NewTransferEventStore creates a new TransferEventStore.
func NewTransferEventStore(pool *Pool) *TransferEventStore {
	return &TransferEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferEventStore = (*TransferEventStore)(nil)

const transferEventColumns = `seq, from_address, to_address, gross, net, tax, timestamp`

// Insert appends a new event. Returns ErrDuplicateKey if seq exists.
func (s *TransferEventStore) Insert(ctx context.Context, e *domain.TransferEvent) error {
	query := `
		INSERT INTO transfer_events (seq, from_address, to_address, gross, net, tax, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Seq,
		string(e.From),
		string(e.To),
		e.Gross,
		e.Net,
		e.Tax,
		e.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transfer event: %w", err)
	}
	return nil
}

// GetByAccount retrieves all events where the address is sender or
// recipient, ordered by seq ASC.
func (s *TransferEventStore) GetByAccount(ctx context.Context, addr domain.Address) ([]*domain.TransferEvent, error) {
	query := `
		SELECT ` + transferEventColumns + `
		FROM transfer_events
		WHERE from_address = $1 OR to_address = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, string(addr))
	if err != nil {
		return nil, fmt.Errorf("get transfer events by account: %w", err)
	}
	defer rows.Close()

	return scanTransferEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] ms (inclusive),
// ordered by seq ASC.
func (s *TransferEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransferEvent, error) {
	query := `
		SELECT ` + transferEventColumns + `
		FROM transfer_events
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get transfer events by time range: %w", err)
	}
	defer rows.Close()

	return scanTransferEvents(rows)
}

// GetSince retrieves events with seq > afterSeq, ordered by seq ASC.
func (s *TransferEventStore) GetSince(ctx context.Context, afterSeq int64) ([]*domain.TransferEvent, error) {
	query := `
		SELECT ` + transferEventColumns + `
		FROM transfer_events
		WHERE seq > $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("get transfer events since seq: %w", err)
	}
	defer rows.Close()

	return scanTransferEvents(rows)
}

// LastSeq returns the highest stored seq, or 0 when empty.
func (s *TransferEventStore) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM transfer_events`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last transfer seq: %w", err)
	}
	return seq, nil
}

// scanTransferEvents scans multiple rows into a slice of TransferEvent.
func scanTransferEvents(rows pgx.Rows) ([]*domain.TransferEvent, error) {
	var events []*domain.TransferEvent

	for rows.Next() {
		var e domain.TransferEvent
		err := rows.Scan(
			&e.Seq,
			&e.From,
			&e.To,
			&e.Gross,
			&e.Net,
			&e.Tax,
			&e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transfer event row: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer event rows: %w", err)
	}

	return events, nil
}
