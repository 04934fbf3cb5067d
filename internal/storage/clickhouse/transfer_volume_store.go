package clickhouse

import (
	"context"
	"fmt"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// TransferVolumeStore implements storage.TransferVolumeStore using ClickHouse.
//
// The backing table uses SummingMergeTree, so inserting several partial
// points for the same day is equivalent to inserting their sum. Queries
// aggregate explicitly because background merges are asynchronous.
type TransferVolumeStore struct {
	conn *Conn
}

// NewTransferVolumeStore creates a new TransferVolumeStore.
func NewTransferVolumeStore(conn *Conn) *TransferVolumeStore {
	return &TransferVolumeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransferVolumeStore = (*TransferVolumeStore)(nil)

// InsertBulk adds aggregate points; points for an existing day are summed
// into it by the table engine.
func (s *TransferVolumeStore) InsertBulk(ctx context.Context, points []*domain.TransferVolumePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO transfer_volume_daily (day_start_ms, transfers, gross, net, tax)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(p.DayStartMs, p.Transfers, p.Gross, p.Net, p.Tax)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves merged per-day points with day start within
// [start, end] ms (inclusive), ordered by day ASC.
func (s *TransferVolumeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransferVolumePoint, error) {
	query := `
		SELECT day_start_ms, sum(transfers), sum(gross), sum(net), sum(tax)
		FROM transfer_volume_daily
		WHERE day_start_ms >= ? AND day_start_ms <= ?
		GROUP BY day_start_ms
		ORDER BY day_start_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query volume by time range: %w", err)
	}
	defer rows.Close()

	var points []*domain.TransferVolumePoint
	for rows.Next() {
		var p domain.TransferVolumePoint
		if err := rows.Scan(&p.DayStartMs, &p.Transfers, &p.Gross, &p.Net, &p.Tax); err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume rows: %w", err)
	}

	return points, nil
}
