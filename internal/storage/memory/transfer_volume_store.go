package memory

import (
	"context"
	"sort"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// TransferVolumeStore is an in-memory implementation of storage.TransferVolumeStore.
// Points with the same day key are summed, mirroring the ClickHouse
// SummingMergeTree behavior of the production store.
type TransferVolumeStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.TransferVolumePoint // keyed by day start ms
}

// NewTransferVolumeStore creates a new in-memory transfer volume store.
func NewTransferVolumeStore() *TransferVolumeStore {
	return &TransferVolumeStore{
		data: make(map[int64]*domain.TransferVolumePoint),
	}
}

// Compile-time interface check.
var _ storage.TransferVolumeStore = (*TransferVolumeStore)(nil)

// InsertBulk adds aggregate points; points for an existing day are summed.
func (s *TransferVolumeStore) InsertBulk(_ context.Context, points []*domain.TransferVolumePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.DayStartMs < 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		existing, ok := s.data[p.DayStartMs]
		if !ok {
			pointCopy := *p
			s.data[p.DayStartMs] = &pointCopy
			continue
		}
		existing.Transfers += p.Transfers
		existing.Gross += p.Gross
		existing.Net += p.Net
		existing.Tax += p.Tax
	}

	return nil
}

// GetByTimeRange retrieves merged per-day points within [start, end] ms.
func (s *TransferVolumeStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TransferVolumePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferVolumePoint
	for _, p := range s.data {
		if p.DayStartMs >= start && p.DayStartMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DayStartMs < result[j].DayStartMs
	})

	return result, nil
}
