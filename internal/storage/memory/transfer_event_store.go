package memory

import (
	"context"
	"sort"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// TransferEventStore is an in-memory implementation of storage.TransferEventStore.
type TransferEventStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.TransferEvent // keyed by seq
}

// NewTransferEventStore creates a new in-memory transfer event store.
func NewTransferEventStore() *TransferEventStore {
	return &TransferEventStore{
		data: make(map[int64]*domain.TransferEvent),
	}
}

// Compile-time interface check.
var _ storage.TransferEventStore = (*TransferEventStore)(nil)

// Insert appends a new event. Returns ErrDuplicateKey if seq exists.
func (s *TransferEventStore) Insert(_ context.Context, e *domain.TransferEvent) error {
	if e == nil || e.Seq <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.Seq]; exists {
		return storage.ErrDuplicateKey
	}

	eventCopy := *e
	s.data[e.Seq] = &eventCopy
	return nil
}

// GetByAccount retrieves events where addr is sender or recipient, ordered by seq ASC.
func (s *TransferEventStore) GetByAccount(_ context.Context, addr domain.Address) ([]*domain.TransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferEvent
	for _, e := range s.data {
		if e.From == addr || e.To == addr {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortBySeq(result)
	return result, nil
}

// GetByTimeRange retrieves events within [start, end] ms (inclusive), ordered by seq ASC.
func (s *TransferEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferEvent
	for _, e := range s.data {
		if e.Timestamp >= start && e.Timestamp <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortBySeq(result)
	return result, nil
}

// GetSince retrieves events with seq > afterSeq, ordered by seq ASC.
func (s *TransferEventStore) GetSince(_ context.Context, afterSeq int64) ([]*domain.TransferEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferEvent
	for _, e := range s.data {
		if e.Seq > afterSeq {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortBySeq(result)
	return result, nil
}

// LastSeq returns the highest stored seq, or 0 when empty.
func (s *TransferEventStore) LastSeq(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last int64
	for seq := range s.data {
		if seq > last {
			last = seq
		}
	}
	return last, nil
}

func sortBySeq(events []*domain.TransferEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Seq < events[j].Seq
	})
}
