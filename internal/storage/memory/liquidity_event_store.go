package memory

import (
	"context"
	"sort"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// LiquidityEventStore is an in-memory implementation of storage.LiquidityEventStore.
type LiquidityEventStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.LiquidityEvent // keyed by seq
}

// NewLiquidityEventStore creates a new in-memory liquidity event store.
func NewLiquidityEventStore() *LiquidityEventStore {
	return &LiquidityEventStore{
		data: make(map[int64]*domain.LiquidityEvent),
	}
}

// Compile-time interface check.
var _ storage.LiquidityEventStore = (*LiquidityEventStore)(nil)

// Insert appends a new event. Returns ErrDuplicateKey if seq exists.
func (s *LiquidityEventStore) Insert(_ context.Context, e *domain.LiquidityEvent) error {
	if e == nil || e.Seq <= 0 || e.Provider == "" {
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

// GetByProvider retrieves all events for a provider, ordered by seq ASC.
func (s *LiquidityEventStore) GetByProvider(_ context.Context, provider domain.Address) ([]*domain.LiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquidityEvent
	for _, e := range s.data {
		if e.Provider == provider {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortLiquidityBySeq(result)
	return result, nil
}

// GetByTimeRange retrieves events within [start, end] ms (inclusive), ordered by seq ASC.
func (s *LiquidityEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.LiquidityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquidityEvent
	for _, e := range s.data {
		if e.Timestamp >= start && e.Timestamp <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortLiquidityBySeq(result)
	return result, nil
}

// LastSeq returns the highest stored seq, or 0 when empty.
func (s *LiquidityEventStore) LastSeq(_ context.Context) (int64, error) {
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

func sortLiquidityBySeq(events []*domain.LiquidityEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Seq < events[j].Seq
	})
}
