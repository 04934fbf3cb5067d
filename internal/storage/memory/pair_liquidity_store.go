package memory

import (
	"context"
	"sort"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// PairLiquidityStore is an in-memory implementation of storage.PairLiquidityStore.
type PairLiquidityStore struct {
	mu   sync.RWMutex
	data map[pairKey]*domain.PairLiquidityRecord
}

type pairKey struct {
	token   domain.Address
	counter domain.Address
}

// NewPairLiquidityStore creates a new in-memory pair liquidity store.
func NewPairLiquidityStore() *PairLiquidityStore {
	return &PairLiquidityStore{
		data: make(map[pairKey]*domain.PairLiquidityRecord),
	}
}

// Compile-time interface check.
var _ storage.PairLiquidityStore = (*PairLiquidityStore)(nil)

// Get retrieves the record for a pair key. Returns ErrNotFound if not exists.
func (s *PairLiquidityStore) Get(_ context.Context, token, counter domain.Address) (*domain.PairLiquidityRecord, error) {
	if token == "" || counter == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[pairKey{token, counter}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// Add additively records liquidity units for a pair.
func (s *PairLiquidityStore) Add(_ context.Context, token, counter domain.Address, units uint64, nowMs int64) (*domain.PairLiquidityRecord, error) {
	if token == "" || counter == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{token, counter}
	r, exists := s.data[key]
	if !exists {
		r = &domain.PairLiquidityRecord{Token: token, CounterAsset: counter}
		s.data[key] = r
	}

	r.Units += units
	r.UpdatedAt = nowMs

	recordCopy := *r
	return &recordCopy, nil
}

// List retrieves all pair records, ordered by (token, counter) ASC.
func (s *PairLiquidityStore) List(_ context.Context) ([]*domain.PairLiquidityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PairLiquidityRecord, 0, len(s.data))
	for _, r := range s.data {
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Token != result[j].Token {
			return result[i].Token < result[j].Token
		}
		return result[i].CounterAsset < result[j].CounterAsset
	})

	return result, nil
}
