package memory

import (
	"context"
	"sort"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[domain.Address]*domain.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		data: make(map[domain.Address]*domain.Account),
	}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Get retrieves an account by address. Returns ErrNotFound if not exists.
func (s *AccountStore) Get(_ context.Context, addr domain.Address) (*domain.Account, error) {
	if addr == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[addr]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return a.Clone(), nil
}

// Save upserts all given accounts as a single atomic unit.
func (s *AccountStore) Save(_ context.Context, accounts ...*domain.Account) error {
	for _, a := range accounts {
		if a == nil || a.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range accounts {
		s.data[a.Address] = a.Clone()
	}
	return nil
}

// List retrieves all accounts, ordered by address ASC.
func (s *AccountStore) List(_ context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Account, 0, len(s.data))
	for _, a := range s.data {
		result = append(result, a.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return result, nil
}
