package memory

import (
	"context"
	"errors"
	"testing"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

func testAddr(seed string) domain.Address {
	return domain.NewWalletAddress(seed)
}

func TestAccountStore_SaveAndGet(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	acct := domain.NewAccount(testAddr("alice"))
	acct.Balance = 500
	acct.Allowances[testAddr("bob")] = 100
	acct.WindowDay = 20000
	acct.WindowUsed = 250

	if err := store.Save(ctx, acct); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, acct.Address)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Balance != 500 {
		t.Errorf("Balance mismatch: got %d, want 500", got.Balance)
	}
	if got.Allowances[testAddr("bob")] != 100 {
		t.Errorf("Allowance mismatch: got %d, want 100", got.Allowances[testAddr("bob")])
	}
	if got.WindowDay != 20000 || got.WindowUsed != 250 {
		t.Errorf("Window fields mismatch: got (%d, %d)", got.WindowDay, got.WindowUsed)
	}
}

func TestAccountStore_GetNotFound(t *testing.T) {
	store := NewAccountStore()

	_, err := store.Get(context.Background(), testAddr("missing"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAccountStore_GetReturnsCopy(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	acct := domain.NewAccount(testAddr("alice"))
	acct.Balance = 100
	if err := store.Save(ctx, acct); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, _ := store.Get(ctx, acct.Address)
	got.Balance = 0
	got.Allowances[testAddr("eve")] = 999

	again, _ := store.Get(ctx, acct.Address)
	if again.Balance != 100 {
		t.Errorf("stored balance mutated through returned copy: %d", again.Balance)
	}
	if len(again.Allowances) != 0 {
		t.Errorf("stored allowances mutated through returned copy: %v", again.Allowances)
	}
}

func TestAccountStore_SaveMultiple(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	a := domain.NewAccount(testAddr("a"))
	a.Balance = 1
	b := domain.NewAccount(testAddr("b"))
	b.Balance = 2

	if err := store.Save(ctx, a, b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Address < all[i-1].Address {
			t.Errorf("List not ordered: %s < %s", all[i].Address, all[i-1].Address)
		}
	}
}

func TestAccountStore_SaveInvalidInput(t *testing.T) {
	store := NewAccountStore()
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil account, got %v", err)
	}

	valid := domain.NewAccount(testAddr("ok"))
	empty := &domain.Account{}
	if err := store.Save(ctx, valid, empty); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty address, got %v", err)
	}

	// The batch must not be partially applied.
	if _, err := store.Get(ctx, valid.Address); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no partial save, got %v", err)
	}
}
