package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage/memory"
)

func TestCreditDebit(t *testing.T) {
	a := domain.NewAccount(domain.NewWalletAddress("alice"))

	if err := Credit(a, 500); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if err := Debit(a, 200); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if a.Balance != 300 {
		t.Errorf("Balance mismatch: got %d, want 300", a.Balance)
	}
}

func TestDebit_InsufficientBalance(t *testing.T) {
	a := domain.NewAccount(domain.NewWalletAddress("alice"))
	a.Balance = 100

	err := Debit(a, 101)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Expected ErrInsufficientBalance, got %v", err)
	}
	if a.Balance != 100 {
		t.Errorf("Failed debit mutated balance: %d", a.Balance)
	}
}

func TestCredit_Overflow(t *testing.T) {
	a := domain.NewAccount(domain.NewWalletAddress("alice"))
	a.Balance = math.MaxUint64 - 1

	if err := Credit(a, 1); err != nil {
		t.Fatalf("Credit to max failed: %v", err)
	}
	err := Credit(a, 1)
	if !errors.Is(err, ErrBalanceOverflow) {
		t.Errorf("Expected ErrBalanceOverflow, got %v", err)
	}
	if a.Balance != math.MaxUint64 {
		t.Errorf("Failed credit mutated balance: %d", a.Balance)
	}
}

func TestAllowances(t *testing.T) {
	a := domain.NewAccount(domain.NewWalletAddress("owner"))
	spender := domain.NewWalletAddress("spender")

	SetAllowance(a, spender, 100)
	if a.Allowances[spender] != 100 {
		t.Fatalf("Allowance not set: %d", a.Allowances[spender])
	}

	if err := ConsumeAllowance(a, spender, 60); err != nil {
		t.Fatalf("ConsumeAllowance failed: %v", err)
	}
	if a.Allowances[spender] != 40 {
		t.Errorf("Allowance mismatch after consume: got %d, want 40", a.Allowances[spender])
	}

	err := ConsumeAllowance(a, spender, 41)
	if !errors.Is(err, ErrAllowanceExceeded) {
		t.Errorf("Expected ErrAllowanceExceeded, got %v", err)
	}

	// Consuming the rest removes the entry.
	if err := ConsumeAllowance(a, spender, 40); err != nil {
		t.Fatalf("ConsumeAllowance failed: %v", err)
	}
	if _, exists := a.Allowances[spender]; exists {
		t.Errorf("Zero allowance entry not removed")
	}
}

func TestConsumeAllowance_NoAllowance(t *testing.T) {
	a := domain.NewAccount(domain.NewWalletAddress("owner"))

	err := ConsumeAllowance(a, domain.NewWalletAddress("spender"), 1)
	if !errors.Is(err, ErrAllowanceExceeded) {
		t.Errorf("Expected ErrAllowanceExceeded, got %v", err)
	}
}

func TestLedger_AccountUntouched(t *testing.T) {
	l := New(memory.NewAccountStore())
	ctx := context.Background()
	addr := domain.NewWalletAddress("fresh")

	a, err := l.Account(ctx, addr)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if a.Balance != 0 || a.Address != addr {
		t.Errorf("Fresh account wrong: %+v", a)
	}

	// Until saved, the store must not know the account.
	balance, err := l.BalanceOf(ctx, addr)
	if err != nil || balance != 0 {
		t.Errorf("BalanceOf fresh account: %d, %v", balance, err)
	}
}

func TestLedger_SaveRoundTrip(t *testing.T) {
	l := New(memory.NewAccountStore())
	ctx := context.Background()

	owner := domain.NewWalletAddress("owner")
	spender := domain.NewWalletAddress("spender")

	a, _ := l.Account(ctx, owner)
	if err := Credit(a, 1000); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	SetAllowance(a, spender, 250)

	if err := l.Save(ctx, a); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	balance, err := l.BalanceOf(ctx, owner)
	if err != nil || balance != 1000 {
		t.Errorf("BalanceOf: got %d, %v", balance, err)
	}
	allowance, err := l.Allowance(ctx, owner, spender)
	if err != nil || allowance != 250 {
		t.Errorf("Allowance: got %d, %v", allowance, err)
	}
}
