// Package ledger owns balance and allowance arithmetic over account storage.
// Mutations operate on in-memory account copies; callers persist a finished
// set of accounts in one atomic Save so a failed operation leaves no partial
// state behind.
package ledger

import (
	"context"
	"errors"
	"math"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/storage"
)

// Ledger errors
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAllowanceExceeded   = errors.New("allowance exceeded")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Ledger provides account access with checked arithmetic.
type Ledger struct {
	accounts storage.AccountStore
}

// New creates a ledger over an account store.
func New(accounts storage.AccountStore) *Ledger {
	return &Ledger{accounts: accounts}
}

// Account loads an account copy, or a fresh zero-balance account if the
// address has never been touched. The fresh account is not persisted until
// it is part of a Save.
func (l *Ledger) Account(ctx context.Context, addr domain.Address) (*domain.Account, error) {
	a, err := l.accounts.Get(ctx, addr)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.NewAccount(addr), nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// BalanceOf returns the balance for an address, 0 for untouched accounts.
func (l *Ledger) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	a, err := l.Account(ctx, addr)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Allowance returns the remaining allowance of spender on owner's account.
func (l *Ledger) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	a, err := l.Account(ctx, owner)
	if err != nil {
		return 0, err
	}
	return a.Allowances[spender], nil
}

// Save persists all given accounts atomically.
func (l *Ledger) Save(ctx context.Context, accounts ...*domain.Account) error {
	return l.accounts.Save(ctx, accounts...)
}

// Credit adds amount to the account balance with overflow checking.
func Credit(a *domain.Account, amount uint64) error {
	balance, err := addChecked(a.Balance, amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	return nil
}

// Debit removes amount from the account balance.
// Fails with ErrInsufficientBalance if amount exceeds the balance.
func Debit(a *domain.Account, amount uint64) error {
	if amount > a.Balance {
		return ErrInsufficientBalance
	}
	a.Balance -= amount
	return nil
}

// SetAllowance sets spender's allowance on the account. Zero removes the entry.
func SetAllowance(a *domain.Account, spender domain.Address, amount uint64) {
	if a.Allowances == nil {
		a.Allowances = make(map[domain.Address]uint64)
	}
	if amount == 0 {
		delete(a.Allowances, spender)
		return
	}
	a.Allowances[spender] = amount
}

// ConsumeAllowance reduces spender's allowance on the account by amount.
// Fails with ErrAllowanceExceeded if amount exceeds the remaining allowance.
func ConsumeAllowance(a *domain.Account, spender domain.Address, amount uint64) error {
	remaining := a.Allowances[spender]
	if amount > remaining {
		return ErrAllowanceExceeded
	}
	SetAllowance(a, spender, remaining-amount)
	return nil
}

func addChecked(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrBalanceOverflow
	}
	return a + b, nil
}
