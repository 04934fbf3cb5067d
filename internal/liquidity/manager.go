// Package liquidity orchestrates two-asset deposits into the external pool
// and keeps the per-pair liquidity records.
package liquidity

import (
	"context"
	"errors"
	"fmt"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/ledger"
	"meme-token-ledger/internal/pool"
	"meme-token-ledger/internal/storage"
)

// DepositError wraps the underlying reason a liquidity deposit failed.
// The caller's tokens have been fully restored when it is returned.
type DepositError struct {
	Reason error
}

func (e *DepositError) Error() string {
	return fmt.Sprintf("liquidity deposit failed: %v", e.Reason)
}

func (e *DepositError) Unwrap() error {
	return e.Reason
}

// Manager coordinates token escrow, the pool deposit, and pair records.
type Manager struct {
	token  domain.Address // the token's own ledger identity
	ledger *ledger.Ledger
	pool   pool.Pool
	pairs  storage.PairLiquidityStore
}

// New creates a liquidity manager.
func New(token domain.Address, l *ledger.Ledger, p pool.Pool, pairs storage.PairLiquidityStore) *Manager {
	return &Manager{token: token, ledger: l, pool: p, pairs: pairs}
}

// AddRequest describes a liquidity deposit.
type AddRequest struct {
	Provider    domain.Address
	TokenAmount uint64 // token units pulled from the provider
	BaseAmount  uint64 // base-asset units attached to the call
	MinTokenOut uint64
	MinBaseOut  uint64
}

// AddResult reports a completed deposit.
type AddResult struct {
	Deposit     pool.DepositResult
	TokenRefund uint64 // offered token units the pool did not consume
	BaseRefund  uint64 // attached base units the pool did not consume
	Pair        *domain.PairLiquidityRecord
}

// Add reserves the provider's tokens, performs the pool deposit, and on
// success records the pair liquidity. The escrow debit is persisted before
// the external call and restored in full if the pool fails, so the ledger
// never holds a partial deposit. Unused amounts are credited back, never
// left escrowed.
func (m *Manager) Add(ctx context.Context, req AddRequest, nowMs int64) (*AddResult, error) {
	provider, err := m.ledger.Account(ctx, req.Provider)
	if err != nil {
		return nil, err
	}

	// Reserve the full offer before yielding control to the pool.
	if err := ledger.Debit(provider, req.TokenAmount); err != nil {
		return nil, err
	}
	if err := m.ledger.Save(ctx, provider); err != nil {
		return nil, fmt.Errorf("reserve tokens: %w", err)
	}

	deposit, err := m.pool.Deposit(ctx, pool.DepositRequest{
		Token:       m.token,
		TokenAmount: req.TokenAmount,
		BaseAmount:  req.BaseAmount,
		MinTokenOut: req.MinTokenOut,
		MinBaseOut:  req.MinBaseOut,
	})
	if err != nil {
		if restoreErr := m.restore(ctx, req.Provider, req.TokenAmount); restoreErr != nil {
			return nil, fmt.Errorf("restore escrow after pool failure: %w", restoreErr)
		}
		return nil, &DepositError{Reason: err}
	}

	// Return whatever the pool did not consume.
	tokenRefund := req.TokenAmount - deposit.UsedToken
	if tokenRefund > 0 {
		if err := m.restore(ctx, req.Provider, tokenRefund); err != nil {
			return nil, fmt.Errorf("refund unused tokens: %w", err)
		}
	}
	baseRefund := req.BaseAmount - deposit.UsedBase

	counter, err := m.pool.CounterAsset(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve counter asset: %w", err)
	}

	pair, err := m.pairs.Add(ctx, m.token, counter, deposit.LiquidityUnits, nowMs)
	if err != nil {
		return nil, fmt.Errorf("record pair liquidity: %w", err)
	}

	return &AddResult{
		Deposit:     deposit,
		TokenRefund: tokenRefund,
		BaseRefund:  baseRefund,
		Pair:        pair,
	}, nil
}

// PairLiquidity returns the accumulated units for a pair, 0 when the pair
// has never received a deposit.
func (m *Manager) PairLiquidity(ctx context.Context, token, counter domain.Address) (uint64, error) {
	r, err := m.pairs.Get(ctx, token, counter)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r.Units, nil
}

func (m *Manager) restore(ctx context.Context, provider domain.Address, amount uint64) error {
	acct, err := m.ledger.Account(ctx, provider)
	if err != nil {
		return err
	}
	if err := ledger.Credit(acct, amount); err != nil {
		return err
	}
	return m.ledger.Save(ctx, acct)
}
