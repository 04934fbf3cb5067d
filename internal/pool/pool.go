// Package pool defines the interface consumed from the external
// automated-market-maker collaborator. Only the deposit and counter-asset
// surface is specified here; the pool implementation itself lives outside
// the ledger.
package pool

import (
	"context"
	"errors"

	"meme-token-ledger/internal/domain"
)

// Pool errors
var (
	// ErrSlippage is returned when the post-ratio amounts fall below the
	// caller's minimum-out guards.
	ErrSlippage = errors.New("deposit amounts below minimum-out guards")

	// ErrRejected is returned when the pool refuses the deposit outright.
	ErrRejected = errors.New("pool rejected deposit")
)

// DepositRequest offers two asset amounts to the pool with slippage guards.
type DepositRequest struct {
	Token       domain.Address // token side of the pair
	TokenAmount uint64         // token units offered
	BaseAmount  uint64         // base-asset units offered
	MinTokenOut uint64         // minimum token units the pool must accept
	MinBaseOut  uint64         // minimum base units the pool must accept
}

// DepositResult reports what the pool actually consumed and minted.
// The pool may use less than offered to maintain its reserve ratio; the
// difference is returned to the caller.
type DepositResult struct {
	UsedToken      uint64
	UsedBase       uint64
	LiquidityUnits uint64
}

// Pool is the deposit/quote interface of the AMM collaborator.
type Pool interface {
	// Deposit offers both assets to the pool. A non-nil error means nothing
	// was taken; a nil error means exactly the Used amounts were taken.
	Deposit(ctx context.Context, req DepositRequest) (DepositResult, error)

	// CounterAsset resolves the canonical counter-asset identity used in
	// pair keys.
	CounterAsset(ctx context.Context) (domain.Address, error)
}
