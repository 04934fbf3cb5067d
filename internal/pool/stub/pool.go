// Package stub provides an in-process constant-product pool for tests and
// local runs.
package stub

import (
	"context"
	"sync"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/pool"
)

// Pool is a constant-product AMM stub. On first deposit it takes both
// offered amounts in full; afterwards it trims the offer to the reserve
// ratio and mints units proportional to the reserve growth.
type Pool struct {
	mu           sync.Mutex
	counterAsset domain.Address
	tokenReserve uint64
	baseReserve  uint64
	totalUnits   uint64
	failNext     error
}

// New creates a stub pool whose counter asset is the given address.
func New(counterAsset domain.Address) *Pool {
	return &Pool{counterAsset: counterAsset}
}

// Compile-time interface check.
var _ pool.Pool = (*Pool)(nil)

// FailNext makes the next Deposit call fail with err, then clears itself.
func (p *Pool) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// Reserves returns the current pool reserves and minted units.
func (p *Pool) Reserves() (token, base, units uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenReserve, p.baseReserve, p.totalUnits
}

// CounterAsset resolves the canonical counter-asset identity.
func (p *Pool) CounterAsset(_ context.Context) (domain.Address, error) {
	return p.counterAsset, nil
}

// Deposit implements pool.Pool.
func (p *Pool) Deposit(_ context.Context, req pool.DepositRequest) (pool.DepositResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return pool.DepositResult{}, err
	}
	if req.TokenAmount == 0 || req.BaseAmount == 0 {
		return pool.DepositResult{}, pool.ErrRejected
	}

	usedToken, usedBase := req.TokenAmount, req.BaseAmount
	var minted uint64

	if p.totalUnits == 0 {
		// Bootstrap: take the full offer, mint the geometric mean.
		minted = intSqrt(usedToken) * intSqrt(usedBase)
		if minted == 0 {
			minted = 1
		}
	} else {
		// Trim the offer to the current reserve ratio.
		if wantBase := mulDiv(req.TokenAmount, p.baseReserve, p.tokenReserve); wantBase <= req.BaseAmount {
			usedBase = wantBase
		} else {
			usedToken = mulDiv(req.BaseAmount, p.tokenReserve, p.baseReserve)
		}
		if usedToken == 0 || usedBase == 0 {
			return pool.DepositResult{}, pool.ErrRejected
		}
		minted = mulDiv(usedToken, p.totalUnits, p.tokenReserve)
		if byBase := mulDiv(usedBase, p.totalUnits, p.baseReserve); byBase < minted {
			minted = byBase
		}
	}

	if usedToken < req.MinTokenOut || usedBase < req.MinBaseOut {
		return pool.DepositResult{}, pool.ErrSlippage
	}

	p.tokenReserve += usedToken
	p.baseReserve += usedBase
	p.totalUnits += minted

	return pool.DepositResult{
		UsedToken:      usedToken,
		UsedBase:       usedBase,
		LiquidityUnits: minted,
	}, nil
}

// mulDiv computes a*b/c in uint64, saturating instead of overflowing.
// Reserves in the stub stay far below the saturation point.
func mulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	if b != 0 && a > ^uint64(0)/b {
		return ^uint64(0) / c
	}
	return a * b / c
}

// intSqrt computes the integer square root by Newton iteration.
func intSqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
