// Package token is the externally callable surface of the ledger: transfers
// with tax and rate limits, allowances, and liquidity provisioning.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/ledger"
	"meme-token-ledger/internal/liquidity"
	"meme-token-ledger/internal/observability"
	"meme-token-ledger/internal/pool"
	"meme-token-ledger/internal/ratelimit"
	"meme-token-ledger/internal/storage"
	"meme-token-ledger/internal/tax"
)

// Facade errors
var (
	ErrInvalidAmount = errors.New("amount must be positive")
)

// EventSink receives events after they are persisted. Implementations must
// not block; delivery failures never affect ledger state.
type EventSink interface {
	TransferEmitted(e *domain.TransferEvent)
	LiquidityEmitted(e *domain.LiquidityEvent)
}

// Options contains the collaborators for creating a Token.
type Options struct {
	Accounts        storage.AccountStore
	Pairs           storage.PairLiquidityStore
	TransferEvents  storage.TransferEventStore
	LiquidityEvents storage.LiquidityEventStore
	Pool            pool.Pool
	Sink            EventSink        // optional
	Now             func() time.Time // optional, defaults to time.Now
}

// Token composes the ledger, rate limiter, tax policy and liquidity manager
// behind a serialized call surface. One mutation executes to completion
// before the next begins; there is no partial-success mode.
type Token struct {
	cfg       domain.TokenConfig
	accounts  storage.AccountStore
	ledger    *ledger.Ledger
	limiter   *ratelimit.Limiter
	policy    tax.Policy
	liquidity *liquidity.Manager

	transferEvents  storage.TransferEventStore
	liquidityEvents storage.LiquidityEventStore
	sink            EventSink
	now             func() time.Time

	mu      sync.Mutex
	nextSeq int64
}

// New validates the configuration, wires the components, and performs the
// genesis mint of the initial supply to the owner. The mint happens only
// when the owner account does not exist yet, so reconstructing a Token over
// existing storage does not inflate supply.
func New(ctx context.Context, cfg domain.TokenConfig, opts Options) (*Token, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Accounts == nil || opts.Pairs == nil || opts.TransferEvents == nil ||
		opts.LiquidityEvents == nil || opts.Pool == nil {
		return nil, errors.New("token: all stores and the pool are required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	led := ledger.New(opts.Accounts)
	t := &Token{
		cfg:             cfg,
		accounts:        opts.Accounts,
		ledger:          led,
		limiter:         ratelimit.New(cfg.MaxTxAmount, cfg.DailyTxLimit),
		policy:          tax.NewPolicy(cfg.TaxRate),
		liquidity:       liquidity.New(cfg.TokenAddress, led, opts.Pool, opts.Pairs),
		transferEvents:  opts.TransferEvents,
		liquidityEvents: opts.LiquidityEvents,
		sink:            opts.Sink,
		now:             now,
	}

	if err := t.mintGenesis(ctx); err != nil {
		return nil, fmt.Errorf("genesis mint: %w", err)
	}
	if err := t.resumeSeq(ctx); err != nil {
		return nil, fmt.Errorf("resume event sequence: %w", err)
	}

	return t, nil
}

// Config returns the construction-time configuration.
func (t *Token) Config() domain.TokenConfig {
	return t.cfg
}

// TotalSupply returns the fixed global supply. Tax redirects balances, it
// never burns, so the supply is the initial mint.
func (t *Token) TotalSupply() uint64 {
	return t.cfg.InitialSupply
}

// BalanceOf returns the balance of an address.
func (t *Token) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	return t.ledger.BalanceOf(ctx, addr)
}

// Allowance returns the remaining allowance of spender on owner's balance.
func (t *Token) Allowance(ctx context.Context, owner, spender domain.Address) (uint64, error) {
	return t.ledger.Allowance(ctx, owner, spender)
}

// PairLiquidity returns the accumulated liquidity units for a pair key.
func (t *Token) PairLiquidity(ctx context.Context, token, counter domain.Address) (uint64, error) {
	return t.liquidity.PairLiquidity(ctx, token, counter)
}

// Transfer moves amount from the sender to the recipient, applying the
// rate limits on the gross amount and the tax split. Returns the emitted
// event on success.
func (t *Token) Transfer(ctx context.Context, from, to domain.Address, amount uint64) (*domain.TransferEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.transfer(ctx, domain.TransferIntent{From: from, To: to, Gross: amount}, "", false)
}

// Approve sets spender's allowance on the owner's balance.
func (t *Token) Approve(ctx context.Context, owner, spender domain.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !owner.Valid() || !spender.Valid() {
		return domain.ErrInvalidAddress
	}

	acct, err := t.ledger.Account(ctx, owner)
	if err != nil {
		return err
	}
	ledger.SetAllowance(acct, spender, amount)
	if err := t.ledger.Save(ctx, acct); err != nil {
		return fmt.Errorf("save allowance: %w", err)
	}

	observability.RecordApproval()
	return nil
}

// TransferFrom moves amount from `from` to `to` on behalf of spender,
// consuming the allowance atomically with the transfer itself.
func (t *Token) TransferFrom(ctx context.Context, spender, from, to domain.Address, amount uint64) (*domain.TransferEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !spender.Valid() {
		return nil, domain.ErrInvalidAddress
	}
	return t.transfer(ctx, domain.TransferIntent{From: from, To: to, Gross: amount}, spender, true)
}

// AddLiquidityForBaseAsset deposits tokenAmount plus the attached
// baseAmount into the pool. Liquidity deposits bypass the tax and rate
// limits; they are not transfers.
func (t *Token) AddLiquidityForBaseAsset(ctx context.Context, provider domain.Address, tokenAmount, minTokenOut, minBaseOut, baseAmount uint64) (*domain.LiquidityEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tokenAmount == 0 {
		observability.RecordLiquidityDeposit("rejected")
		return nil, ErrInvalidAmount
	}
	if !provider.Valid() {
		return nil, domain.ErrInvalidAddress
	}

	nowMs := t.now().UnixMilli()
	res, err := t.liquidity.Add(ctx, liquidity.AddRequest{
		Provider:    provider,
		TokenAmount: tokenAmount,
		BaseAmount:  baseAmount,
		MinTokenOut: minTokenOut,
		MinBaseOut:  minBaseOut,
	}, nowMs)
	if err != nil {
		observability.RecordLiquidityDeposit("failed")
		return nil, err
	}

	event := &domain.LiquidityEvent{
		Seq:            t.nextSeq,
		Provider:       provider,
		PairToken:      res.Pair.Token,
		PairCounter:    res.Pair.CounterAsset,
		TokenUsed:      res.Deposit.UsedToken,
		BaseUsed:       res.Deposit.UsedBase,
		LiquidityUnits: res.Deposit.LiquidityUnits,
		TokenRefund:    res.TokenRefund,
		BaseRefund:     res.BaseRefund,
		Timestamp:      nowMs,
	}
	if err := t.liquidityEvents.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("record liquidity event: %w", err)
	}
	t.nextSeq++

	observability.RecordLiquidityDeposit("success")
	observability.RecordLiquidityUnits(res.Deposit.LiquidityUnits)
	if t.sink != nil {
		t.sink.LiquidityEmitted(event)
	}
	return event, nil
}

// transfer runs the fixed mutation order: rate-limit check+record on the
// gross amount, tax split, then the three-way balance mutation. All loaded
// accounts are mutated as copies and persisted in one atomic save, so any
// failure leaves no observable state change.
func (t *Token) transfer(ctx context.Context, intent domain.TransferIntent, spender domain.Address, useAllowance bool) (*domain.TransferEvent, error) {
	if intent.Gross == 0 {
		observability.RecordTransferRejected("invalid_amount")
		return nil, ErrInvalidAmount
	}
	if !intent.From.Valid() || !intent.To.Valid() {
		observability.RecordTransferRejected("invalid_address")
		return nil, domain.ErrInvalidAddress
	}

	now := t.now()
	set := newAccountSet(t.ledger)

	sender, err := set.load(ctx, intent.From)
	if err != nil {
		return nil, err
	}

	if useAllowance {
		if err := ledger.ConsumeAllowance(sender, spender, intent.Gross); err != nil {
			observability.RecordTransferRejected("allowance_exceeded")
			return nil, err
		}
	}

	if err := t.limiter.CheckAndRecord(sender, intent.Gross, now.Unix()); err != nil {
		observability.RecordTransferRejected(rejectionLabel(err))
		return nil, err
	}

	net, taxAmount := t.policy.Apply(intent.Gross)

	recipient, err := set.load(ctx, intent.To)
	if err != nil {
		return nil, err
	}
	collector, err := set.load(ctx, t.cfg.TaxWallet)
	if err != nil {
		return nil, err
	}

	if err := ledger.Debit(sender, intent.Gross); err != nil {
		observability.RecordTransferRejected("insufficient_balance")
		return nil, err
	}
	if err := ledger.Credit(recipient, net); err != nil {
		return nil, err
	}
	if err := ledger.Credit(collector, taxAmount); err != nil {
		return nil, err
	}

	if err := t.ledger.Save(ctx, set.all()...); err != nil {
		return nil, fmt.Errorf("apply balance deltas: %w", err)
	}

	event := &domain.TransferEvent{
		Seq:       t.nextSeq,
		From:      intent.From,
		To:        intent.To,
		Gross:     intent.Gross,
		Net:       net,
		Tax:       taxAmount,
		Timestamp: now.UnixMilli(),
	}
	if err := t.transferEvents.Insert(ctx, event); err != nil {
		// Undo the balance deltas so the call has no observable effect.
		if restoreErr := t.ledger.Save(ctx, set.originals()...); restoreErr != nil {
			return nil, fmt.Errorf("restore after event failure: %w", restoreErr)
		}
		return nil, fmt.Errorf("record transfer event: %w", err)
	}
	t.nextSeq++

	observability.RecordTransfer(taxAmount)
	if t.sink != nil {
		t.sink.TransferEmitted(event)
	}
	return event, nil
}

// mintGenesis credits the initial supply to the owner, but only when the
// owner account has never been persisted. Reopening a Token over existing
// storage therefore does not inflate supply.
func (t *Token) mintGenesis(ctx context.Context) error {
	_, err := t.accounts.Get(ctx, t.cfg.Owner)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	owner := domain.NewAccount(t.cfg.Owner)
	if err := ledger.Credit(owner, t.cfg.InitialSupply); err != nil {
		return err
	}
	return t.ledger.Save(ctx, owner)
}

func (t *Token) resumeSeq(ctx context.Context) error {
	tSeq, err := t.transferEvents.LastSeq(ctx)
	if err != nil {
		return err
	}
	lSeq, err := t.liquidityEvents.LastSeq(ctx)
	if err != nil {
		return err
	}
	t.nextSeq = max(tSeq, lSeq) + 1
	return nil
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ratelimit.ErrMaxTxAmount):
		return "max_tx_amount"
	case errors.Is(err, ratelimit.ErrDailyLimit):
		return "daily_limit"
	default:
		return "other"
	}
}

// accountSet loads account copies at most once per address, so a transfer
// where recipient and collector alias the same account mutates one record.
type accountSet struct {
	ledger *ledger.Ledger
	loaded map[domain.Address]*domain.Account
	prior  map[domain.Address]*domain.Account
}

func newAccountSet(l *ledger.Ledger) *accountSet {
	return &accountSet{
		ledger: l,
		loaded: make(map[domain.Address]*domain.Account),
		prior:  make(map[domain.Address]*domain.Account),
	}
}

func (s *accountSet) load(ctx context.Context, addr domain.Address) (*domain.Account, error) {
	if a, ok := s.loaded[addr]; ok {
		return a, nil
	}
	a, err := s.ledger.Account(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.loaded[addr] = a
	s.prior[addr] = a.Clone()
	return a, nil
}

func (s *accountSet) all() []*domain.Account {
	result := make([]*domain.Account, 0, len(s.loaded))
	for _, a := range s.loaded {
		result = append(result, a)
	}
	return result
}

func (s *accountSet) originals() []*domain.Account {
	result := make([]*domain.Account, 0, len(s.prior))
	for _, a := range s.prior {
		result = append(result, a)
	}
	return result
}
