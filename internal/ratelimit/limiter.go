// Package ratelimit enforces per-address transfer limits: a fixed maximum
// single-transaction amount and a rolling daily cumulative amount cap.
package ratelimit

import (
	"errors"

	"meme-token-ledger/internal/domain"
)

// Limiter errors
var (
	ErrMaxTxAmount = errors.New("amount exceeds max single-transaction limit")
	ErrDailyLimit  = errors.New("amount exceeds daily cumulative limit")
)

const secondsPerDay = 86400

// Limiter checks and records per-account transfer amounts.
// The daily limit is an amount cap: the sum of gross amounts transferred by
// an address within one day window must not exceed it.
type Limiter struct {
	maxTxAmount uint64
	dailyLimit  uint64
}

// New creates a limiter from the configured limits.
func New(maxTxAmount, dailyLimit uint64) *Limiter {
	return &Limiter{maxTxAmount: maxTxAmount, dailyLimit: dailyLimit}
}

// DayIndex returns the day window index for a Unix timestamp in seconds.
func DayIndex(epochSeconds int64) int64 {
	return epochSeconds / secondsPerDay
}

// CheckAndRecord validates amount against both limits and records it into
// the account's rolling window. The window counter is lazily reset when the
// day index has advanced since the account was last touched. The account is
// mutated in memory only; persisting it together with the balance deltas is
// the caller's responsibility, which keeps check-and-record indivisible.
func (l *Limiter) CheckAndRecord(a *domain.Account, amount uint64, nowEpochSeconds int64) error {
	if amount > l.maxTxAmount {
		return ErrMaxTxAmount
	}

	day := DayIndex(nowEpochSeconds)
	if day != a.WindowDay {
		a.WindowDay = day
		a.WindowUsed = 0
	}

	// Formulated without addition so the check cannot overflow.
	if amount > l.dailyLimit || a.WindowUsed > l.dailyLimit-amount {
		return ErrDailyLimit
	}

	a.WindowUsed += amount
	return nil
}
