package domain

import (
	"errors"
	"fmt"
)

// MaxTaxRate is the highest accepted tax rate in integer percent.
const MaxTaxRate = 100

// TokenConfig holds construction-time token parameters.
// Immutable after the token is created.
type TokenConfig struct {
	Name          string
	Symbol        string
	TaxRate       uint64  // integer percent, 0..100
	TaxWallet     Address // collector of the transfer tax
	MaxTxAmount   uint64  // maximum single-transfer amount
	DailyTxLimit  uint64  // maximum cumulative amount per address per day
	TokenAddress  Address // the token's own ledger identity, used in pair keys
	Owner         Address // receives the initial supply
	InitialSupply uint64
}

// ErrInvalidConfig is returned when construction-time validation fails.
var ErrInvalidConfig = errors.New("invalid token configuration")

// Validate checks all construction-time invariants.
func (c *TokenConfig) Validate() error {
	if c.Name == "" || c.Symbol == "" {
		return fmt.Errorf("%w: name and symbol are required", ErrInvalidConfig)
	}
	if c.TaxRate > MaxTaxRate {
		return fmt.Errorf("%w: tax rate %d exceeds %d%%", ErrInvalidConfig, c.TaxRate, MaxTaxRate)
	}
	if !c.TaxWallet.Valid() {
		return fmt.Errorf("%w: tax wallet is not a valid address", ErrInvalidConfig)
	}
	if !c.TaxWallet.IsOnCurve() {
		return fmt.Errorf("%w: tax wallet must be an on-curve wallet address", ErrInvalidConfig)
	}
	if c.MaxTxAmount == 0 {
		return fmt.Errorf("%w: max tx amount must be positive", ErrInvalidConfig)
	}
	if c.DailyTxLimit == 0 {
		return fmt.Errorf("%w: daily tx limit must be positive", ErrInvalidConfig)
	}
	if !c.TokenAddress.Valid() {
		return fmt.Errorf("%w: token address is not a valid address", ErrInvalidConfig)
	}
	if !c.Owner.Valid() {
		return fmt.Errorf("%w: owner is not a valid address", ErrInvalidConfig)
	}
	return nil
}
