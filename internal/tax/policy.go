// Package tax computes the transfer-tax split.
package tax

import "math/bits"

// Policy splits a gross transfer amount into the net amount delivered to
// the recipient and the tax diverted to the collector. Pure; it never
// touches balances itself.
type Policy struct {
	rate uint64 // integer percent, 0..100, validated at config time
}

// NewPolicy creates a policy for a tax rate in integer percent.
func NewPolicy(rate uint64) Policy {
	return Policy{rate: rate}
}

// Rate returns the configured tax rate in integer percent.
func (p Policy) Rate() uint64 {
	return p.rate
}

// Apply returns (net, tax) with tax = floor(gross * rate / 100).
// The multiplication goes through a 128-bit intermediate, so no gross
// amount can overflow. Amounts too small to produce a tax unit pass
// through untaxed.
func (p Policy) Apply(gross uint64) (net, taxAmount uint64) {
	hi, lo := bits.Mul64(gross, p.rate)
	// hi < 100 always holds for rate <= 100, so Div64 cannot panic.
	taxAmount, _ = bits.Div64(hi, lo, 100)
	return gross - taxAmount, taxAmount
}
