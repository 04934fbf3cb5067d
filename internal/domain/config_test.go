package domain

import (
	"errors"
	"testing"
)

func validConfig() TokenConfig {
	return TokenConfig{
		Name:          "Test Token",
		Symbol:        "TST",
		TaxRate:       5,
		TaxWallet:     NewWalletAddress("tax-wallet"),
		MaxTxAmount:   1000,
		DailyTxLimit:  10000,
		TokenAddress:  NewWalletAddress("token"),
		Owner:         NewWalletAddress("owner"),
		InitialSupply: 1_000_000,
	}
}

func TestTokenConfig_Validate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestTokenConfig_Validate_Rejections(t *testing.T) {
	offCurve := findOffCurveAddress(t)

	cases := []struct {
		name   string
		mutate func(*TokenConfig)
	}{
		{"missing name", func(c *TokenConfig) { c.Name = "" }},
		{"missing symbol", func(c *TokenConfig) { c.Symbol = "" }},
		{"tax rate above 100", func(c *TokenConfig) { c.TaxRate = 101 }},
		{"zero tax wallet", func(c *TokenConfig) { c.TaxWallet = AddressFromBytes(make([]byte, AddressLength)) }},
		{"empty tax wallet", func(c *TokenConfig) { c.TaxWallet = "" }},
		{"off-curve tax wallet", func(c *TokenConfig) { c.TaxWallet = offCurve }},
		{"zero max tx", func(c *TokenConfig) { c.MaxTxAmount = 0 }},
		{"zero daily limit", func(c *TokenConfig) { c.DailyTxLimit = 0 }},
		{"invalid token address", func(c *TokenConfig) { c.TokenAddress = "nope" }},
		{"invalid owner", func(c *TokenConfig) { c.Owner = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestTokenConfig_Validate_BoundaryTaxRate(t *testing.T) {
	cfg := validConfig()
	cfg.TaxRate = 100
	if err := cfg.Validate(); err != nil {
		t.Errorf("tax rate 100 should be accepted: %v", err)
	}
	cfg.TaxRate = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("tax rate 0 should be accepted: %v", err)
	}
}

// findOffCurveAddress returns a valid non-zero address whose bytes are not
// an ed25519 curve point.
func findOffCurveAddress(t *testing.T) Address {
	t.Helper()

	raw := make([]byte, AddressLength)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	for b := byte(1); b < 255; b++ {
		raw[0] = b
		addr := AddressFromBytes(raw)
		if !addr.IsOnCurve() {
			return addr
		}
	}
	t.Fatal("could not find an off-curve address")
	return ""
}
