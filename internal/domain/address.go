package domain

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLength is the raw byte length of a ledger address.
const AddressLength = 32

// Address is a base58-encoded 32-byte ledger address.
type Address string

// Address errors
var (
	ErrInvalidAddress = errors.New("invalid address")
)

// ParseAddress decodes and validates a base58 address string.
// The zero (all-zero bytes) address is rejected.
func ParseAddress(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != AddressLength {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(raw), AddressLength)
	}
	if allZero(raw) {
		return "", fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return Address(s), nil
}

// AddressFromBytes encodes raw bytes as an Address without validation.
func AddressFromBytes(raw []byte) Address {
	return Address(base58.Encode(raw))
}

// Valid reports whether the address decodes to 32 non-zero bytes.
func (a Address) Valid() bool {
	_, err := ParseAddress(string(a))
	return err == nil
}

// String returns the base58 form.
func (a Address) String() string {
	return string(a)
}

// IsOnCurve reports whether the address bytes are a valid ed25519 curve
// point, i.e. a wallet key rather than an off-curve derived address.
func (a Address) IsOnCurve() bool {
	raw, err := base58.Decode(string(a))
	if err != nil || len(raw) != AddressLength {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// NewWalletAddress derives a deterministic on-curve wallet address from a
// seed. Intended for fixtures and local tooling, not key management.
func NewWalletAddress(seed string) Address {
	hash := sha256.Sum256([]byte(seed))
	scalar, err := edwards25519.NewScalar().SetBytesWithClamping(hash[:])
	if err != nil {
		// SetBytesWithClamping only fails on wrong input length.
		panic(fmt.Sprintf("derive wallet address: %v", err))
	}
	point := new(edwards25519.Point).ScalarBaseMult(scalar)
	return AddressFromBytes(point.Bytes())
}

func allZero(raw []byte) bool {
	for _, b := range raw {
		if b != 0 {
			return false
		}
	}
	return true
}
