package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-wallet-lab/internal/domain"
)

// Decoded key sizes.
const (
	PublicKeyLength  = 32
	PrivateKeyLength = 64
)

// ValidateAddress checks that addr is base58 and decodes to a 32-byte key.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: empty address", domain.ErrInvalidAddress)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %q is not base58", domain.ErrInvalidAddress, addr)
	}
	if len(raw) != PublicKeyLength {
		return fmt.Errorf("%w: %q decodes to %d bytes", domain.ErrInvalidAddress, addr, len(raw))
	}
	return nil
}

// IsOnCurve reports whether addr is an ed25519 point. Program-derived
// addresses are off-curve and have no private key.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != PublicKeyLength {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
