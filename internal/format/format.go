// Package format renders raw chain amounts for display. Rounding happens on
// copies; raw integers are never modified.
package format

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"solana-wallet-lab/internal/domain"
)

// Display precision.
const (
	NativePlaces = 4
	TokenPlaces  = 2
)

// Scaled converts a raw integer amount into a decimal in display units.
func Scaled(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// Native formats a native balance with four decimal places,
// e.g. 1_500_000_000 lamports -> "1.5000".
func Native(raw *big.Int, decimals int32) string {
	return Scaled(raw, decimals).StringFixed(NativePlaces)
}

// Token formats a token amount with two decimal places.
func Token(raw *big.Int, decimals int32) string {
	return Scaled(raw, decimals).StringFixed(TokenPlaces)
}

// Exact formats a raw amount without rounding, trimming trailing zeros.
func Exact(raw *big.Int, decimals int32) string {
	return Scaled(raw, decimals).String()
}

// BalanceWithSymbol renders "1.5000 SOL".
func BalanceWithSymbol(b domain.Balance) string {
	return Native(b.Raw, b.Chain.NativeDecimals()) + " " + b.Chain.NativeSymbol()
}

// ShortAddress abbreviates an address to its first head and last tail
// characters, e.g. "8YLK...f3ky". Short inputs are returned unchanged.
func ShortAddress(addr string, head, tail int) string {
	if head < 0 || tail < 0 || len(addr) <= head+tail {
		return addr
	}
	return addr[:head] + "..." + addr[len(addr)-tail:]
}

// MaxAmountLength bounds user-entered amounts. It fits any uint256 value.
const MaxAmountLength = 80

// plainAmount accepts unsigned decimals without exponent notation.
var plainAmount = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

// ParseAmount converts a user-entered amount in display units into raw
// units. It rejects non-numeric, zero and negative input, and input with
// more precision than the smallest unit.
func ParseAmount(s string, decimals int32) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}

	if len(s) > MaxAmountLength {
		return nil, fmt.Errorf("%w: more than %d characters", domain.ErrInvalidAmount, MaxAmountLength)
	}
	if !plainAmount.MatchString(s) {
		return nil, fmt.Errorf("%w: %q is not a plain decimal number", domain.ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, s)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", domain.ErrInvalidAmount)
	}

	raw := d.Shift(decimals)
	if !raw.IsInteger() {
		return nil, fmt.Errorf("%w: more than %d decimal places", domain.ErrInvalidAmount, decimals)
	}
	return raw.BigInt(), nil
}
