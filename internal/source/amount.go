package source

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// rawAmount decodes an integer amount given either as a JSON number or a
// numeric string, without float rounding.
type rawAmount struct {
	v *big.Int
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *rawAmount) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		a.v = new(big.Int)
		return nil
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		a.v = v
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a.v = d.BigInt()
	return nil
}

func (a rawAmount) value() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}
