package domain

import "math/big"

// Balance is a raw native-unit amount held by an address.
// Display values are derived from Raw and never written back.
type Balance struct {
	Chain Chain
	Raw   *big.Int
}

// NewBalance creates a Balance from a uint64 raw amount.
func NewBalance(chain Chain, raw uint64) Balance {
	return Balance{Chain: chain, Raw: new(big.Int).SetUint64(raw)}
}

// Cmp compares the raw amounts of b and raw.
func (b Balance) Cmp(raw *big.Int) int {
	if b.Raw == nil {
		return new(big.Int).Cmp(raw)
	}
	return b.Raw.Cmp(raw)
}

// TokenBalance is a fungible token position identified by its mint
// (or contract) address.
type TokenBalance struct {
	Mint         string
	Amount       *big.Int // raw units
	Decimals     int32
	TokenAccount string
	Symbol       string // optional, set by sources that know it
}

// IsUnit reports whether the position looks like a single NFT:
// zero decimals and exactly one unit.
func (t TokenBalance) IsUnit() bool {
	return t.Decimals == 0 && t.Amount != nil && t.Amount.Cmp(big.NewInt(1)) == 0
}

// NFT is a minimal non-fungible holding. Name falls back to the mint when
// no metadata is resolved.
type NFT struct {
	Mint       string
	Name       string
	Image      string
	Collection string
}

// Placeholder values for NFTs without resolved metadata.
const (
	PlaceholderImage  = "/placeholder.svg"
	UnknownCollection = "Unknown"
)

// NFTFromMint builds an NFT record without metadata.
func NFTFromMint(mint string) NFT {
	return NFT{
		Mint:       mint,
		Name:       mint,
		Image:      PlaceholderImage,
		Collection: UnknownCollection,
	}
}

// Holdings is the result of a balance query: native balance plus tokens.
type Holdings struct {
	Native Balance
	Tokens []TokenBalance
}
