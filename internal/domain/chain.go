package domain

import "math/big"

// Chain identifies the network a wallet lives on.
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
)

// String returns the string representation of Chain.
func (c Chain) String() string {
	return string(c)
}

// IsValid checks if the chain is a supported value.
func (c Chain) IsValid() bool {
	return c == ChainSolana || c == ChainEthereum
}

// NativeDecimals is the number of decimal places of the chain's native unit
// (lamports for Solana, wei for Ethereum).
func (c Chain) NativeDecimals() int32 {
	switch c {
	case ChainEthereum:
		return 18
	default:
		return 9
	}
}

// NativeSymbol is the ticker of the chain's native asset.
func (c Chain) NativeSymbol() string {
	switch c {
	case ChainEthereum:
		return "ETH"
	default:
		return "SOL"
	}
}

// ScalingFactor returns 10^NativeDecimals as a big.Int.
func (c Chain) ScalingFactor() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.NativeDecimals())), nil)
}

// ExplorerTxURL returns a block explorer link for a transaction.
func (c Chain) ExplorerTxURL(signature string) string {
	switch c {
	case ChainEthereum:
		return "https://etherscan.io/tx/" + signature
	default:
		return "https://explorer.solana.com/tx/" + signature
	}
}
