package domain

import (
	"math/big"
	"sort"
)

// MaxRecentTransactions is the number of transactions kept in view state.
const MaxRecentTransactions = 10

// Direction is the flow of value relative to the viewed address.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
	DirectionUnknown  Direction = "unknown"
)

// TransactionRecord is one entry of an address's history.
type TransactionRecord struct {
	Signature    string
	Direction    Direction
	Amount       *big.Int // raw native units, zero if unknown
	Timestamp    int64    // Unix milliseconds
	Counterparty string
	Failed       bool
}

// SortTransactions orders records newest first. Ties are broken by
// signature so the ordering is deterministic.
func SortTransactions(txs []TransactionRecord) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Timestamp != txs[j].Timestamp {
			return txs[i].Timestamp > txs[j].Timestamp
		}
		return txs[i].Signature < txs[j].Signature
	})
}

// RecentTransactions sorts txs and keeps at most MaxRecentTransactions.
// The input slice is not modified.
func RecentTransactions(txs []TransactionRecord) []TransactionRecord {
	out := make([]TransactionRecord, len(txs))
	copy(out, txs)
	SortTransactions(out)
	if len(out) > MaxRecentTransactions {
		out = out[:MaxRecentTransactions]
	}
	return out
}
