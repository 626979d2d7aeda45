package solana

import (
	"math/big"

	"solana-wallet-lab/internal/domain"
)

// ToRecord derives the owner's view of tx from pre/post lamport balances.
// The fee is excluded from the amount when owner paid it.
func (tx *Transaction) ToRecord(owner string) domain.TransactionRecord {
	rec := domain.TransactionRecord{
		Signature: tx.Signature,
		Direction: domain.DirectionUnknown,
		Amount:    new(big.Int),
		Timestamp: tx.BlockTime * 1000,
	}
	if tx.Meta == nil || tx.Message == nil {
		return rec
	}
	rec.Failed = tx.Meta.Err != nil

	keys := tx.Message.AccountKeys
	pre, post := tx.Meta.PreBalances, tx.Meta.PostBalances
	idx := -1
	for i, k := range keys {
		if k == owner {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(pre) || idx >= len(post) {
		return rec
	}

	delta := new(big.Int).Sub(new(big.Int).SetUint64(post[idx]), new(big.Int).SetUint64(pre[idx]))
	if idx == 0 {
		delta.Add(delta, new(big.Int).SetUint64(tx.Meta.Fee))
	}

	switch delta.Sign() {
	case -1:
		rec.Direction = domain.DirectionSent
		rec.Amount = delta.Neg(delta)
		rec.Counterparty = largestChange(keys, pre, post, idx, 1)
	case 1:
		rec.Direction = domain.DirectionReceived
		rec.Amount = delta
		rec.Counterparty = largestChange(keys, pre, post, idx, -1)
	}
	return rec
}

// largestChange returns the account other than skip whose balance moved
// the most in direction sign.
func largestChange(keys []string, pre, post []uint64, skip, sign int) string {
	best := ""
	bestAmt := new(big.Int)
	for i, k := range keys {
		if i == skip || i >= len(pre) || i >= len(post) {
			continue
		}
		d := new(big.Int).Sub(new(big.Int).SetUint64(post[i]), new(big.Int).SetUint64(pre[i]))
		if sign < 0 {
			d.Neg(d)
		}
		if d.Sign() > 0 && d.Cmp(bestAmt) > 0 {
			best, bestAmt = k, d
		}
	}
	return best
}
