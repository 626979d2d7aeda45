package domain

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

func TestRecentTransactions_OrderAndTruncate(t *testing.T) {
	var txs []TransactionRecord
	for i := 0; i < 15; i++ {
		txs = append(txs, TransactionRecord{
			Signature: fmt.Sprintf("sig%02d", i),
			Timestamp: int64(1000 + i),
		})
	}

	recent := RecentTransactions(txs)
	if len(recent) != MaxRecentTransactions {
		t.Fatalf("expected %d records, got %d", MaxRecentTransactions, len(recent))
	}
	if recent[0].Signature != "sig14" {
		t.Errorf("expected newest first, got %s", recent[0].Signature)
	}
	if recent[9].Signature != "sig05" {
		t.Errorf("expected sig05 last, got %s", recent[9].Signature)
	}
	if txs[0].Signature != "sig00" {
		t.Error("input slice was reordered")
	}
}

func TestSortTransactions_TieBreakBySignature(t *testing.T) {
	txs := []TransactionRecord{
		{Signature: "b", Timestamp: 5},
		{Signature: "a", Timestamp: 5},
		{Signature: "c", Timestamp: 9},
	}
	SortTransactions(txs)

	want := []string{"c", "a", "b"}
	for i, w := range want {
		if txs[i].Signature != w {
			t.Errorf("position %d: got %s, want %s", i, txs[i].Signature, w)
		}
	}
}

func TestChain_ScalingFactor(t *testing.T) {
	if ChainSolana.ScalingFactor().Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Errorf("unexpected solana scaling factor %s", ChainSolana.ScalingFactor())
	}
	wei, _ := new(big.Int).SetString("1000000000000000000", 10)
	if ChainEthereum.ScalingFactor().Cmp(wei) != 0 {
		t.Errorf("unexpected ethereum scaling factor %s", ChainEthereum.ScalingFactor())
	}
	if Chain("doge").IsValid() {
		t.Error("unexpected valid chain")
	}
}

func TestInsufficientBalanceIsInvalidAmount(t *testing.T) {
	if !errors.Is(ErrInsufficientBalance, ErrInvalidAmount) {
		t.Error("ErrInsufficientBalance should match ErrInvalidAmount")
	}
	if errors.Is(ErrInvalidAmount, ErrInsufficientBalance) {
		t.Error("ErrInvalidAmount should not match ErrInsufficientBalance")
	}
}

func TestTokenBalance_IsUnit(t *testing.T) {
	nft := TokenBalance{Mint: "m", Amount: big.NewInt(1), Decimals: 0}
	if !nft.IsUnit() {
		t.Error("expected unit token")
	}
	fungible := TokenBalance{Mint: "m", Amount: big.NewInt(1), Decimals: 6}
	if fungible.IsUnit() {
		t.Error("token with decimals is not a unit token")
	}
}
