package source

import (
	"context"
	"errors"
	"testing"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/solana"
	"solana-wallet-lab/internal/solana/stub"
)

func ptr[T any](v T) *T {
	return &v
}

func newStubWithAccounts() *stub.RPCClient {
	rpc := stub.NewRPCClient()
	rpc.Balances["owner"] = 2_000_000_000
	rpc.TokenAccounts["owner"] = []solana.TokenAccount{
		{Address: "acct1", Mint: "nftMint", Amount: "1", Decimals: 0, UIAmount: ptr(1.0)},
		{Address: "acct2", Mint: "usdc", Amount: "25000000", Decimals: 6, UIAmount: ptr(25.0)},
		{Address: "acct3", Mint: "empty", Amount: "0", Decimals: 0, UIAmount: ptr(0.0)},
	}
	return rpc
}

func TestRPCSource_FetchNFTs(t *testing.T) {
	src := NewRPCSource(newStubWithAccounts(), nil)

	nfts, err := src.FetchNFTs(context.Background(), "owner")
	if err != nil {
		t.Fatalf("FetchNFTs: %v", err)
	}
	if len(nfts) != 1 {
		t.Fatalf("expected 1 NFT, got %d", len(nfts))
	}
	want := domain.NFT{Mint: "nftMint", Name: "nftMint", Image: "/placeholder.svg", Collection: "Unknown"}
	if nfts[0] != want {
		t.Errorf("expected %+v, got %+v", want, nfts[0])
	}
}

func TestRPCSource_FetchHoldings(t *testing.T) {
	src := NewRPCSource(newStubWithAccounts(), nil)

	h, err := src.FetchHoldings(context.Background(), "owner")
	if err != nil {
		t.Fatalf("FetchHoldings: %v", err)
	}
	if h.Native.Raw.Uint64() != 2_000_000_000 {
		t.Errorf("unexpected native balance %s", h.Native.Raw)
	}
	// unit accounts are reported as NFTs, not tokens
	if len(h.Tokens) != 2 {
		t.Fatalf("expected 2 fungible tokens, got %d", len(h.Tokens))
	}
	if h.Tokens[0].Mint != "usdc" || h.Tokens[0].TokenAccount != "acct2" {
		t.Errorf("unexpected token: %+v", h.Tokens[0])
	}
}

func TestRPCSource_SingleAttemptOnFailure(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Err = errors.New("node unavailable")
	src := NewRPCSource(rpc, nil)

	if _, err := src.FetchNFTs(context.Background(), "owner"); err == nil {
		t.Fatal("expected error")
	}
	if got := rpc.CallCount("getTokenAccountsByOwner"); got != 1 {
		t.Errorf("expected exactly 1 call, got %d", got)
	}
}

func TestRPCSource_FetchTransactions(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.AddSignatures("owner", []solana.SignatureInfo{
		{Signature: "sig1", BlockTime: ptr(int64(100))},
		{Signature: "missing"},
	})
	rpc.AddTransaction(&solana.Transaction{
		Signature: "sig1",
		Meta: &solana.TransactionMeta{
			Fee:          5000,
			PreBalances:  []uint64{1_000_000, 0},
			PostBalances: []uint64{495_000, 500_000},
		},
		Message: &solana.TransactionMessage{AccountKeys: []string{"owner", "dest"}},
	})

	src := NewRPCSource(rpc, nil)
	txs, err := src.FetchTransactions(context.Background(), "owner")
	if err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 record (missing skipped), got %d", len(txs))
	}
	rec := txs[0]
	if rec.Direction != domain.DirectionSent || rec.Amount.Int64() != 500_000 || rec.Counterparty != "dest" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Timestamp != 100_000 {
		t.Errorf("expected block time from signature info, got %d", rec.Timestamp)
	}
}
