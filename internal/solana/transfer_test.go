package solana_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sol "github.com/gagliardetto/solana-go"

	"solana-wallet-lab/internal/solana"
	"solana-wallet-lab/internal/solana/stub"
)

func TestSigner_Transfer(t *testing.T) {
	key, err := sol.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	dest, err := sol.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}

	rpc := stub.NewRPCClient()
	signer, err := solana.NewSigner(rpc, key.String(), nil, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	if signer.Address() != key.PublicKey().String() {
		t.Errorf("expected address %s, got %s", key.PublicKey(), signer.Address())
	}

	sig, err := signer.Transfer(context.Background(), dest.PublicKey().String(), 1_000_000)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if sig == "" {
		t.Error("expected signature")
	}
	if len(rpc.Sent) != 1 || len(rpc.Sent[0]) == 0 {
		t.Fatalf("expected one serialized transaction, got %d", len(rpc.Sent))
	}
	if rpc.CallCount("getLatestBlockhash") != 1 {
		t.Errorf("expected one blockhash fetch, got %d", rpc.CallCount("getLatestBlockhash"))
	}
}

func TestSigner_TransferRejected(t *testing.T) {
	key, _ := sol.NewRandomPrivateKey()
	dest, _ := sol.NewRandomPrivateKey()

	rpc := stub.NewRPCClient()
	rpc.SendErr = &solana.RPCError{Code: -32002, Message: "insufficient funds for rent"}

	signer, err := solana.NewSigner(rpc, key.String(), nil, nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	_, err = signer.Transfer(context.Background(), dest.PublicKey().String(), 1)
	var rpcErr *solana.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected RPCError, got %v", err)
	}
}

func TestSigner_DroppedTransactionExpires(t *testing.T) {
	key, _ := sol.NewRandomPrivateKey()
	dest, _ := sol.NewRandomPrivateKey()

	rpc := stub.NewRPCClient()
	rpc.DropSent = true
	rpc.BlockHeight = 100
	rpc.LastValidBlockHeight = 103
	rpc.BlockHeightStep = 1

	signer, err := solana.NewSigner(rpc, key.String(), solana.NewPollingConfirmer(rpc, time.Millisecond), nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := signer.Transfer(context.Background(), dest.PublicKey().String(), 1)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, solana.ErrBlockhashExpired) {
			t.Fatalf("expected ErrBlockhashExpired, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Transfer did not return for a dropped transaction")
	}
}

func TestSigner_ConfirmTimeout(t *testing.T) {
	key, _ := sol.NewRandomPrivateKey()
	dest, _ := sol.NewRandomPrivateKey()

	rpc := stub.NewRPCClient()
	rpc.DropSent = true

	signer, err := solana.NewSigner(rpc, key.String(), solana.NewPollingConfirmer(rpc, time.Millisecond), nil)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	signer.SetConfirmTimeout(50 * time.Millisecond)

	sig, err := signer.Transfer(context.Background(), dest.PublicKey().String(), 1)
	if !errors.Is(err, solana.ErrConfirmTimeout) {
		t.Fatalf("expected ErrConfirmTimeout, got %v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Error("timeout must not surface as the caller's deadline")
	}
	if sig == "" {
		t.Error("expected the submitted signature to be returned")
	}
}

func TestNewSigner_BadKey(t *testing.T) {
	if _, err := solana.NewSigner(stub.NewRPCClient(), "not-a-key", nil, nil); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestIsOnCurve(t *testing.T) {
	key, _ := sol.NewRandomPrivateKey()
	if !solana.IsOnCurve(key.PublicKey().String()) {
		t.Error("wallet key should be on curve")
	}

	pda, _, err := sol.FindProgramAddress([][]byte{[]byte("wallet")}, sol.SystemProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	if solana.IsOnCurve(pda.String()) {
		t.Error("program-derived address should be off curve")
	}
}

func TestAddressFromKey(t *testing.T) {
	key, _ := sol.NewRandomPrivateKey()
	addr, err := solana.AddressFromKey(key.String())
	if err != nil {
		t.Fatalf("AddressFromKey: %v", err)
	}
	if addr != key.PublicKey().String() {
		t.Errorf("expected %s, got %s", key.PublicKey(), addr)
	}

	if _, err := solana.AddressFromKey("3yZe7d"); err == nil {
		t.Error("expected error for short key")
	}
}
