package solana

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// signatureServer acknowledges signatureSubscribe and then notifies with err.
func signatureServer(t *testing.T, notifyErr interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Method != "signatureSubscribe" {
				t.Errorf("expected signatureSubscribe, got %s", req.Method)
				continue
			}
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  77,
			})
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "signatureNotification",
				"params": map[string]interface{}{
					"subscription": 77,
					"result": map[string]interface{}{
						"context": map[string]interface{}{"slot": 5},
						"value":   map[string]interface{}{"err": notifyErr},
					},
				},
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSClient_SubscribeSignature(t *testing.T) {
	server := signatureServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewWSClient(ctx, wsURL(server), nil, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeSignature(ctx, "sig1")
	if err != nil {
		t.Fatalf("SubscribeSignature: %v", err)
	}

	select {
	case n, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before notification")
		}
		if n.Signature != "sig1" || n.Slot != 5 || n.Err != nil {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for notification")
	}

	if _, ok := <-ch; ok {
		t.Error("expected channel closed after the single notification")
	}
}

func TestWSClient_CloseIdempotent(t *testing.T) {
	server := signatureServer(t, nil)

	client, err := NewWSClient(context.Background(), wsURL(server), nil, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := client.SubscribeSignature(context.Background(), "sig1"); err == nil {
		t.Error("expected error subscribing on closed client")
	}
}

type statusRPC struct {
	RPCClient
	status *SignatureStatus
}

func (s *statusRPC) GetSignatureStatuses(context.Context, []string) ([]*SignatureStatus, error) {
	return []*SignatureStatus{s.status}, nil
}

func TestWSConfirmer_FailedNotification(t *testing.T) {
	server := signatureServer(t, map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewWSClient(ctx, wsURL(server), nil, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	confirmer := NewWSConfirmer(client, &statusRPC{})
	if err := confirmer.WaitConfirmed(ctx, "sig1", 0); err == nil {
		t.Fatal("expected failure from notification error")
	}
}

func TestWSConfirmer_AlreadyConfirmed(t *testing.T) {
	server := signatureServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewWSClient(ctx, wsURL(server), nil, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	rpc := &statusRPC{status: &SignatureStatus{ConfirmationStatus: CommitmentFinalized}}
	if err := NewWSConfirmer(client, rpc).WaitConfirmed(ctx, "sig1", 0); err != nil {
		t.Fatalf("WaitConfirmed: %v", err)
	}
}

func TestPollingConfirmer(t *testing.T) {
	rpc := &statusRPC{status: &SignatureStatus{ConfirmationStatus: CommitmentConfirmed}}
	if err := NewPollingConfirmer(rpc, time.Millisecond).WaitConfirmed(context.Background(), "sig", 0); err != nil {
		t.Fatalf("WaitConfirmed: %v", err)
	}

	rpc.status = &SignatureStatus{Err: "boom"}
	if err := NewPollingConfirmer(rpc, time.Millisecond).WaitConfirmed(context.Background(), "sig", 0); err == nil {
		t.Fatal("expected failure for errored status")
	}

	rpc.status = &SignatureStatus{ConfirmationStatus: CommitmentProcessed}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := NewPollingConfirmer(rpc, time.Millisecond).WaitConfirmed(ctx, "sig", 0); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type heightRPC struct {
	statusRPC
	height uint64
}

func (h *heightRPC) GetBlockHeight(context.Context) (uint64, error) {
	h.height++
	return h.height, nil
}

func TestPollingConfirmer_BlockhashExpired(t *testing.T) {
	rpc := &heightRPC{}
	err := NewPollingConfirmer(rpc, time.Millisecond).WaitConfirmed(context.Background(), "sig", 3)
	if !errors.Is(err, ErrBlockhashExpired) {
		t.Fatalf("expected ErrBlockhashExpired, got %v", err)
	}
	if rpc.height != 4 {
		t.Errorf("expected to stop at the first height past the limit, got %d", rpc.height)
	}
}

func TestPollingConfirmer_LandsInLastBlock(t *testing.T) {
	rpc := &lateRPC{heightRPC: heightRPC{height: 10}}
	if err := NewPollingConfirmer(rpc, time.Millisecond).WaitConfirmed(context.Background(), "sig", 10); err != nil {
		t.Fatalf("WaitConfirmed: %v", err)
	}
}

// lateRPC reports the signature confirmed from its second status read on.
type lateRPC struct {
	heightRPC
	reads int
}

func (l *lateRPC) GetSignatureStatuses(context.Context, []string) ([]*SignatureStatus, error) {
	l.reads++
	if l.reads < 2 {
		return []*SignatureStatus{nil}, nil
	}
	return []*SignatureStatus{{ConfirmationStatus: CommitmentConfirmed}}, nil
}
