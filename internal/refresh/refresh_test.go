package refresh

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/notify"
	"solana-wallet-lab/internal/view"
)

// fakeSource records the order of calls and can fail or block per step.
type fakeSource struct {
	mu    sync.Mutex
	calls []string

	holdingsErr error
	nftErr      error
	txErr       error

	holdingsCalls int32
	block         chan struct{}
	entered       chan struct{}
}

func (f *fakeSource) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) FetchHoldings(ctx context.Context, _ string) (domain.Holdings, error) {
	atomic.AddInt32(&f.holdingsCalls, 1)
	f.record("holdings")
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	if f.holdingsErr != nil {
		return domain.Holdings{}, f.holdingsErr
	}
	return domain.Holdings{Native: domain.NewBalance(domain.ChainSolana, 1_500_000_000)}, nil
}

func (f *fakeSource) FetchNFTs(context.Context, string) ([]domain.NFT, error) {
	f.record("nfts")
	if f.nftErr != nil {
		return nil, f.nftErr
	}
	return []domain.NFT{domain.NFTFromMint("mint1")}, nil
}

func (f *fakeSource) FetchTransactions(context.Context, string) ([]domain.TransactionRecord, error) {
	f.record("transactions")
	if f.txErr != nil {
		return nil, f.txErr
	}
	return []domain.TransactionRecord{
		{Signature: "sig", Direction: domain.DirectionReceived, Amount: big.NewInt(1), Timestamp: 1},
	}, nil
}

type notification struct {
	title, description string
	variant            notify.Variant
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(title, description string, variant notify.Variant) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{title, description, variant})
	return title
}

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newRefresher(src *fakeSource) (*Refresher, *view.View, *recordingNotifier, *recordingSleeper) {
	return newScopedRefresher(src, nil)
}

// newScopedRefresher builds a refresher over a view connected to "owner".
func newScopedRefresher(src *fakeSource, base func(string) context.Context) (*Refresher, *view.View, *recordingNotifier, *recordingSleeper) {
	v := view.New(domain.ChainSolana)
	v.SetConnection(domain.StatusConnected, "owner")
	n := &recordingNotifier{}
	s := &recordingSleeper{}
	r := New(Options{Source: src, View: v, Notifier: n, Sleeper: s.Sleep, BaseContext: base})
	return r, v, n, s
}

func TestRefresh_OrderAndPacing(t *testing.T) {
	src := &fakeSource{}
	r, v, n, s := newRefresher(src)

	if err := r.Refresh(context.Background(), "owner"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	want := []string{"holdings", "nfts", "transactions"}
	got := src.Calls()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if len(s.waits) != 2 || s.waits[0] != 2*time.Second || s.waits[1] != 2*time.Second {
		t.Errorf("expected two 2s pacing delays, got %v", s.waits)
	}
	if len(n.sent) != 0 {
		t.Errorf("expected no notifications, got %v", n.sent)
	}

	snap := v.Snapshot()
	if snap.Loading {
		t.Error("expected loading cleared after refresh")
	}
	if snap.Balance == nil || snap.Balance.Display != "1.5000" {
		t.Errorf("unexpected balance %+v", snap.Balance)
	}
	if len(snap.NFTs) != 1 || len(snap.Transactions) != 1 {
		t.Errorf("unexpected snapshot: %d NFTs, %d transactions", len(snap.NFTs), len(snap.Transactions))
	}
}

func TestRefresh_EmptyAddressIsNoop(t *testing.T) {
	src := &fakeSource{}
	r, _, _, _ := newRefresher(src)

	if err := r.Refresh(context.Background(), ""); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(src.Calls()) != 0 {
		t.Errorf("expected no source calls, got %v", src.Calls())
	}
}

func TestRefresh_StepFailureContinues(t *testing.T) {
	src := &fakeSource{holdingsErr: errors.New("boom"), nftErr: errors.New("nft boom")}
	r, v, n, _ := newRefresher(src)

	err := r.Refresh(context.Background(), "owner")
	if err == nil {
		t.Fatal("expected joined step error")
	}
	if len(src.Calls()) != 3 {
		t.Fatalf("expected all steps to run, got %v", src.Calls())
	}

	if len(n.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %v", n.sent)
	}
	if n.sent[0].title != TitleBalanceFailed || n.sent[0].description != RetryLater {
		t.Errorf("unexpected first notification %+v", n.sent[0])
	}
	if n.sent[1].title != TitleNFTsFailed || n.sent[1].variant != notify.VariantDestructive {
		t.Errorf("unexpected second notification %+v", n.sent[1])
	}

	snap := v.Snapshot()
	if snap.NFTError != "Failed to fetch NFTs. Please try again later." {
		t.Errorf("unexpected NFT error %q", snap.NFTError)
	}
	if snap.Balance != nil {
		t.Error("expected no balance after failed step")
	}
	if len(snap.Transactions) != 1 {
		t.Error("expected transactions from the later step to be kept")
	}
}

func TestRefresh_Coalesced(t *testing.T) {
	src := &fakeSource{block: make(chan struct{}), entered: make(chan struct{})}
	r, _, _, _ := newRefresher(src)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = r.Refresh(context.Background(), "owner")
	}()
	<-src.entered
	go func() {
		defer wg.Done()
		_ = r.Refresh(context.Background(), "owner")
	}()
	time.Sleep(50 * time.Millisecond)
	close(src.block)
	wg.Wait()

	if got := atomic.LoadInt32(&src.holdingsCalls); got != 1 {
		t.Errorf("expected one balance fetch, got %d", got)
	}
}

func TestRefreshAfterTransfer(t *testing.T) {
	src := &fakeSource{}
	r, _, _, s := newRefresher(src)

	if err := r.RefreshAfterTransfer(context.Background(), "owner"); err != nil {
		t.Fatalf("RefreshAfterTransfer: %v", err)
	}
	got := src.Calls()
	if len(got) != 2 || got[0] != "holdings" || got[1] != "transactions" {
		t.Errorf("unexpected calls %v", got)
	}
	if len(s.waits) != 1 {
		t.Errorf("expected one pacing delay, got %v", s.waits)
	}
}

func TestRefreshTransactions(t *testing.T) {
	src := &fakeSource{txErr: errors.New("down")}
	r, v, n, s := newRefresher(src)

	if err := r.RefreshTransactions(context.Background(), "owner"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.waits) != 0 {
		t.Errorf("expected no pacing for a single step, got %v", s.waits)
	}
	if len(n.sent) != 1 || n.sent[0].title != TitleTransactionsFailed {
		t.Errorf("unexpected notifications %v", n.sent)
	}
	if v.Snapshot().Errors[view.StepTransactions] == "" {
		t.Error("expected transaction step error on view")
	}
}

func TestRefresh_Cancelled(t *testing.T) {
	src := &fakeSource{}
	base, cancel := context.WithCancel(context.Background())
	v := view.New(domain.ChainSolana)
	v.SetConnection(domain.StatusConnected, "owner")
	n := &recordingNotifier{}
	r := New(Options{
		Source:   src,
		View:     v,
		Notifier: n,
		Sleeper: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
		BaseContext: func(string) context.Context { return base },
	})

	err := r.Refresh(context.Background(), "owner")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(src.Calls()) != 1 {
		t.Errorf("expected sequence to stop at first pacing delay, got %v", src.Calls())
	}
	if len(n.sent) != 0 {
		t.Errorf("cancellation must not notify, got %v", n.sent)
	}
	if v.Snapshot().Loading {
		t.Error("expected loading cleared after cancellation")
	}
}

func TestRefresh_CancelledCallerDoesNotStart(t *testing.T) {
	src := &fakeSource{}
	r, _, _, _ := newRefresher(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Refresh(ctx, "owner"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(src.Calls()) != 0 {
		t.Errorf("expected no fetches, got %v", src.Calls())
	}
}

func TestRefresh_JoinedCallerOutlivesFirstCaller(t *testing.T) {
	src := &fakeSource{block: make(chan struct{}), entered: make(chan struct{})}
	r, v, _, _ := newRefresher(src)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		firstErr <- r.Refresh(first, "owner")
	}()
	<-src.entered

	joinedErr := make(chan error, 1)
	go func() {
		joinedErr <- r.Refresh(context.Background(), "owner")
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller to see context.Canceled, got %v", err)
	}

	close(src.block)
	if err := <-joinedErr; err != nil {
		t.Fatalf("joined caller: %v", err)
	}

	if got := src.Calls(); len(got) != 3 {
		t.Errorf("expected the shared sequence to finish, got %v", got)
	}
	if len(v.Snapshot().Transactions) != 1 {
		t.Error("expected transactions from the shared sequence")
	}
}

func TestRefresh_ResetViewDropsInFlightResults(t *testing.T) {
	src := &fakeSource{block: make(chan struct{}), entered: make(chan struct{}), nftErr: errors.New("nft boom")}
	r, v, n, _ := newRefresher(src)

	done := make(chan error, 1)
	go func() {
		done <- r.Refresh(context.Background(), "owner")
	}()
	<-src.entered

	v.Reset()
	close(src.block)
	if err := <-done; err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	snap := v.Snapshot()
	if snap.Balance != nil || len(snap.NFTs) != 0 || len(snap.Transactions) != 0 {
		t.Errorf("expected no data after reset, got %+v", snap)
	}
	if snap.Loading {
		t.Error("expected no loading flags after reset")
	}
	if got := src.Calls(); len(got) != 1 {
		t.Errorf("expected the sequence to stop after reset, got %v", got)
	}
	if len(n.sent) != 0 {
		t.Errorf("expected no notifications for a reset view, got %v", n.sent)
	}
}

func TestRefreshTransactions_StopsWithBaseContext(t *testing.T) {
	src := &fakeSource{}
	base, cancel := context.WithCancel(context.Background())
	cancel()
	r, _, _, _ := newScopedRefresher(src, func(string) context.Context { return base })

	if err := r.RefreshTransactions(context.Background(), "owner"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(src.Calls()) != 0 {
		t.Errorf("expected no fetches, got %v", src.Calls())
	}
}

func TestRefresh_ClosedViewStops(t *testing.T) {
	src := &fakeSource{}
	r, v, _, _ := newRefresher(src)
	v.Close()

	if err := r.Refresh(context.Background(), "owner"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(src.Calls()) != 0 {
		t.Errorf("expected no fetches on a closed view, got %v", src.Calls())
	}
}
