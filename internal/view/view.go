// Package view holds the wallet's presentation state: what a front end
// renders, with observer notification on every change.
package view

import (
	"math/big"
	"sync"
	"time"

	"solana-wallet-lab/internal/domain"
	"solana-wallet-lab/internal/format"
)

// Step names one section of the wallet view.
type Step string

const (
	StepBalance      Step = "balance"
	StepNFTs         Step = "nfts"
	StepTransactions Step = "transactions"
)

// Steps lists all steps in refresh order.
var Steps = []Step{StepBalance, StepNFTs, StepTransactions}

// BalanceView is a native balance with display formatting.
type BalanceView struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
	Symbol  string `json:"symbol"`
}

// TokenView is a token position with display formatting.
type TokenView struct {
	Mint         string `json:"mint"`
	Symbol       string `json:"symbol,omitempty"`
	TokenAccount string `json:"token_account,omitempty"`
	Raw          string `json:"raw"`
	Decimals     int32  `json:"decimals"`
	Display      string `json:"display"`
}

// NFTView is an NFT card.
type NFTView struct {
	Mint       string `json:"mint"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Collection string `json:"collection"`
}

// TransactionView is a history row.
type TransactionView struct {
	Signature    string           `json:"signature"`
	Direction    domain.Direction `json:"direction"`
	Raw          string           `json:"raw"`
	Display      string           `json:"display"`
	Timestamp    int64            `json:"timestamp"`
	Counterparty string           `json:"counterparty,omitempty"`
	Failed       bool             `json:"failed,omitempty"`
	ExplorerURL  string           `json:"explorer_url"`
}

// Snapshot is an immutable copy of the view.
type Snapshot struct {
	Version      uint64            `json:"version"`
	Chain        domain.Chain      `json:"chain"`
	Status       string            `json:"status"`
	Address      string            `json:"address,omitempty"`
	Balance      *BalanceView      `json:"balance,omitempty"`
	Tokens       []TokenView       `json:"tokens"`
	NFTs         []NFTView         `json:"nfts"`
	NFTError     string            `json:"nft_error,omitempty"`
	Transactions []TransactionView `json:"transactions"`
	Loading      bool              `json:"loading"`
	LoadingSteps map[Step]bool     `json:"loading_steps"`
	Errors       map[Step]string   `json:"errors,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Observer receives a snapshot after every applied write.
type Observer func(Snapshot)

// View is the mutable wallet view. Writes after Close are dropped.
type View struct {
	mu sync.Mutex

	chain   domain.Chain
	status  domain.ConnectionStatus
	address string
	balance *domain.Balance
	tokens  []domain.TokenBalance
	nfts    []domain.NFT
	nftErr  string
	txs     []domain.TransactionRecord
	loading map[Step]bool
	errs    map[Step]string
	updated time.Time
	version uint64
	closed  bool

	observers map[int]Observer
	nextObs   int
}

// New creates an empty, disconnected view for chain.
func New(chain domain.Chain) *View {
	return &View{
		chain:     chain,
		status:    domain.StatusDisconnected,
		loading:   make(map[Step]bool),
		errs:      make(map[Step]string),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (v *View) Subscribe(fn Observer) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextObs
	v.nextObs++
	v.observers[id] = fn
	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// Close disposes the view. Subsequent writes are no-ops.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.observers = make(map[int]Observer)
}

// Closed reports whether the view was disposed.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// update applies fn under the lock and notifies observers. It reports
// whether the write was applied.
func (v *View) update(fn func()) bool {
	return v.apply(nil, fn)
}

// apply is update with an extra precondition checked under the lock.
func (v *View) apply(cond func() bool, fn func()) bool {
	v.mu.Lock()
	if v.closed || (cond != nil && !cond()) {
		v.mu.Unlock()
		return false
	}
	fn()
	v.version++
	v.updated = time.Now()
	snap := v.snapshotLocked()
	observers := make([]Observer, 0, len(v.observers))
	for _, o := range v.observers {
		observers = append(observers, o)
	}
	v.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
	return true
}

// SetConnection records the connection status and address.
func (v *View) SetConnection(status domain.ConnectionStatus, address string) bool {
	return v.update(func() {
		v.status = status
		v.address = address
	})
}

// SetLoading sets the loading flag of step.
func (v *View) SetLoading(step Step, loading bool) bool {
	return v.update(v.setLoading(step, loading))
}

func (v *View) setLoading(step Step, loading bool) func() {
	return func() {
		v.loading[step] = loading
	}
}

// SetHoldings replaces balance and tokens and clears the balance error.
func (v *View) SetHoldings(h domain.Holdings) bool {
	return v.update(v.setHoldings(h))
}

func (v *View) setHoldings(h domain.Holdings) func() {
	b := domain.Balance{Chain: h.Native.Chain, Raw: cloneInt(h.Native.Raw)}
	tokens := append([]domain.TokenBalance(nil), h.Tokens...)
	return func() {
		v.balance = &b
		v.tokens = tokens
		delete(v.errs, StepBalance)
	}
}

// SetBalance replaces only the native balance.
func (v *View) SetBalance(b domain.Balance) bool {
	return v.update(func() {
		nb := domain.Balance{Chain: b.Chain, Raw: cloneInt(b.Raw)}
		v.balance = &nb
		delete(v.errs, StepBalance)
	})
}

// SetNFTs replaces NFTs and clears the NFT error.
func (v *View) SetNFTs(nfts []domain.NFT) bool {
	return v.update(v.setNFTs(nfts))
}

func (v *View) setNFTs(nfts []domain.NFT) func() {
	nfts = append([]domain.NFT(nil), nfts...)
	return func() {
		v.nfts = nfts
		v.nftErr = ""
		delete(v.errs, StepNFTs)
	}
}

// SetTransactions replaces the history with the most recent records.
func (v *View) SetTransactions(txs []domain.TransactionRecord) bool {
	return v.update(v.setTransactions(txs))
}

func (v *View) setTransactions(txs []domain.TransactionRecord) func() {
	recent := domain.RecentTransactions(txs)
	return func() {
		v.txs = recent
		delete(v.errs, StepTransactions)
	}
}

// SetError records a failure of step. Existing data for the step is kept.
// A failed NFT step also sets the inline NFT error message.
func (v *View) SetError(step Step, message string) bool {
	return v.update(v.setError(step, message))
}

func (v *View) setError(step Step, message string) func() {
	return func() {
		v.errs[step] = message
		if step == StepNFTs {
			v.nftErr = message
		}
	}
}

// Reset clears all wallet data, e.g. after disconnect.
func (v *View) Reset() bool {
	return v.update(func() {
		v.status = domain.StatusDisconnected
		v.address = ""
		v.balance = nil
		v.tokens = nil
		v.nfts = nil
		v.nftErr = ""
		v.txs = nil
		v.loading = make(map[Step]bool)
		v.errs = make(map[Step]string)
	})
}

// Writer applies refresh results on behalf of one connected address.
// Its writes are dropped once the view shows another address, was reset,
// or was closed.
type Writer struct {
	v       *View
	address string
}

// For returns a Writer bound to address.
func (v *View) For(address string) Writer {
	return Writer{v: v, address: address}
}

func (w Writer) owns() bool {
	return w.address != "" && w.v.address == w.address
}

// Current reports whether the view still belongs to the writer's address.
func (w Writer) Current() bool {
	w.v.mu.Lock()
	defer w.v.mu.Unlock()
	return !w.v.closed && w.owns()
}

// SetLoading sets the loading flag of step.
func (w Writer) SetLoading(step Step, loading bool) bool {
	return w.v.apply(w.owns, w.v.setLoading(step, loading))
}

// SetHoldings replaces balance and tokens.
func (w Writer) SetHoldings(h domain.Holdings) bool {
	return w.v.apply(w.owns, w.v.setHoldings(h))
}

// SetNFTs replaces NFTs.
func (w Writer) SetNFTs(nfts []domain.NFT) bool {
	return w.v.apply(w.owns, w.v.setNFTs(nfts))
}

// SetTransactions replaces the history.
func (w Writer) SetTransactions(txs []domain.TransactionRecord) bool {
	return w.v.apply(w.owns, w.v.setTransactions(txs))
}

// SetError records a failure of step.
func (w Writer) SetError(step Step, message string) bool {
	return w.v.apply(w.owns, w.v.setError(step, message))
}

// Balance returns the current native balance, if loaded.
func (v *View) Balance() (domain.Balance, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balance == nil {
		return domain.Balance{}, false
	}
	return domain.Balance{Chain: v.balance.Chain, Raw: cloneInt(v.balance.Raw)}, true
}

// Transactions returns a copy of the current history.
func (v *View) Transactions() []domain.TransactionRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.TransactionRecord(nil), v.txs...)
}

// Snapshot returns a copy of the view with display values.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:      v.version,
		Chain:        v.chain,
		Status:       v.status.String(),
		Address:      v.address,
		Tokens:       make([]TokenView, 0, len(v.tokens)),
		NFTs:         make([]NFTView, 0, len(v.nfts)),
		NFTError:     v.nftErr,
		Transactions: make([]TransactionView, 0, len(v.txs)),
		LoadingSteps: make(map[Step]bool, len(Steps)),
		UpdatedAt:    v.updated,
	}

	for _, step := range Steps {
		s.LoadingSteps[step] = v.loading[step]
		s.Loading = s.Loading || v.loading[step]
	}
	if len(v.errs) > 0 {
		s.Errors = make(map[Step]string, len(v.errs))
		for k, msg := range v.errs {
			s.Errors[k] = msg
		}
	}

	if v.balance != nil {
		decimals := v.balance.Chain.NativeDecimals()
		s.Balance = &BalanceView{
			Raw:     intString(v.balance.Raw),
			Display: format.Native(v.balance.Raw, decimals),
			Symbol:  v.balance.Chain.NativeSymbol(),
		}
	}

	for _, t := range v.tokens {
		s.Tokens = append(s.Tokens, TokenView{
			Mint:         t.Mint,
			Symbol:       t.Symbol,
			TokenAccount: t.TokenAccount,
			Raw:          intString(t.Amount),
			Decimals:     t.Decimals,
			Display:      format.Token(t.Amount, t.Decimals),
		})
	}

	for _, n := range v.nfts {
		s.NFTs = append(s.NFTs, NFTView{
			Mint:       n.Mint,
			Name:       n.Name,
			Image:      n.Image,
			Collection: n.Collection,
		})
	}

	decimals := v.chain.NativeDecimals()
	for _, tx := range v.txs {
		s.Transactions = append(s.Transactions, TransactionView{
			Signature:    tx.Signature,
			Direction:    tx.Direction,
			Raw:          intString(tx.Amount),
			Display:      format.Native(tx.Amount, decimals),
			Timestamp:    tx.Timestamp,
			Counterparty: tx.Counterparty,
			Failed:       tx.Failed,
			ExplorerURL:  v.chain.ExplorerTxURL(tx.Signature),
		})
	}

	return s
}

func cloneInt(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

func intString(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}
