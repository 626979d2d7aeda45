package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-wallet-lab/internal/solana"
)

// ErrNotFound is returned when an account or transaction is not found.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64
	TokenAccounts map[string][]solana.TokenAccount
	Transactions  map[string]*solana.Transaction
	Signatures    map[string][]solana.SignatureInfo
	Statuses      map[string]*solana.SignatureStatus
	Blockhash     string

	// LastValidBlockHeight is returned with Blockhash.
	LastValidBlockHeight uint64
	// BlockHeight is the current height; every GetBlockHeight call
	// advances it by BlockHeightStep.
	BlockHeight     uint64
	BlockHeightStep uint64
	// DropSent leaves submitted transactions without a status, as if the
	// cluster never processed them.
	DropSent bool

	// Sent holds every serialized transaction passed to SendTransaction.
	Sent [][]byte
	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// Err, when set, is returned by every read method.
	Err error
	// Calls counts invocations per method name.
	Calls map[string]int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Transactions:  make(map[string]*solana.Transaction),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Blockhash:     solana.SystemProgramID,
		Calls:         make(map[string]int),

		LastValidBlockHeight: 150,
	}
}

func (c *RPCClient) track(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls[method]++
	return c.Err
}

// CallCount returns how many times method was invoked.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

// GetBalance returns the stored balance.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	if err := c.track("getBalance"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Balances[address], nil
}

// GetTokenAccountsByOwner returns the stored token accounts.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, _ string) ([]solana.TokenAccount, error) {
	if err := c.track("getTokenAccountsByOwner"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenAccounts[owner], nil
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err := c.track("getTransaction"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.Transactions[signature]
	if !ok {
		return nil, ErrNotFound
	}
	return tx, nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.track("getSignaturesForAddress"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sigs, ok := c.Signatures[address]
	if !ok {
		return nil, nil
	}

	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}

	return sigs, nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	if err := c.track("getLatestBlockhash"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return &solana.LatestBlockhash{
		Blockhash:            c.Blockhash,
		LastValidBlockHeight: c.LastValidBlockHeight,
	}, nil
}

// GetBlockHeight returns the current height and advances it.
func (c *RPCClient) GetBlockHeight(_ context.Context) (uint64, error) {
	if err := c.track("getBlockHeight"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.BlockHeight
	c.BlockHeight += c.BlockHeightStep
	return h, nil
}

// SendTransaction records the transaction and marks it confirmed.
func (c *RPCClient) SendTransaction(_ context.Context, serialized []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls["sendTransaction"]++
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, serialized)
	sig := fmt.Sprintf("stub-signature-%d", len(c.Sent))
	if !c.DropSent {
		c.Statuses[sig] = &solana.SignatureStatus{ConfirmationStatus: solana.CommitmentConfirmed}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	if err := c.track("getSignatureStatuses"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, s := range signatures {
		out[i] = c.Statuses[s]
	}
	return out, nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddSignatures adds signatures for an address to the stub store.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = sigs
}
