// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"solana-copy-trader/internal/solana"
)

// ErrUnavailable simulates a transport failure.
var ErrUnavailable = errors.New("rpc unavailable")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	// Blockhash is returned by GetLatestBlockhash.
	Blockhash solana.LatestBlockhash
	// BlockhashErr, when set, fails GetLatestBlockhash.
	BlockhashErr error

	// SendResult is the signature returned by SendTransaction.
	SendResult string
	// SendErr, when set, fails SendTransaction.
	SendErr error
	// Sent records every base64 transaction passed to SendTransaction.
	Sent []string

	// Statuses maps signature to the status sequence returned on successive
	// GetSignatureStatuses calls; the last entry repeats.
	Statuses map[string][]*solana.SignatureStatus
	statusIx map[string]int

	// Transactions backs GetTransaction.
	Transactions map[string]*solana.Transaction
	// Signatures backs GetSignaturesForAddress.
	Signatures map[string][]solana.SignatureInfo
}

// NewRPCClient creates a new stub RPC client with a usable blockhash.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash: solana.LatestBlockhash{
			Blockhash:            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
			LastValidBlockHeight: 1000,
		},
		Statuses:     make(map[string][]*solana.SignatureStatus),
		statusIx:     make(map[string]int),
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
	}
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	bh := c.Blockhash
	return &bh, nil
}

// SendTransaction records the submission and returns the configured result.
func (c *RPCClient) SendTransaction(_ context.Context, base64Tx string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Sent = append(c.Sent, base64Tx)
	if c.SendErr != nil {
		return "", c.SendErr
	}
	return c.SendResult, nil
}

// GetSignatureStatuses walks the configured status sequence per signature.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		seq, ok := c.Statuses[sig]
		if !ok || len(seq) == 0 {
			continue
		}
		ix := c.statusIx[sig]
		if ix >= len(seq) {
			ix = len(seq) - 1
		}
		out[i] = seq[ix]
		c.statusIx[sig] = ix + 1
	}
	return out, nil
}

// GetSignaturesForAddress retrieves signatures from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetTransaction retrieves a transaction from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Transactions[signature], nil
}
