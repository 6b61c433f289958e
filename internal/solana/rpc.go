package solana

import "context"

// RPCClient defines the Solana JSON-RPC HTTP surface the pipeline uses.
type RPCClient interface {
	// GetLatestBlockhash fetches a recent blockhash for transaction signing.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// SendTransaction submits a signed, base64-encoded transaction exactly
	// once and returns its signature. Never retried.
	SendTransaction(ctx context.Context, base64Tx string) (string, error)

	// GetSignatureStatuses returns confirmation status per signature;
	// a nil entry means the signature is not yet known to the cluster.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetSignaturesForAddress retrieves recent signatures for an address.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a confirmed transaction by signature,
	// nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// LatestBlockhash is the recency value bound into a transaction before
// signing. Valid only for a short block-height window.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SignatureStatus is the cluster's view of a submitted transaction.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	Err                interface{}
	ConfirmationStatus string // "processed" | "confirmed" | "finalized"
}

// Confirmed reports whether the status reached at least confirmed commitment.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// SignatureInfo is one entry of a getSignaturesForAddress response.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts controls getSignaturesForAddress pagination.
type SignaturesOpts struct {
	Before string
	Until  string
	Limit  int
}

// Transaction is a confirmed transaction as seen by the watcher.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
