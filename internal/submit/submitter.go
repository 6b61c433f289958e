// Package submit signs built swap transactions and drives them to
// confirmed commitment.
package submit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/wallet"
)

// Submission failure classes. Rejections are terminal; network errors
// leave the transaction in an unknown state and are never retried here.
var (
	ErrDecode         = errors.New("transaction does not decode")
	ErrSigning        = errors.New("signing failed")
	ErrRejected       = errors.New("transaction rejected")
	ErrConfirmTimeout = errors.New("confirmation timed out")
	ErrNetwork        = errors.New("submission network failure")
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultConfirmTimeout = 60 * time.Second
)

// Submitter owns the sign-and-submit step of a replication.
type Submitter struct {
	rpc            solana.RPCClient
	log            *zap.Logger
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithPollInterval sets the status poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(s *Submitter) { s.pollInterval = d }
}

// WithConfirmTimeout bounds how long a submitted transaction is polled
// before giving up.
func WithConfirmTimeout(d time.Duration) Option {
	return func(s *Submitter) { s.confirmTimeout = d }
}

// NewSubmitter creates a Submitter on the given RPC client.
func NewSubmitter(rpc solana.RPCClient, log *zap.Logger, opts ...Option) *Submitter {
	s := &Submitter{
		rpc:            rpc,
		log:            log,
		pollInterval:   defaultPollInterval,
		confirmTimeout: defaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignAndSubmit decodes the base64 transaction blob, binds a fresh
// blockhash, signs the message with the wallet, submits it exactly once
// and polls until confirmed commitment. Returns the on-chain signature.
//
// A non-empty signature means the transaction was handed to the network
// and may land regardless of the error; an empty signature means the
// attempt failed before anything was broadcast. The transaction is never
// re-sent: a network failure after submission leaves the outcome unknown
// and is reported as ErrNetwork rather than risking a duplicate swap.
func (s *Submitter) SignAndSubmit(ctx context.Context, base64Tx string, signer wallet.Capability) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Tx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// The blob may have aged in the quote/build steps. Bind a fresh
	// blockhash before signing so the signature covers it.
	bh, err := s.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: fetching blockhash: %v", ErrNetwork, err)
	}
	blockhash, err := solanago.HashFromBase58(bh.Blockhash)
	if err != nil {
		return "", fmt.Errorf("%w: bad blockhash %q: %v", ErrNetwork, bh.Blockhash, err)
	}
	tx.Message.RecentBlockhash = blockhash

	if err := s.sign(tx, signer); err != nil {
		return "", err
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("%w: marshaling signed transaction: %v", ErrSigning, err)
	}

	sig, err := s.rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(signed))
	if err != nil {
		// The transaction left this process; report its signature so the
		// attempt stays traceable even when the node's answer was lost.
		localSig := tx.Signatures[0].String()
		var rpcErr *solana.RPCError
		if errors.As(err, &rpcErr) {
			return localSig, fmt.Errorf("%w: %v", ErrRejected, rpcErr)
		}
		return localSig, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	s.log.Info("transaction submitted",
		zap.String("signature", sig),
		zap.String("wallet", signer.PublicKey().String()),
		zap.Uint64("last_valid_block_height", bh.LastValidBlockHeight))

	if err := s.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

// sign places the wallet's signature at its required-signer position.
func (s *Submitter) sign(tx *solanago.Transaction, signer wallet.Capability) error {
	numRequired := int(tx.Message.Header.NumRequiredSignatures)
	if numRequired == 0 || numRequired > len(tx.Message.AccountKeys) {
		return fmt.Errorf("%w: message requires %d signatures over %d keys",
			ErrSigning, numRequired, len(tx.Message.AccountKeys))
	}

	signerIx := -1
	for i := 0; i < numRequired; i++ {
		if tx.Message.AccountKeys[i] == signer.PublicKey() {
			signerIx = i
			break
		}
	}
	if signerIx < 0 {
		return fmt.Errorf("%w: wallet %s is not a required signer", ErrSigning, signer.PublicKey())
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: marshaling message: %v", ErrSigning, err)
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	if len(tx.Signatures) < numRequired {
		sigs := make([]solanago.Signature, numRequired)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	tx.Signatures[signerIx] = sig
	return nil
}

// awaitConfirmation polls signature status until confirmed commitment
// or the configured timeout. Transient poll failures are tolerated; the
// on-chain error field makes a rejection terminal.
func (s *Submitter) awaitConfirmation(ctx context.Context, sig string) error {
	deadline := time.After(s.confirmTimeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrConfirmTimeout, ctx.Err())
		case <-deadline:
			return fmt.Errorf("%w: %s not confirmed after %s", ErrConfirmTimeout, sig, s.confirmTimeout)
		case <-ticker.C:
			statuses, err := s.rpc.GetSignatureStatuses(ctx, []string{sig})
			if err != nil {
				s.log.Warn("status poll failed", zap.String("signature", sig), zap.Error(err))
				continue
			}
			if len(statuses) == 0 || statuses[0] == nil {
				continue
			}
			if statuses[0].Err != nil {
				return fmt.Errorf("%w: failed on chain: %v", ErrRejected, statuses[0].Err)
			}
			if statuses[0].Confirmed() {
				return nil
			}
		}
	}
}
