// Package replicator drives one observed swap through the quote, build,
// sign and submit stages.
package replicator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/idhash"
	"solana-copy-trader/internal/jupiter"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/token"
	"solana-copy-trader/internal/wallet"
)

// Precondition errors. These are rejected before any stage runs and do
// not produce a journal row.
var (
	ErrIncompleteEvent = errors.New("swap event is incomplete")
	ErrZeroAmount      = errors.New("sized input amount is zero")
)

// Quoter prices a swap leg.
type Quoter interface {
	GetQuote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error)
}

// Builder asks the aggregator to build an unsigned swap transaction.
type Builder interface {
	BuildSwap(ctx context.Context, quote *jupiter.Quote, userPubkey string, priority jupiter.PriorityPolicy) (string, error)
}

// Submitter signs a built transaction and drives it to confirmation.
type Submitter interface {
	SignAndSubmit(ctx context.Context, base64Tx string, signer wallet.Capability) (string, error)
}

// Replicator mirrors observed swaps. All stages for one event run on the
// caller's goroutine; the sign-and-submit stage is serialized per wallet
// so concurrent replications never race on the same keypair.
type Replicator struct {
	quoter    Quoter
	builder   Builder
	submitter Submitter

	journal   storage.ReplicationStore
	telemetry storage.QuoteObservationStore
	metrics   *observability.Metrics
	log       *zap.Logger

	mu       sync.Mutex
	walletMu map[string]*sync.Mutex
}

// Option configures a Replicator.
type Option func(*Replicator)

// WithJournal attaches the replication journal.
func WithJournal(s storage.ReplicationStore) Option {
	return func(r *Replicator) { r.journal = s }
}

// WithTelemetry attaches the quote observation store.
func WithTelemetry(s storage.QuoteObservationStore) Option {
	return func(r *Replicator) { r.telemetry = s }
}

// WithMetrics overrides the metrics instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Replicator) { r.metrics = m }
}

// New creates a Replicator.
func New(quoter Quoter, builder Builder, submitter Submitter, log *zap.Logger, opts ...Option) *Replicator {
	r := &Replicator{
		quoter:    quoter,
		builder:   builder,
		submitter: submitter,
		metrics:   observability.DefaultMetrics,
		log:       log,
		walletMu:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InputAmount sizes the mirrored input: the observed sold amount scaled
// by the policy fraction, converted to base units of the sold mint.
// Scaling in decimal space first means an observed amount reported with
// wrong decimals still mirrors the human-readable size.
func InputAmount(sold *domain.TokenAmount, fraction float64) uint64 {
	decimals := token.Decimals(sold.Mint)
	scaled := sold.DecimalValue() * fraction * math.Pow10(int(decimals))
	if scaled <= 0 {
		return 0
	}
	return uint64(math.Round(scaled))
}

// Replicate mirrors one observed swap with the given policy and wallet.
// The returned record is the journal row for the attempt; err is non-nil
// when the attempt did not reach confirmed commitment.
func (r *Replicator) Replicate(ctx context.Context, event *domain.SwapEvent, policy domain.ReplicationPolicy, signer wallet.Capability) (*domain.ReplicationRecord, error) {
	if event == nil || !event.Complete() {
		return nil, ErrIncompleteEvent
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	amount := InputAmount(event.Sold, policy.SizeFraction)
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	pubkey := signer.PublicKey().String()
	rec := &domain.ReplicationRecord{
		ReplicationID:   idhash.ComputeReplicationID(event.Signature, pubkey),
		SourceSignature: event.Signature,
		WalletPubkey:    pubkey,
		InputMint:       event.Sold.Mint,
		OutputMint:      event.Bought.Mint,
		InputAmountRaw:  amount,
		SizeFraction:    policy.SizeFraction,
		SlippageBps:     policy.SlippageBps,
		CreatedAt:       time.Now().UnixMilli(),
	}

	log := r.log.With(
		zap.String("replication_id", rec.ReplicationID),
		zap.String("source_signature", event.Signature),
		zap.String("input_mint", rec.InputMint),
		zap.String("output_mint", rec.OutputMint),
		zap.Uint64("input_amount_raw", amount),
	)
	log.Info("replicating swap")

	quote, err := r.quote(ctx, rec, policy)
	if err != nil {
		return rec, r.finish(ctx, rec, log, domain.StateQuoting, err)
	}
	rec.QuotedOutAmount = quote.OutAmountRaw
	rec.PriceImpactPct = quote.PriceImpactPct

	blob, err := r.build(ctx, rec, quote, pubkey, policy)
	if err != nil {
		return rec, r.finish(ctx, rec, log, domain.StateBuilding, err)
	}

	sig, err := r.submit(ctx, blob, signer)
	if err != nil {
		// An empty signature means the attempt died before anything was
		// broadcast, including a blockhash fetch that never reached the node.
		rec.TxSignature = sig
		stage := domain.StateSubmitted
		if sig == "" {
			stage = domain.StateSigning
		}
		return rec, r.finish(ctx, rec, log, stage, err)
	}
	rec.TxSignature = sig

	rec.State = domain.StateConfirmed
	rec.FinishedAt = time.Now().UnixMilli()
	r.metrics.ReplicationsTotal.WithLabelValues("confirmed").Inc()
	r.metrics.LastSuccessfulReplication.SetToCurrentTime()
	r.metrics.ReplicationDuration.Observe(float64(rec.FinishedAt-rec.CreatedAt) / 1000)
	log.Info("replication confirmed", zap.String("tx_signature", sig))

	r.writeJournal(ctx, rec, log)
	return rec, nil
}

func (r *Replicator) quote(ctx context.Context, rec *domain.ReplicationRecord, policy domain.ReplicationPolicy) (*jupiter.Quote, error) {
	start := time.Now()
	quote, err := r.quoter.GetQuote(ctx, jupiter.QuoteRequest{
		InputMint:   rec.InputMint,
		OutputMint:  rec.OutputMint,
		AmountRaw:   rec.InputAmountRaw,
		SlippageBps: policy.SlippageBps,
	})
	elapsed := time.Since(start)

	r.metrics.QuoteLatency.Observe(elapsed.Seconds())
	r.metrics.StageDuration.WithLabelValues(string(domain.StateQuoting)).Observe(elapsed.Seconds())
	if err != nil {
		if errors.Is(err, jupiter.ErrNoRoute) {
			r.metrics.QuotesNoRoute.Inc()
		}
		return nil, err
	}
	r.metrics.QuotedPriceImpactPct.Observe(quote.PriceImpactPct)

	if r.telemetry != nil {
		obs := &domain.QuoteObservation{
			ReplicationID:  rec.ReplicationID,
			InputMint:      rec.InputMint,
			OutputMint:     rec.OutputMint,
			InAmountRaw:    rec.InputAmountRaw,
			OutAmountRaw:   quote.OutAmountRaw,
			SlippageBps:    policy.SlippageBps,
			PriceImpactPct: quote.PriceImpactPct,
			LatencyMs:      elapsed.Milliseconds(),
			ObservedAt:     time.Now().UnixMilli(),
		}
		if err := r.telemetry.InsertBulk(ctx, []*domain.QuoteObservation{obs}); err != nil {
			r.metrics.DBQueryErrors.WithLabelValues("clickhouse", "insert_quote_observation").Inc()
			r.log.Warn("writing quote observation failed", zap.Error(err))
		}
	}
	return quote, nil
}

func (r *Replicator) build(ctx context.Context, rec *domain.ReplicationRecord, quote *jupiter.Quote, pubkey string, policy domain.ReplicationPolicy) (string, error) {
	start := time.Now()
	blob, err := r.builder.BuildSwap(ctx, quote, pubkey, jupiter.PriorityPolicy{
		MaxLamports: policy.PriorityFeeCapLamports,
	})
	r.metrics.StageDuration.WithLabelValues(string(domain.StateBuilding)).Observe(time.Since(start).Seconds())
	return blob, err
}

func (r *Replicator) submit(ctx context.Context, blob string, signer wallet.Capability) (string, error) {
	mu := r.lockForWallet(signer.PublicKey().String())
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	sig, err := r.submitter.SignAndSubmit(ctx, blob, signer)
	elapsed := time.Since(start)
	r.metrics.StageDuration.WithLabelValues(string(domain.StateSubmitted)).Observe(elapsed.Seconds())
	if sig != "" {
		r.metrics.TransactionsSubmitted.Inc()
	}
	if err == nil {
		r.metrics.TransactionsConfirmed.Inc()
		r.metrics.ConfirmationDuration.Observe(elapsed.Seconds())
	}
	return sig, err
}

// lockForWallet returns the mutex serializing submissions for one wallet.
func (r *Replicator) lockForWallet(pubkey string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	mu, ok := r.walletMu[pubkey]
	if !ok {
		mu = &sync.Mutex{}
		r.walletMu[pubkey] = mu
	}
	return mu
}

// finish records a failed attempt and returns the stage error.
func (r *Replicator) finish(ctx context.Context, rec *domain.ReplicationRecord, log *zap.Logger, stage domain.ReplicationState, cause error) error {
	rec.State = domain.StateFailed
	rec.FailedStage = stage
	rec.FailureReason = cause.Error()
	rec.FinishedAt = time.Now().UnixMilli()

	r.metrics.ReplicationsTotal.WithLabelValues("failed").Inc()
	r.metrics.ReplicationFailures.WithLabelValues(string(stage)).Inc()
	log.Warn("replication failed",
		zap.String("stage", string(stage)),
		zap.Error(cause))

	r.writeJournal(ctx, rec, log)
	return fmt.Errorf("%s: %w", stage, cause)
}

// writeJournal persists the terminal record. A journal failure is logged
// but never turns a finished replication into an error.
func (r *Replicator) writeJournal(ctx context.Context, rec *domain.ReplicationRecord, log *zap.Logger) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Insert(ctx, rec); err != nil {
		r.metrics.DBQueryErrors.WithLabelValues("postgres", "insert_replication").Inc()
		log.Warn("writing replication journal failed", zap.Error(err))
	}
}
