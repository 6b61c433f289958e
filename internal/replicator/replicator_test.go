package replicator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/jupiter"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/storage/memory"
	"solana-copy-trader/internal/submit"
	"solana-copy-trader/internal/token"
	"solana-copy-trader/internal/wallet"
)

type stubQuoter struct {
	calls []jupiter.QuoteRequest
	quote *jupiter.Quote
	err   error
}

func (q *stubQuoter) GetQuote(_ context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error) {
	q.calls = append(q.calls, req)
	if q.err != nil {
		return nil, q.err
	}
	return q.quote, nil
}

type stubBuilder struct {
	calls int
	blob  string
	err   error
}

func (b *stubBuilder) BuildSwap(_ context.Context, _ *jupiter.Quote, _ string, _ jupiter.PriorityPolicy) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return b.blob, nil
}

type stubSubmitter struct {
	calls int
	sig   string
	err   error
}

// SignAndSubmit mirrors the real submitter's contract: the signature is
// returned alongside post-broadcast errors and empty before broadcast.
func (s *stubSubmitter) SignAndSubmit(_ context.Context, _ string, _ wallet.Capability) (string, error) {
	s.calls++
	return s.sig, s.err
}

func usdcSoldEvent() *domain.SwapEvent {
	return &domain.SwapEvent{
		Sold: &domain.TokenAmount{
			Mint:      token.USDCMint,
			RawAmount: 10_000_000, // 10.0 USDC
			Decimals:  6,
		},
		Bought: &domain.TokenAmount{
			Mint:      domain.WrappedSOLMint,
			RawAmount: 55_000_000,
			Decimals:  9,
		},
		Signature: "source-sig",
	}
}

func defaultPolicy() domain.ReplicationPolicy {
	return domain.ReplicationPolicy{
		SizeFraction:           0.9,
		SlippageBps:            100,
		PriorityFeeCapLamports: 1_000_000,
	}
}

func testQuote() *jupiter.Quote {
	return &jupiter.Quote{
		InputMint:      token.USDCMint,
		OutputMint:     domain.WrappedSOLMint,
		InAmountRaw:    9_000_000,
		OutAmountRaw:   51234567,
		PriceImpactPct: 0.0012,
		SlippageBps:    100,
	}
}

func newTestReplicator(q Quoter, b Builder, s Submitter, journal storage.ReplicationStore, telemetry storage.QuoteObservationStore) *Replicator {
	return New(q, b, s, zap.NewNop(), WithJournal(journal), WithTelemetry(telemetry))
}

func TestReplicate_Confirmed(t *testing.T) {
	kp, err := wallet.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	quoter := &stubQuoter{quote: testQuote()}
	builder := &stubBuilder{blob: "base64-blob"}
	submitter := &stubSubmitter{sig: "onchain-sig"}
	journal := memory.NewReplicationStore()
	telemetry := memory.NewQuoteObservationStore()

	r := newTestReplicator(quoter, builder, submitter, journal, telemetry)
	rec, err := r.Replicate(context.Background(), usdcSoldEvent(), defaultPolicy(), kp)
	if err != nil {
		t.Fatalf("Replicate failed: %v", err)
	}

	// 10.0 USDC scaled by 0.9 at 6 decimals.
	if len(quoter.calls) != 1 {
		t.Fatalf("expected 1 quote call, got %d", len(quoter.calls))
	}
	req := quoter.calls[0]
	if req.AmountRaw != 9_000_000 {
		t.Errorf("expected quote amount 9000000, got %d", req.AmountRaw)
	}
	if req.SlippageBps != 100 {
		t.Errorf("expected slippage 100, got %d", req.SlippageBps)
	}
	if req.InputMint != token.USDCMint || req.OutputMint != domain.WrappedSOLMint {
		t.Errorf("wrong pair: %s -> %s", req.InputMint, req.OutputMint)
	}

	if rec.State != domain.StateConfirmed {
		t.Errorf("expected confirmed state, got %s", rec.State)
	}
	if rec.TxSignature != "onchain-sig" {
		t.Errorf("expected tx signature onchain-sig, got %s", rec.TxSignature)
	}
	if rec.QuotedOutAmount != 51234567 {
		t.Errorf("expected quoted out amount 51234567, got %d", rec.QuotedOutAmount)
	}

	stored, err := journal.GetByID(context.Background(), rec.ReplicationID)
	if err != nil {
		t.Fatalf("journal row missing: %v", err)
	}
	if stored.State != domain.StateConfirmed {
		t.Errorf("journal state = %s, want confirmed", stored.State)
	}

	obs, err := telemetry.GetByReplicationID(context.Background(), rec.ReplicationID)
	if err != nil || len(obs) != 1 {
		t.Fatalf("expected 1 quote observation, got %d (err %v)", len(obs), err)
	}
	if obs[0].OutAmountRaw != 51234567 {
		t.Errorf("observation out amount = %d, want 51234567", obs[0].OutAmountRaw)
	}
}

func TestReplicate_IncompleteEvent(t *testing.T) {
	kp, _ := wallet.Generate()
	quoter := &stubQuoter{quote: testQuote()}
	r := newTestReplicator(quoter, &stubBuilder{}, &stubSubmitter{}, nil, nil)

	event := usdcSoldEvent()
	event.Bought = nil

	_, err := r.Replicate(context.Background(), event, defaultPolicy(), kp)
	if !errors.Is(err, ErrIncompleteEvent) {
		t.Errorf("expected ErrIncompleteEvent, got %v", err)
	}
	if len(quoter.calls) != 0 {
		t.Errorf("no quote should be requested for an incomplete event")
	}

	if _, err := r.Replicate(context.Background(), nil, defaultPolicy(), kp); !errors.Is(err, ErrIncompleteEvent) {
		t.Errorf("expected ErrIncompleteEvent for nil event, got %v", err)
	}
}

func TestReplicate_ZeroAmount(t *testing.T) {
	kp, _ := wallet.Generate()
	quoter := &stubQuoter{quote: testQuote()}
	r := newTestReplicator(quoter, &stubBuilder{}, &stubSubmitter{}, nil, nil)

	event := usdcSoldEvent()
	event.Sold.RawAmount = 1 // 0.000001 USDC, rounds to zero after scaling
	event.Sold.Decimals = 6

	policy := defaultPolicy()
	policy.SizeFraction = 0.4

	_, err := r.Replicate(context.Background(), event, policy, kp)
	if !errors.Is(err, ErrZeroAmount) {
		t.Errorf("expected ErrZeroAmount, got %v", err)
	}
	if len(quoter.calls) != 0 {
		t.Errorf("no quote should be requested for a zero amount")
	}
}

func TestReplicate_QuoteFailure(t *testing.T) {
	kp, _ := wallet.Generate()
	quoter := &stubQuoter{err: jupiter.ErrNoRoute}
	builder := &stubBuilder{}
	journal := memory.NewReplicationStore()

	r := newTestReplicator(quoter, builder, &stubSubmitter{}, journal, nil)
	rec, err := r.Replicate(context.Background(), usdcSoldEvent(), defaultPolicy(), kp)
	if !errors.Is(err, jupiter.ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if builder.calls != 0 {
		t.Error("build stage must not run after a quote failure")
	}

	if rec.State != domain.StateFailed || rec.FailedStage != domain.StateQuoting {
		t.Errorf("expected failed/quoting, got %s/%s", rec.State, rec.FailedStage)
	}

	stored, err := journal.GetByID(context.Background(), rec.ReplicationID)
	if err != nil {
		t.Fatalf("journal row missing: %v", err)
	}
	if stored.FailedStage != domain.StateQuoting {
		t.Errorf("journal failed stage = %s, want quoting", stored.FailedStage)
	}
}

func TestReplicate_BuildFailure(t *testing.T) {
	kp, _ := wallet.Generate()
	simErr := &jupiter.SimulationError{Reason: "SlippageToleranceExceeded"}
	submitter := &stubSubmitter{}

	r := newTestReplicator(&stubQuoter{quote: testQuote()}, &stubBuilder{err: simErr}, submitter, nil, nil)
	rec, err := r.Replicate(context.Background(), usdcSoldEvent(), defaultPolicy(), kp)

	var got *jupiter.SimulationError
	if !errors.As(err, &got) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if submitter.calls != 0 {
		t.Error("submit stage must not run after a build failure")
	}
	if rec.FailedStage != domain.StateBuilding {
		t.Errorf("expected failed stage building, got %s", rec.FailedStage)
	}
	if rec.QuotedOutAmount != 51234567 {
		t.Errorf("quote fields should be recorded, got %d", rec.QuotedOutAmount)
	}
}

func TestReplicate_SubmitFailureStages(t *testing.T) {
	tests := []struct {
		name      string
		submitErr error
		submitSig string // empty when the failure precedes broadcast
		wantStage domain.ReplicationState
	}{
		{"decode fails before signing", submit.ErrDecode, "", domain.StateSigning},
		{"signing failure", submit.ErrSigning, "", domain.StateSigning},
		{"blockhash fetch failure", submit.ErrNetwork, "", domain.StateSigning},
		{"node rejection", submit.ErrRejected, "dead-sig", domain.StateSubmitted},
		{"confirmation timeout", submit.ErrConfirmTimeout, "dead-sig", domain.StateSubmitted},
		{"send network failure", submit.ErrNetwork, "dead-sig", domain.StateSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, _ := wallet.Generate()
			r := newTestReplicator(&stubQuoter{quote: testQuote()}, &stubBuilder{blob: "blob"},
				&stubSubmitter{sig: tt.submitSig, err: tt.submitErr}, nil, nil)

			rec, err := r.Replicate(context.Background(), usdcSoldEvent(), defaultPolicy(), kp)
			if !errors.Is(err, tt.submitErr) {
				t.Fatalf("expected %v, got %v", tt.submitErr, err)
			}
			if rec.State != domain.StateFailed {
				t.Errorf("expected failed state, got %s", rec.State)
			}
			if rec.FailedStage != tt.wantStage {
				t.Errorf("expected failed stage %s, got %s", tt.wantStage, rec.FailedStage)
			}
			if rec.TxSignature != tt.submitSig {
				t.Errorf("expected tx signature %q, got %q", tt.submitSig, rec.TxSignature)
			}
		})
	}
}

func TestReplicate_SubmissionCountedOnlyAfterBroadcast(t *testing.T) {
	kp, _ := wallet.Generate()
	counter := observability.DefaultMetrics.TransactionsSubmitted
	before := testutil.ToFloat64(counter)

	// A signing failure never reaches the network and must not count.
	r := newTestReplicator(&stubQuoter{quote: testQuote()}, &stubBuilder{blob: "blob"},
		&stubSubmitter{err: submit.ErrSigning}, nil, nil)
	if _, err := r.Replicate(context.Background(), usdcSoldEvent(), defaultPolicy(), kp); err == nil {
		t.Fatal("expected signing failure")
	}
	if got := testutil.ToFloat64(counter); got != before {
		t.Errorf("pre-broadcast failure counted as a submission: %v -> %v", before, got)
	}

	// A broadcast transaction counts even when confirmation times out.
	r = newTestReplicator(&stubQuoter{quote: testQuote()}, &stubBuilder{blob: "blob"},
		&stubSubmitter{sig: "dead-sig", err: submit.ErrConfirmTimeout}, nil, nil)
	if _, err := r.Replicate(context.Background(), usdcSoldEvent(), defaultPolicy(), kp); err == nil {
		t.Fatal("expected confirmation timeout")
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("broadcast transaction not counted: %v -> %v", before, got)
	}
}

func TestReplicate_JournalFailureDoesNotFailReplication(t *testing.T) {
	kp, _ := wallet.Generate()
	journal := memory.NewReplicationStore()

	r := newTestReplicator(&stubQuoter{quote: testQuote()}, &stubBuilder{blob: "blob"},
		&stubSubmitter{sig: "sig"}, journal, nil)

	// Pre-insert the row so the journal write collides.
	event := usdcSoldEvent()
	first, err := r.Replicate(context.Background(), event, defaultPolicy(), kp)
	if err != nil {
		t.Fatalf("first Replicate failed: %v", err)
	}

	second, err := r.Replicate(context.Background(), event, defaultPolicy(), kp)
	if err != nil {
		t.Fatalf("confirmed replication must not fail on a journal error: %v", err)
	}
	if second.ReplicationID != first.ReplicationID {
		t.Errorf("same event and wallet must map to the same replication id")
	}
}

func TestInputAmount(t *testing.T) {
	tests := []struct {
		name     string
		sold     *domain.TokenAmount
		fraction float64
		want     uint64
	}{
		{
			name:     "usdc at 6 decimals",
			sold:     &domain.TokenAmount{Mint: token.USDCMint, RawAmount: 10_000_000, Decimals: 6},
			fraction: 0.9,
			want:     9_000_000,
		},
		{
			name:     "native sol at 9 decimals",
			sold:     &domain.TokenAmount{Mint: domain.NativeTokenID, RawAmount: 2_500_000_000, Decimals: 9},
			fraction: 0.9,
			want:     2_250_000_000,
		},
		{
			name:     "unknown mint defaults to 9 decimals",
			sold:     &domain.TokenAmount{Mint: "UnknownMint1111111111111111111111111111111", RawAmount: 1_000_000_000, Decimals: 9},
			fraction: 0.5,
			want:     500_000_000,
		},
		{
			name:     "dust rounds to zero",
			sold:     &domain.TokenAmount{Mint: token.USDCMint, RawAmount: 1, Decimals: 6},
			fraction: 0.4,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InputAmount(tt.sold, tt.fraction); got != tt.want {
				t.Errorf("InputAmount() = %d, want %d", got, tt.want)
			}
		})
	}
}
