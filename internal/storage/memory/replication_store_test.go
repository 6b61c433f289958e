package memory

import (
	"context"
	"errors"
	"testing"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func testRecord(id, signature string, createdAt int64) *domain.ReplicationRecord {
	return &domain.ReplicationRecord{
		ReplicationID:   id,
		SourceSignature: signature,
		WalletPubkey:    "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		InputMint:       "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		OutputMint:      domain.WrappedSOLMint,
		InputAmountRaw:  9_000_000,
		SizeFraction:    0.9,
		SlippageBps:     100,
		State:           domain.StateConfirmed,
		TxSignature:     "tx-" + id,
		CreatedAt:       createdAt,
		FinishedAt:      createdAt + 1500,
	}
}

func TestReplicationStore_InsertAndGet(t *testing.T) {
	store := NewReplicationStore()
	ctx := context.Background()

	r := testRecord("rep-1", "sig-1", 1000)
	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "rep-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SourceSignature != "sig-1" {
		t.Errorf("expected source signature sig-1, got %s", got.SourceSignature)
	}
	if got.State != domain.StateConfirmed {
		t.Errorf("expected state confirmed, got %s", got.State)
	}

	// Returned record is a copy, not shared state.
	got.State = domain.StateFailed
	again, _ := store.GetByID(ctx, "rep-1")
	if again.State != domain.StateConfirmed {
		t.Error("store state mutated through returned copy")
	}
}

func TestReplicationStore_Duplicate(t *testing.T) {
	store := NewReplicationStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRecord("rep-1", "sig-1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	err := store.Insert(ctx, testRecord("rep-1", "sig-other", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestReplicationStore_InvalidInput(t *testing.T) {
	store := NewReplicationStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.ReplicationRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestReplicationStore_GetByID_NotFound(t *testing.T) {
	store := NewReplicationStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReplicationStore_GetBySourceSignature(t *testing.T) {
	store := NewReplicationStore()
	ctx := context.Background()

	store.Insert(ctx, testRecord("rep-b", "sig-1", 2000))
	store.Insert(ctx, testRecord("rep-a", "sig-1", 1000))
	store.Insert(ctx, testRecord("rep-c", "sig-2", 1500))

	got, err := store.GetBySourceSignature(ctx, "sig-1")
	if err != nil {
		t.Fatalf("GetBySourceSignature failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Ordered by created_at ASC
	if got[0].ReplicationID != "rep-a" || got[1].ReplicationID != "rep-b" {
		t.Errorf("wrong order: %s, %s", got[0].ReplicationID, got[1].ReplicationID)
	}
}

func TestReplicationStore_GetByTimeRange(t *testing.T) {
	store := NewReplicationStore()
	ctx := context.Background()

	store.Insert(ctx, testRecord("rep-1", "sig-1", 1000))
	store.Insert(ctx, testRecord("rep-2", "sig-2", 2000))
	store.Insert(ctx, testRecord("rep-3", "sig-3", 3000))

	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(got))
	}
	if got[0].ReplicationID != "rep-1" || got[1].ReplicationID != "rep-2" {
		t.Errorf("wrong records: %s, %s", got[0].ReplicationID, got[1].ReplicationID)
	}
}

func TestQuoteObservationStore(t *testing.T) {
	store := NewQuoteObservationStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Fatalf("empty InsertBulk failed: %v", err)
	}

	obs := []*domain.QuoteObservation{
		{ReplicationID: "rep-1", InAmountRaw: 9_000_000, OutAmountRaw: 51234567, SlippageBps: 100, LatencyMs: 120, ObservedAt: 2000},
		{ReplicationID: "rep-1", InAmountRaw: 9_000_000, OutAmountRaw: 51000000, SlippageBps: 100, LatencyMs: 95, ObservedAt: 1000},
		{ReplicationID: "rep-2", InAmountRaw: 100, OutAmountRaw: 50, SlippageBps: 100, LatencyMs: 80, ObservedAt: 1500},
	}
	if err := store.InsertBulk(ctx, obs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByReplicationID(ctx, "rep-1")
	if err != nil {
		t.Fatalf("GetByReplicationID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(got))
	}
	if got[0].ObservedAt != 1000 || got[1].ObservedAt != 2000 {
		t.Errorf("observations not ordered by observed_at: %d, %d", got[0].ObservedAt, got[1].ObservedAt)
	}

	ranged, err := store.GetByTimeRange(ctx, 1000, 1500)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("expected 2 observations in range, got %d", len(ranged))
	}
}

func TestQuoteObservationStore_InvalidInput(t *testing.T) {
	store := NewQuoteObservationStore()

	err := store.InsertBulk(context.Background(), []*domain.QuoteObservation{{}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
