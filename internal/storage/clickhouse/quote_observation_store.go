package clickhouse

import (
	"context"
	"fmt"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// QuoteObservationStore implements storage.QuoteObservationStore using ClickHouse.
type QuoteObservationStore struct {
	conn *Conn
}

// NewQuoteObservationStore creates a new QuoteObservationStore.
func NewQuoteObservationStore(conn *Conn) *QuoteObservationStore {
	return &QuoteObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.QuoteObservationStore = (*QuoteObservationStore)(nil)

// InsertBulk adds multiple observations. MergeTree does not enforce
// uniqueness, so duplicates are accepted silently.
func (s *QuoteObservationStore) InsertBulk(ctx context.Context, obs []*domain.QuoteObservation) error {
	if len(obs) == 0 {
		return nil
	}

	for _, o := range obs {
		if o == nil || o.ReplicationID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO quote_observations (
			replication_id, input_mint, output_mint,
			in_amount_raw, out_amount_raw, slippage_bps,
			price_impact_pct, latency_ms, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			o.ReplicationID, o.InputMint, o.OutputMint,
			o.InAmountRaw, o.OutAmountRaw, o.SlippageBps,
			o.PriceImpactPct, o.LatencyMs, uint64(o.ObservedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByReplicationID retrieves all observations for a replication,
// ordered by observed_at ASC.
func (s *QuoteObservationStore) GetByReplicationID(ctx context.Context, replicationID string) ([]*domain.QuoteObservation, error) {
	query := `
		SELECT replication_id, input_mint, output_mint,
			in_amount_raw, out_amount_raw, slippage_bps,
			price_impact_pct, latency_ms, observed_at
		FROM quote_observations
		WHERE replication_id = ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, replicationID)
	if err != nil {
		return nil, fmt.Errorf("query by replication id: %w", err)
	}
	defer rows.Close()

	return scanQuoteObservations(rows)
}

// GetByTimeRange retrieves observations within [start, end] (inclusive).
func (s *QuoteObservationStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.QuoteObservation, error) {
	query := `
		SELECT replication_id, input_mint, output_mint,
			in_amount_raw, out_amount_raw, slippage_bps,
			price_impact_pct, latency_ms, observed_at
		FROM quote_observations
		WHERE observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanQuoteObservations(rows)
}

// chRows abstracts driver.Rows for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanQuoteObservations scans multiple rows.
func scanQuoteObservations(rows chRows) ([]*domain.QuoteObservation, error) {
	var obs []*domain.QuoteObservation

	for rows.Next() {
		var o domain.QuoteObservation
		var observedAt uint64

		err := rows.Scan(
			&o.ReplicationID, &o.InputMint, &o.OutputMint,
			&o.InAmountRaw, &o.OutAmountRaw, &o.SlippageBps,
			&o.PriceImpactPct, &o.LatencyMs, &observedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan quote observation row: %w", err)
		}

		o.ObservedAt = int64(observedAt)
		obs = append(obs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote observation rows: %w", err)
	}

	return obs, nil
}
