package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// ReplicationStore implements storage.ReplicationStore using PostgreSQL.
type ReplicationStore struct {
	pool *Pool
}

// NewReplicationStore creates a new ReplicationStore.
func NewReplicationStore(pool *Pool) *ReplicationStore {
	return &ReplicationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReplicationStore = (*ReplicationStore)(nil)

const replicationColumns = `
	replication_id, source_signature, wallet_pubkey,
	input_mint, output_mint, input_amount_raw,
	size_fraction, slippage_bps,
	state, failed_stage, failure_reason, tx_signature,
	quoted_out_amount, price_impact_pct,
	created_at, finished_at
`

// Insert adds a finished replication. Returns ErrDuplicateKey if replication_id exists.
func (s *ReplicationStore) Insert(ctx context.Context, r *domain.ReplicationRecord) error {
	if r == nil || r.ReplicationID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO replications (` + replicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ReplicationID,
		r.SourceSignature,
		r.WalletPubkey,
		r.InputMint,
		r.OutputMint,
		int64(r.InputAmountRaw),
		r.SizeFraction,
		int32(r.SlippageBps),
		string(r.State),
		string(r.FailedStage),
		r.FailureReason,
		r.TxSignature,
		int64(r.QuotedOutAmount),
		r.PriceImpactPct,
		r.CreatedAt,
		r.FinishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert replication: %w", err)
	}
	return nil
}

// GetByID retrieves a replication by its ID. Returns ErrNotFound if not exists.
func (s *ReplicationStore) GetByID(ctx context.Context, replicationID string) (*domain.ReplicationRecord, error) {
	query := `
		SELECT ` + replicationColumns + `
		FROM replications
		WHERE replication_id = $1
	`

	row := s.pool.QueryRow(ctx, query, replicationID)
	r, err := scanReplication(row)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get replication by id: %w", err)
	}
	return r, nil
}

// GetBySourceSignature retrieves all replications triggered by an observed
// transaction, ordered by created_at ASC.
func (s *ReplicationStore) GetBySourceSignature(ctx context.Context, signature string) ([]*domain.ReplicationRecord, error) {
	query := `
		SELECT ` + replicationColumns + `
		FROM replications
		WHERE source_signature = $1
		ORDER BY created_at ASC, replication_id ASC
	`

	rows, err := s.pool.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("get replications by source signature: %w", err)
	}
	defer rows.Close()

	return scanReplications(rows)
}

// GetByTimeRange retrieves replications created within [start, end] (inclusive).
func (s *ReplicationStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ReplicationRecord, error) {
	query := `
		SELECT ` + replicationColumns + `
		FROM replications
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, replication_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get replications by time range: %w", err)
	}
	defer rows.Close()

	return scanReplications(rows)
}

// scanReplication scans a single row into a ReplicationRecord.
func scanReplication(row pgx.Row) (*domain.ReplicationRecord, error) {
	var r domain.ReplicationRecord
	var inputAmount, quotedOut int64
	var slippage int32
	var state, failedStage string

	err := row.Scan(
		&r.ReplicationID,
		&r.SourceSignature,
		&r.WalletPubkey,
		&r.InputMint,
		&r.OutputMint,
		&inputAmount,
		&r.SizeFraction,
		&slippage,
		&state,
		&failedStage,
		&r.FailureReason,
		&r.TxSignature,
		&quotedOut,
		&r.PriceImpactPct,
		&r.CreatedAt,
		&r.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	r.InputAmountRaw = uint64(inputAmount)
	r.QuotedOutAmount = uint64(quotedOut)
	r.SlippageBps = uint32(slippage)
	r.State = domain.ReplicationState(state)
	r.FailedStage = domain.ReplicationState(failedStage)
	return &r, nil
}

// scanReplications scans multiple rows into a slice of ReplicationRecord.
func scanReplications(rows pgx.Rows) ([]*domain.ReplicationRecord, error) {
	var records []*domain.ReplicationRecord

	for rows.Next() {
		r, err := scanReplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan replication row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replication rows: %w", err)
	}

	return records, nil
}
