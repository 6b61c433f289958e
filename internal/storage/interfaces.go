package storage

import (
	"context"

	"solana-copy-trader/internal/domain"
)

// ReplicationStore provides access to the replications journal.
// One row is written per replication attempt, at its terminal state.
type ReplicationStore interface {
	// Insert adds a finished replication. Returns ErrDuplicateKey if
	// replication_id exists.
	Insert(ctx context.Context, r *domain.ReplicationRecord) error

	// GetByID retrieves a replication by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, replicationID string) (*domain.ReplicationRecord, error)

	// GetBySourceSignature retrieves all replications triggered by an
	// observed transaction, ordered by created_at ASC.
	GetBySourceSignature(ctx context.Context, signature string) ([]*domain.ReplicationRecord, error)

	// GetByTimeRange retrieves replications created within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ReplicationRecord, error)
}

// QuoteObservationStore provides access to quote telemetry storage.
type QuoteObservationStore interface {
	// InsertBulk adds multiple observations.
	InsertBulk(ctx context.Context, obs []*domain.QuoteObservation) error

	// GetByReplicationID retrieves all observations for a replication,
	// ordered by observed_at ASC.
	GetByReplicationID(ctx context.Context, replicationID string) ([]*domain.QuoteObservation, error)

	// GetByTimeRange retrieves observations within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.QuoteObservation, error)
}
