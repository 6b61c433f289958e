package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// ReplicationStore is an in-memory implementation of storage.ReplicationStore.
type ReplicationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ReplicationRecord // keyed by replication_id
}

// NewReplicationStore creates a new in-memory replication store.
func NewReplicationStore() *ReplicationStore {
	return &ReplicationStore{
		data: make(map[string]*domain.ReplicationRecord),
	}
}

// Insert adds a finished replication. Returns ErrDuplicateKey if exists.
func (s *ReplicationStore) Insert(_ context.Context, r *domain.ReplicationRecord) error {
	if r == nil || r.ReplicationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ReplicationID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.ReplicationID] = &copy
	return nil
}

// GetByID retrieves a replication by its ID. Returns ErrNotFound if not exists.
func (s *ReplicationStore) GetByID(_ context.Context, replicationID string) (*domain.ReplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[replicationID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetBySourceSignature retrieves all replications triggered by an observed
// transaction, ordered by created_at ASC.
func (s *ReplicationStore) GetBySourceSignature(_ context.Context, signature string) ([]*domain.ReplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReplicationRecord
	for _, r := range s.data {
		if r.SourceSignature == signature {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortByCreatedAt(result)
	return result, nil
}

// GetByTimeRange retrieves replications created within [start, end] (inclusive).
func (s *ReplicationStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.ReplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReplicationRecord
	for _, r := range s.data {
		if r.CreatedAt >= start && r.CreatedAt <= end {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortByCreatedAt(result)
	return result, nil
}

func sortByCreatedAt(records []*domain.ReplicationRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].ReplicationID < records[j].ReplicationID
	})
}

var _ storage.ReplicationStore = (*ReplicationStore)(nil)
