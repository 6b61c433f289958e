package memory

import (
	"context"
	"sort"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// QuoteObservationStore is an in-memory implementation of
// storage.QuoteObservationStore.
type QuoteObservationStore struct {
	mu   sync.RWMutex
	data []*domain.QuoteObservation
}

// NewQuoteObservationStore creates a new in-memory quote observation store.
func NewQuoteObservationStore() *QuoteObservationStore {
	return &QuoteObservationStore{}
}

// InsertBulk adds multiple observations.
func (s *QuoteObservationStore) InsertBulk(_ context.Context, obs []*domain.QuoteObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		if o == nil || o.ReplicationID == "" {
			return storage.ErrInvalidInput
		}
		copy := *o
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByReplicationID retrieves all observations for a replication,
// ordered by observed_at ASC.
func (s *QuoteObservationStore) GetByReplicationID(_ context.Context, replicationID string) ([]*domain.QuoteObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.QuoteObservation
	for _, o := range s.data {
		if o.ReplicationID == replicationID {
			copy := *o
			result = append(result, &copy)
		}
	}

	sortByObservedAt(result)
	return result, nil
}

// GetByTimeRange retrieves observations within [start, end] (inclusive).
func (s *QuoteObservationStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.QuoteObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.QuoteObservation
	for _, o := range s.data {
		if o.ObservedAt >= start && o.ObservedAt <= end {
			copy := *o
			result = append(result, &copy)
		}
	}

	sortByObservedAt(result)
	return result, nil
}

func sortByObservedAt(obs []*domain.QuoteObservation) {
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].ObservedAt < obs[j].ObservedAt
	})
}

var _ storage.QuoteObservationStore = (*QuoteObservationStore)(nil)
