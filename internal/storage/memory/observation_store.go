// Package memory provides in-memory implementations of the storage
// interfaces, used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Observation // keyed by (lot, timestamp, id)
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]*domain.Observation),
	}
}

// observationKey generates a unique key for an observation.
func observationKey(o *domain.Observation) string {
	return fmt.Sprintf("%s|%s|%d", o.SystemCodeNumber, o.Timestamp, o.ID)
}

// InsertBulk adds multiple observations atomically. Fails entire batch on
// any duplicate (existing or intra-batch).
func (s *ObservationStore) InsertBulk(_ context.Context, observations []*domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(observations))
	for _, o := range observations {
		if o == nil || o.SystemCodeNumber == "" {
			return storage.ErrInvalidInput
		}
		key := observationKey(o)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, o := range observations {
		obsCopy := *o
		s.data[observationKey(o)] = &obsCopy
	}

	return nil
}

// GetByLot retrieves all observations for a lot, ordered by (timestamp, id) ASC.
func (s *ObservationStore) GetByLot(_ context.Context, lot string) ([]*domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data {
		if o.SystemCodeNumber == lot {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sortObservations(result)
	return result, nil
}

// GetAll retrieves every observation, ordered by (timestamp, id) ASC.
func (s *ObservationStore) GetAll(_ context.Context) ([]*domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Observation, 0, len(s.data))
	for _, o := range s.data {
		obsCopy := *o
		result = append(result, &obsCopy)
	}

	sortObservations(result)
	return result, nil
}

// sortObservations orders by (timestamp, id); the timestamp layout sorts
// lexicographically in chronological order.
func sortObservations(observations []*domain.Observation) {
	sort.Slice(observations, func(i, j int) bool {
		if observations[i].Timestamp != observations[j].Timestamp {
			return observations[i].Timestamp < observations[j].Timestamp
		}
		return observations[i].ID < observations[j].ID
	})
}

var _ storage.ObservationStore = (*ObservationStore)(nil)
