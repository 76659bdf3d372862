package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WindowAggregate // keyed by (lot, window end)
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{
		data: make(map[string]*domain.WindowAggregate),
	}
}

// aggregateKey generates a unique key for a window instance.
func aggregateKey(a *domain.WindowAggregate) string {
	return fmt.Sprintf("%s|%d", a.Lot, a.WindowEnd.Unix())
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if an aggregate for
// the same (lot, window end) exists.
func (s *AggregateStore) Insert(_ context.Context, a *domain.WindowAggregate) error {
	if a == nil || a.Lot == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := aggregateKey(a)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	aggCopy := *a
	s.data[key] = &aggCopy
	return nil
}

// GetByLot retrieves all aggregates for a lot, ordered by window end ASC.
func (s *AggregateStore) GetByLot(_ context.Context, lot string) ([]*domain.WindowAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WindowAggregate
	for _, a := range s.data {
		if a.Lot == lot {
			aggCopy := *a
			result = append(result, &aggCopy)
		}
	}

	sortAggregates(result)
	return result, nil
}

// GetAll retrieves all aggregates, ordered by (window end, lot) ASC.
func (s *AggregateStore) GetAll(_ context.Context) ([]*domain.WindowAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WindowAggregate, 0, len(s.data))
	for _, a := range s.data {
		aggCopy := *a
		result = append(result, &aggCopy)
	}

	sortAggregates(result)
	return result, nil
}

func sortAggregates(aggregates []*domain.WindowAggregate) {
	sort.Slice(aggregates, func(i, j int) bool {
		if !aggregates[i].WindowEnd.Equal(aggregates[j].WindowEnd) {
			return aggregates[i].WindowEnd.Before(aggregates[j].WindowEnd)
		}
		return aggregates[i].Lot < aggregates[j].Lot
	})
}

var _ storage.AggregateStore = (*AggregateStore)(nil)
