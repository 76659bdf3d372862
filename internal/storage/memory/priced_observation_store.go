package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// PricedObservationStore is an in-memory implementation of
// storage.PricedObservationStore.
type PricedObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricedObservation // keyed by (lot, event time, id)
}

// NewPricedObservationStore creates a new in-memory priced observation store.
func NewPricedObservationStore() *PricedObservationStore {
	return &PricedObservationStore{
		data: make(map[string]*domain.PricedObservation),
	}
}

func pricedKey(p *domain.PricedObservation) string {
	return fmt.Sprintf("%s|%d|%d", p.SystemCodeNumber, p.EventTime.Unix(), p.ID)
}

// InsertBulk adds multiple priced observations. Fails entire batch on any
// duplicate (existing or intra-batch).
func (s *PricedObservationStore) InsertBulk(_ context.Context, priced []*domain.PricedObservation) error {
	if len(priced) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(priced))
	for _, p := range priced {
		if p == nil || p.SystemCodeNumber == "" {
			return storage.ErrInvalidInput
		}
		key := pricedKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range priced {
		pCopy := *p
		s.data[pricedKey(p)] = &pCopy
	}

	return nil
}

// GetByLot retrieves all priced observations for a lot, ordered by
// (event time, id) ASC.
func (s *PricedObservationStore) GetByLot(_ context.Context, lot string) ([]*domain.PricedObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricedObservation
	for _, p := range s.data {
		if p.SystemCodeNumber == lot {
			pCopy := *p
			result = append(result, &pCopy)
		}
	}

	sortPriced(result)
	return result, nil
}

// GetByTimeRange retrieves priced observations for a lot within [start, end]
// (inclusive).
func (s *PricedObservationStore) GetByTimeRange(_ context.Context, lot string, start, end time.Time) ([]*domain.PricedObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricedObservation
	for _, p := range s.data {
		if p.SystemCodeNumber == lot && !p.EventTime.Before(start) && !p.EventTime.After(end) {
			pCopy := *p
			result = append(result, &pCopy)
		}
	}

	sortPriced(result)
	return result, nil
}

func sortPriced(priced []*domain.PricedObservation) {
	sort.Slice(priced, func(i, j int) bool {
		if !priced[i].EventTime.Equal(priced[j].EventTime) {
			return priced[i].EventTime.Before(priced[j].EventTime)
		}
		return priced[i].ID < priced[j].ID
	})
}

var _ storage.PricedObservationStore = (*PricedObservationStore)(nil)
