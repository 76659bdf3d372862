package memory

import (
	"context"
	"sync"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// LatestPriceStore is an in-memory implementation of storage.LatestPriceStore.
// Unlike the append-only stores it overwrites: only the newest snapshot per
// lot is kept.
type LatestPriceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LatestPrice
}

// NewLatestPriceStore creates a new in-memory latest price store.
func NewLatestPriceStore() *LatestPriceStore {
	return &LatestPriceStore{
		data: make(map[string]*domain.LatestPrice),
	}
}

// Set records the latest price for a lot.
func (s *LatestPriceStore) Set(_ context.Context, p *domain.PricedObservation) error {
	if p == nil || p.SystemCodeNumber == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.SystemCodeNumber] = &domain.LatestPrice{
		Lot:          p.SystemCodeNumber,
		DynamicPrice: p.DynamicPrice,
		Occupancy:    p.Occupancy,
		Capacity:     p.Capacity,
		QueueLength:  p.QueueLength,
		EventTime:    p.EventTime,
	}
	return nil
}

// Get retrieves the latest price for a lot. Returns ErrNotFound if the lot
// has no cached price.
func (s *LatestPriceStore) Get(_ context.Context, lot string) (*domain.LatestPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[lot]
	if !ok {
		return nil, storage.ErrNotFound
	}
	pCopy := *p
	return &pCopy, nil
}

var _ storage.LatestPriceStore = (*LatestPriceStore)(nil)
