// Package redisstore caches the most recent dynamic price per parking lot
// in Redis for quick display lookups.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// LatestPriceStore is a Redis-backed implementation of
// storage.LatestPriceStore.
type LatestPriceStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLatestPriceStore returns a redis-backed latest price store. A zero ttl
// keeps entries until overwritten.
func NewLatestPriceStore(client *redis.Client, ttl time.Duration) *LatestPriceStore {
	return &LatestPriceStore{client: client, ttl: ttl}
}

var _ storage.LatestPriceStore = (*LatestPriceStore)(nil)

func (s *LatestPriceStore) key(lot string) string {
	return fmt.Sprintf("pricing:latest:%s", lot)
}

// Set records the latest price for a lot.
func (s *LatestPriceStore) Set(ctx context.Context, p *domain.PricedObservation) error {
	if p == nil || p.SystemCodeNumber == "" {
		return storage.ErrInvalidInput
	}

	snapshot := domain.LatestPrice{
		Lot:          p.SystemCodeNumber,
		DynamicPrice: p.DynamicPrice,
		Occupancy:    p.Occupancy,
		Capacity:     p.Capacity,
		QueueLength:  p.QueueLength,
		EventTime:    p.EventTime,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal latest price: %w", err)
	}
	return s.client.Set(ctx, s.key(p.SystemCodeNumber), data, s.ttl).Err()
}

// Get retrieves the latest price for a lot. Returns storage.ErrNotFound if
// the lot has no cached price.
func (s *LatestPriceStore) Get(ctx context.Context, lot string) (*domain.LatestPrice, error) {
	result, err := s.client.Get(ctx, s.key(lot)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest price: %w", err)
	}

	var snapshot domain.LatestPrice
	if err := json.Unmarshal([]byte(result), &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal latest price: %w", err)
	}
	return &snapshot, nil
}
