package storage

import (
	"context"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// ObservationStore provides access to raw observation storage.
type ObservationStore interface {
	// InsertBulk adds multiple observations atomically. Fails entire batch
	// on any duplicate (lot, timestamp, id).
	InsertBulk(ctx context.Context, observations []*domain.Observation) error

	// GetByLot retrieves all observations for a lot, ordered by (timestamp, id) ASC.
	GetByLot(ctx context.Context, lot string) ([]*domain.Observation, error)

	// GetAll retrieves every observation, ordered by (timestamp, id) ASC.
	GetAll(ctx context.Context) ([]*domain.Observation, error)
}

// AggregateStore provides access to daily window aggregate storage.
type AggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if an aggregate
	// for the same (lot, window end) exists; a window is emitted once and
	// never updated in place.
	Insert(ctx context.Context, a *domain.WindowAggregate) error

	// GetByLot retrieves all aggregates for a lot, ordered by window end ASC.
	GetByLot(ctx context.Context, lot string) ([]*domain.WindowAggregate, error)

	// GetAll retrieves all aggregates, ordered by (window end, lot) ASC.
	GetAll(ctx context.Context) ([]*domain.WindowAggregate, error)
}

// PricedObservationStore provides access to the per-event price timeseries.
type PricedObservationStore interface {
	// InsertBulk adds multiple priced observations. Fails entire batch on
	// any duplicate (lot, event time, id).
	InsertBulk(ctx context.Context, priced []*domain.PricedObservation) error

	// GetByLot retrieves all priced observations for a lot, ordered by
	// (event time, id) ASC.
	GetByLot(ctx context.Context, lot string) ([]*domain.PricedObservation, error)

	// GetByTimeRange retrieves priced observations for a lot within
	// [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, lot string, start, end time.Time) ([]*domain.PricedObservation, error)
}

// LatestPriceStore caches the most recent dynamic price per lot for quick
// display lookups.
type LatestPriceStore interface {
	// Set records the latest price for a lot.
	Set(ctx context.Context, p *domain.PricedObservation) error

	// Get retrieves the latest price for a lot. Returns ErrNotFound if the
	// lot has no cached price.
	Get(ctx context.Context, lot string) (*domain.LatestPrice, error)
}
