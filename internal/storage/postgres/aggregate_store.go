package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// AggregateStore implements storage.AggregateStore using PostgreSQL.
type AggregateStore struct {
	pool *Pool
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(pool *Pool) *AggregateStore {
	return &AggregateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

// Insert adds a new aggregate. Returns ErrDuplicateKey if an aggregate for
// the same (lot, window end) exists; windows are emitted once, never updated.
func (s *AggregateStore) Insert(ctx context.Context, a *domain.WindowAggregate) (err error) {
	start := time.Now()
	defer func() { observeQuery("insert_aggregate", start, err) }()

	query := `
		INSERT INTO daily_aggregates (lot, window_end, avg_price, observation_count)
		VALUES ($1, $2, $3, $4)
	`

	_, err = s.pool.Exec(ctx, query,
		a.Lot,
		a.WindowEnd,
		a.AvgPrice,
		a.Count,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert aggregate: %w", err)
	}
	return nil
}

// GetByLot retrieves all aggregates for a lot, ordered by window end ASC.
func (s *AggregateStore) GetByLot(ctx context.Context, lot string) (aggregates []*domain.WindowAggregate, err error) {
	start := time.Now()
	defer func() { observeQuery("get_aggregates_by_lot", start, err) }()

	query := `
		SELECT lot, window_end, avg_price, observation_count
		FROM daily_aggregates
		WHERE lot = $1
		ORDER BY window_end ASC
	`

	rows, err := s.pool.Query(ctx, query, lot)
	if err != nil {
		return nil, fmt.Errorf("get aggregates by lot: %w", err)
	}
	defer rows.Close()

	return scanAggregates(rows)
}

// GetAll retrieves all aggregates, ordered by (window end, lot) ASC.
func (s *AggregateStore) GetAll(ctx context.Context) (aggregates []*domain.WindowAggregate, err error) {
	start := time.Now()
	defer func() { observeQuery("get_all_aggregates", start, err) }()

	query := `
		SELECT lot, window_end, avg_price, observation_count
		FROM daily_aggregates
		ORDER BY window_end ASC, lot ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all aggregates: %w", err)
	}
	defer rows.Close()

	return scanAggregates(rows)
}

// scanAggregates scans multiple rows into a slice of WindowAggregate.
func scanAggregates(rows pgx.Rows) ([]*domain.WindowAggregate, error) {
	var aggregates []*domain.WindowAggregate

	for rows.Next() {
		var a domain.WindowAggregate
		var windowEnd time.Time
		if err := rows.Scan(&a.Lot, &windowEnd, &a.AvgPrice, &a.Count); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		a.WindowEnd = windowEnd.UTC()
		aggregates = append(aggregates, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}

	return aggregates, nil
}
