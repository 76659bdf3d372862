package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

const insertObservationQuery = `
	INSERT INTO observations (
		record_id, lot, capacity, latitude, longitude, occupancy,
		vehicle_type, traffic_condition, queue_length, is_special_day,
		last_updated_date, last_updated_time, event_timestamp
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

// InsertBulk adds multiple observations atomically. Fails entire batch on
// any duplicate (lot, event_timestamp, record_id).
func (s *ObservationStore) InsertBulk(ctx context.Context, observations []*domain.Observation) (err error) {
	start := time.Now()
	defer func() { observeQuery("insert_observations", start, err) }()

	if len(observations) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range observations {
		_, err := tx.Exec(ctx, insertObservationQuery,
			o.ID,
			o.SystemCodeNumber,
			o.Capacity,
			o.Latitude,
			o.Longitude,
			o.Occupancy,
			o.VehicleType,
			o.TrafficConditionNearby,
			o.QueueLength,
			o.IsSpecialDay,
			o.LastUpdatedDate,
			o.LastUpdatedTime,
			o.Timestamp,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert observation in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByLot retrieves all observations for a lot, ordered by (timestamp, id) ASC.
func (s *ObservationStore) GetByLot(ctx context.Context, lot string) (observations []*domain.Observation, err error) {
	start := time.Now()
	defer func() { observeQuery("get_observations_by_lot", start, err) }()

	query := selectObservationQuery + `
		WHERE lot = $1
		ORDER BY event_timestamp ASC, record_id ASC
	`

	rows, err := s.pool.Query(ctx, query, lot)
	if err != nil {
		return nil, fmt.Errorf("get observations by lot: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetAll retrieves every observation, ordered by (timestamp, id) ASC.
func (s *ObservationStore) GetAll(ctx context.Context) (observations []*domain.Observation, err error) {
	start := time.Now()
	defer func() { observeQuery("get_all_observations", start, err) }()

	query := selectObservationQuery + `
		ORDER BY event_timestamp ASC, record_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

const selectObservationQuery = `
	SELECT record_id, lot, capacity, latitude, longitude, occupancy,
		vehicle_type, traffic_condition, queue_length, is_special_day,
		last_updated_date, last_updated_time, event_timestamp
	FROM observations
`

// scanObservations scans multiple rows into a slice of Observation.
func scanObservations(rows pgx.Rows) ([]*domain.Observation, error) {
	var observations []*domain.Observation

	for rows.Next() {
		var o domain.Observation
		err := rows.Scan(
			&o.ID,
			&o.SystemCodeNumber,
			&o.Capacity,
			&o.Latitude,
			&o.Longitude,
			&o.Occupancy,
			&o.VehicleType,
			&o.TrafficConditionNearby,
			&o.QueueLength,
			&o.IsSpecialDay,
			&o.LastUpdatedDate,
			&o.LastUpdatedTime,
			&o.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return observations, nil
}
