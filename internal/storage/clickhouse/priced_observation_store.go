package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// PricedObservationStore implements storage.PricedObservationStore using
// ClickHouse. MergeTree does not enforce uniqueness at insert time; the
// pipeline writes each priced observation once, so the store only guards
// against intra-batch duplicates.
type PricedObservationStore struct {
	conn *Conn
}

// NewPricedObservationStore creates a new PricedObservationStore.
func NewPricedObservationStore(conn *Conn) *PricedObservationStore {
	return &PricedObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PricedObservationStore = (*PricedObservationStore)(nil)

// InsertBulk adds multiple priced observations in one batch.
func (s *PricedObservationStore) InsertBulk(ctx context.Context, priced []*domain.PricedObservation) (err error) {
	begin := time.Now()
	defer func() { observeQuery("insert_priced_observations", begin, err) }()

	if len(priced) == 0 {
		return nil
	}

	type key struct {
		lot      string
		eventUnx int64
		id       int
	}
	seen := make(map[key]struct{}, len(priced))
	for _, p := range priced {
		k := key{p.SystemCodeNumber, p.EventTime.Unix(), p.ID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO priced_observations (
			lot, event_time, record_id, occupancy, capacity, queue_length,
			vehicle_weight, traffic_weight, is_special_day, base_price, dynamic_price
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range priced {
		err = batch.Append(
			p.SystemCodeNumber, p.EventTime, int32(p.ID),
			int32(p.Occupancy), int32(p.Capacity), int32(p.QueueLength),
			p.VehicleWeight, p.TrafficWeight, uint8(p.IsSpecialDay),
			p.BasePrice, p.DynamicPrice,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByLot retrieves all priced observations for a lot, ordered by
// (event time, id) ASC.
func (s *PricedObservationStore) GetByLot(ctx context.Context, lot string) (result []*domain.PricedObservation, err error) {
	begin := time.Now()
	defer func() { observeQuery("get_priced_by_lot", begin, err) }()

	query := selectPricedQuery + `
		WHERE lot = ?
		ORDER BY event_time ASC, record_id ASC
	`

	rows, err := s.conn.Query(ctx, query, lot)
	if err != nil {
		return nil, fmt.Errorf("query by lot: %w", err)
	}
	defer rows.Close()

	return scanPriced(rows)
}

// GetByTimeRange retrieves priced observations for a lot within [start, end]
// (inclusive).
func (s *PricedObservationStore) GetByTimeRange(ctx context.Context, lot string, start, end time.Time) (result []*domain.PricedObservation, err error) {
	begin := time.Now()
	defer func() { observeQuery("get_priced_by_time_range", begin, err) }()

	query := selectPricedQuery + `
		WHERE lot = ? AND event_time >= ? AND event_time <= ?
		ORDER BY event_time ASC, record_id ASC
	`

	rows, err := s.conn.Query(ctx, query, lot, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriced(rows)
}

const selectPricedQuery = `
	SELECT lot, event_time, record_id, occupancy, capacity, queue_length,
		vehicle_weight, traffic_weight, is_special_day, base_price, dynamic_price
	FROM priced_observations
`

// scanPriced scans rows into priced observations. Only the columns the
// analytics table carries are recovered; the raw string fields stay empty.
func scanPriced(rows driver.Rows) ([]*domain.PricedObservation, error) {
	var result []*domain.PricedObservation

	for rows.Next() {
		var (
			p          domain.PricedObservation
			recordID   int32
			occupancy  int32
			capacity   int32
			queueLen   int32
			specialDay uint8
		)
		err := rows.Scan(
			&p.SystemCodeNumber, &p.EventTime, &recordID,
			&occupancy, &capacity, &queueLen,
			&p.VehicleWeight, &p.TrafficWeight, &specialDay,
			&p.BasePrice, &p.DynamicPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan priced observation: %w", err)
		}
		p.ID = int(recordID)
		p.Occupancy = int(occupancy)
		p.Capacity = int(capacity)
		p.QueueLength = int(queueLen)
		p.IsSpecialDay = int(specialDay)
		p.EventTime = p.EventTime.UTC()
		p.Day = p.EventTime.Truncate(24 * time.Hour)
		result = append(result, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate priced observations: %w", err)
	}

	return result, nil
}
