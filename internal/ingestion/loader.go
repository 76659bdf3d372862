// Package ingestion loads the historical parking dataset and replays it as a
// live-looking observation stream. It is the pipeline's only input source
// and the only place raw rows are validated: anything malformed is rejected
// here, before the enricher ever sees it.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/observability"
)

// Dataset timestamp layouts.
const (
	combinedLayout = "02-01-2006 15:04:05"
	outputLayout   = "2006-01-02 15:04:05"
)

// Rejection reasons reported in LoadResult.Rejected.
const (
	ReasonFieldCount = "field_count"
	ReasonNumeric    = "numeric"
	ReasonTimestamp  = "timestamp"
	ReasonCapacity   = "capacity"
	ReasonNegative   = "negative"
	ReasonSpecialDay = "special_day"
)

// LoadResult holds the loaded observations plus data-quality counters.
type LoadResult struct {
	Observations []*domain.Observation
	Rows         int            // data rows read (excluding header)
	Rejected     map[string]int // rejection reason -> count
}

// RejectedTotal sums the rejection counters.
func (r *LoadResult) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// LoadCSVFile reads a dataset CSV from disk. See LoadCSV.
func LoadCSVFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV reads a header-labelled dataset CSV and produces observations in
// file order. Per row it lower-cases VehicleType and TrafficConditionNearby,
// synthesizes Timestamp from LastUpdatedDate + LastUpdatedTime (a pre-staged
// stream file that already carries a Timestamp column is accepted as-is) and
// rejects rows that fail validation: unparseable numerics or timestamps,
// non-positive capacity, negative occupancy or queue length, special-day
// flags other than 0/1. Rejected rows are counted by reason, never fatal.
func LoadCSV(r io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{
		"ID", "SystemCodeNumber", "Capacity", "Latitude", "Longitude",
		"Occupancy", "VehicleType", "TrafficConditionNearby", "QueueLength",
		"IsSpecialDay", "LastUpdatedDate", "LastUpdatedTime",
	} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("dataset missing column %q", required)
		}
	}
	_, hasTimestamp := cols["Timestamp"]

	result := &LoadResult{Rejected: make(map[string]int)}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged rows are data-quality errors, not load failures.
			result.Rows++
			result.Rejected[ReasonFieldCount]++
			observability.RecordRowRejected(ReasonFieldCount)
			continue
		}
		result.Rows++

		obs, reason := parseRow(record, cols, hasTimestamp)
		if reason != "" {
			result.Rejected[reason]++
			observability.RecordRowRejected(reason)
			continue
		}
		result.Observations = append(result.Observations, obs)
		observability.DefaultMetrics.ObservationsLoaded.Inc()
	}

	return result, nil
}

// parseRow converts one CSV record. Returns a rejection reason instead of an
// observation when the row fails validation.
func parseRow(record []string, cols map[string]int, hasTimestamp bool) (*domain.Observation, string) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id, err := strconv.Atoi(field("ID"))
	if err != nil {
		return nil, ReasonNumeric
	}
	capacity, err := strconv.Atoi(field("Capacity"))
	if err != nil {
		return nil, ReasonNumeric
	}
	occupancy, err := strconv.Atoi(field("Occupancy"))
	if err != nil {
		return nil, ReasonNumeric
	}
	queueLength, err := strconv.Atoi(field("QueueLength"))
	if err != nil {
		return nil, ReasonNumeric
	}
	isSpecial, err := strconv.Atoi(field("IsSpecialDay"))
	if err != nil {
		return nil, ReasonNumeric
	}
	latitude, err := strconv.ParseFloat(field("Latitude"), 64)
	if err != nil {
		return nil, ReasonNumeric
	}
	longitude, err := strconv.ParseFloat(field("Longitude"), 64)
	if err != nil {
		return nil, ReasonNumeric
	}

	if capacity <= 0 {
		return nil, ReasonCapacity
	}
	if occupancy < 0 || queueLength < 0 {
		return nil, ReasonNegative
	}
	if isSpecial != 0 && isSpecial != 1 {
		return nil, ReasonSpecialDay
	}

	date := field("LastUpdatedDate")
	tod := field("LastUpdatedTime")

	var timestamp string
	if hasTimestamp && field("Timestamp") != "" {
		timestamp = field("Timestamp")
		if _, err := time.Parse(outputLayout, timestamp); err != nil {
			return nil, ReasonTimestamp
		}
	} else {
		ts, err := time.Parse(combinedLayout, date+" "+tod)
		if err != nil {
			return nil, ReasonTimestamp
		}
		timestamp = ts.Format(outputLayout)
	}

	return &domain.Observation{
		ID:                     id,
		SystemCodeNumber:       field("SystemCodeNumber"),
		Capacity:               capacity,
		Latitude:               latitude,
		Longitude:              longitude,
		Occupancy:              occupancy,
		VehicleType:            strings.ToLower(field("VehicleType")),
		TrafficConditionNearby: strings.ToLower(field("TrafficConditionNearby")),
		QueueLength:            queueLength,
		IsSpecialDay:           isSpecial,
		LastUpdatedDate:        date,
		LastUpdatedTime:        tod,
		Timestamp:              timestamp,
	}, ""
}
