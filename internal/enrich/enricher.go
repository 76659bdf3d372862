// Package enrich derives per-record features from raw parking observations:
// the parsed event time, its calendar-day bucket and the numeric weights for
// the two categorical fields. Derivation is pure and stateless.
package enrich

import (
	"fmt"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// TimestampFormat is the fixed layout of Observation.Timestamp.
const TimestampFormat = "2006-01-02 15:04:05"

// Weights maps the categorical fields to their numeric weights. Lookups are
// case-sensitive against the loader's lower-cased values; any value absent
// from a table (including unseen categories) falls back to Default.
type Weights struct {
	Vehicle map[string]float64 `yaml:"vehicle"`
	Traffic map[string]float64 `yaml:"traffic"`
	Default float64            `yaml:"default"`
}

// DefaultWeights returns the standard weight tables.
func DefaultWeights() Weights {
	return Weights{
		Vehicle: map[string]float64{
			"car":   1.0,
			"bike":  0.5,
			"truck": 1.5,
		},
		Traffic: map[string]float64{
			"low":    0.5,
			"medium": 1.0,
			"high":   1.5,
		},
		Default: 1.0,
	}
}

// VehicleWeight resolves the weight for a vehicle type.
func (w Weights) VehicleWeight(vehicleType string) float64 {
	if v, ok := w.Vehicle[vehicleType]; ok {
		return v
	}
	return w.Default
}

// TrafficWeight resolves the weight for a traffic condition.
func (w Weights) TrafficWeight(condition string) float64 {
	if v, ok := w.Traffic[condition]; ok {
		return v
	}
	return w.Default
}

// Enricher turns Observations into EnrichedObservations.
type Enricher struct {
	weights Weights
}

// New creates an Enricher with the given weight tables.
func New(weights Weights) *Enricher {
	return &Enricher{weights: weights}
}

// Enrich derives features for a single observation. The only failure path is
// a timestamp that does not conform to TimestampFormat, which is a
// data-quality error belonging to the record, not the pipeline.
//
// The day bucket is the event time truncated to midnight of its own calendar
// day. Timestamps are naive; they are parsed as UTC so a day is always
// exactly 24 hours.
func (e *Enricher) Enrich(o *domain.Observation) (*domain.EnrichedObservation, error) {
	ts, err := time.Parse(TimestampFormat, o.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", o.Timestamp, err)
	}

	return &domain.EnrichedObservation{
		Observation:   *o,
		EventTime:     ts,
		Day:           ts.Truncate(24 * time.Hour),
		VehicleWeight: e.weights.VehicleWeight(o.VehicleType),
		TrafficWeight: e.weights.TrafficWeight(o.TrafficConditionNearby),
	}, nil
}
