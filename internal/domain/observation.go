package domain

import "time"

// Observation is one raw parking lot reading as produced by the loader.
// Field names and types match the dataset schema exactly; VehicleType and
// TrafficConditionNearby are already lower-cased and Timestamp is already
// synthesized from LastUpdatedDate + LastUpdatedTime by the loader.
type Observation struct {
	ID                     int     // row identifier from the dataset
	SystemCodeNumber       string  // parking lot identifier
	Capacity               int     // total spaces (positive)
	Latitude               float64 // lot latitude
	Longitude              float64 // lot longitude
	Occupancy              int     // occupied spaces (non-negative)
	VehicleType            string  // car, bike, truck, ... (lower-cased)
	TrafficConditionNearby string  // low, medium, high, ... (lower-cased)
	QueueLength            int     // vehicles waiting (non-negative)
	IsSpecialDay           int     // 0 or 1
	LastUpdatedDate        string  // "DD-MM-YYYY" as read from the dataset
	LastUpdatedTime        string  // "HH:MM:SS" as read from the dataset
	Timestamp              string  // "YYYY-MM-DD HH:MM:SS", synthesized
}

// EnrichedObservation is an Observation plus the per-record derived features.
// Derivation is deterministic; no state is carried between records.
type EnrichedObservation struct {
	Observation

	EventTime     time.Time // parsed Timestamp
	Day           time.Time // EventTime truncated to the start of its calendar day
	VehicleWeight float64   // weight for VehicleType
	TrafficWeight float64   // weight for TrafficConditionNearby
}

// PricedObservation is an EnrichedObservation plus the computed price.
// Exactly one PricedObservation exists per EnrichedObservation.
type PricedObservation struct {
	EnrichedObservation

	BasePrice    float64 // base price the dynamic price scales from
	DynamicPrice float64 // demand-scaled price, rounded to 2 decimals
}
