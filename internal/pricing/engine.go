// Package pricing computes the dynamic price of a single enriched
// observation from a bounded demand score. The engine is a pure function of
// its inputs and its configuration.
package pricing

import (
	"errors"
	"math"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// ErrInvalidCapacity is returned for observations whose capacity is zero or
// negative. Such records are rejected rather than priced; the occupancy
// ratio would be undefined.
var ErrInvalidCapacity = errors.New("capacity must be positive")

// Config holds the pricing policy. The demand score is the weighted linear
// combination
//
//	occupancy/capacity * OccupancyFactor
//	+ queueLength * QueueFactor
//	- trafficWeight * TrafficFactor
//	+ isSpecialDay * SpecialDayFactor
//	+ vehicleWeight * VehicleFactor
//
// saturated into [DemandMin, DemandMax], and the price is
// BasePrice * (1 + PriceScale * demand). Explainable by construction: every
// input's contribution can be read off the factors.
type Config struct {
	BasePrice        float64 `yaml:"base_price"`
	OccupancyFactor  float64 `yaml:"occupancy_factor"`
	QueueFactor      float64 `yaml:"queue_factor"`
	TrafficFactor    float64 `yaml:"traffic_factor"`
	SpecialDayFactor float64 `yaml:"special_day_factor"`
	VehicleFactor    float64 `yaml:"vehicle_factor"`
	DemandMin        float64 `yaml:"demand_min"`
	DemandMax        float64 `yaml:"demand_max"`
	PriceScale       float64 `yaml:"price_scale"`
}

// DefaultConfig returns the standard pricing policy: base price 10.0,
// demand normalized into [0, 2], so prices range from 1x to 2x base.
func DefaultConfig() Config {
	return Config{
		BasePrice:        10.0,
		OccupancyFactor:  1.2,
		QueueFactor:      0.5,
		TrafficFactor:    0.7,
		SpecialDayFactor: 0.5,
		VehicleFactor:    0.3,
		DemandMin:        0.0,
		DemandMax:        2.0,
		PriceScale:       0.5,
	}
}

// Engine prices enriched observations under a fixed policy.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine with the given policy.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Demand computes the raw demand score and saturates it into
// [DemandMin, DemandMax]. Out-of-band values are clamped, not rejected.
func (e *Engine) Demand(occupancy, capacity, queueLength int, trafficWeight float64, isSpecialDay int, vehicleWeight float64) float64 {
	c := e.cfg
	raw := float64(occupancy)/float64(capacity)*c.OccupancyFactor +
		float64(queueLength)*c.QueueFactor -
		trafficWeight*c.TrafficFactor +
		float64(isSpecialDay)*c.SpecialDayFactor +
		vehicleWeight*c.VehicleFactor
	return clamp(raw, c.DemandMin, c.DemandMax)
}

// Price computes the dynamic price for one enriched observation. Returns
// ErrInvalidCapacity for non-positive capacity; otherwise it is total and
// deterministic over its inputs.
func (e *Engine) Price(obs *domain.EnrichedObservation) (*domain.PricedObservation, error) {
	if obs.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	demand := e.Demand(obs.Occupancy, obs.Capacity, obs.QueueLength, obs.TrafficWeight, obs.IsSpecialDay, obs.VehicleWeight)
	price := e.cfg.BasePrice * (1 + e.cfg.PriceScale*demand)

	return &domain.PricedObservation{
		EnrichedObservation: *obs,
		BasePrice:           e.cfg.BasePrice,
		DynamicPrice:        roundPrice(price),
	}, nil
}

// roundPrice rounds to 2 decimal places, half away from zero (half-up for
// the positive prices this engine produces).
func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
