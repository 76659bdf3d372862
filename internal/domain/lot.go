package domain

import "time"

// LatestPrice is the most recent dynamic price snapshot of one lot, cached
// for quick display lookups.
type LatestPrice struct {
	Lot          string    `json:"lot"`
	DynamicPrice float64   `json:"dynamic_price"`
	Occupancy    int       `json:"occupancy"`
	Capacity     int       `json:"capacity"`
	QueueLength  int       `json:"queue_length"`
	EventTime    time.Time `json:"ts"`
}
