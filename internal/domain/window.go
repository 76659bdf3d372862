package domain

import (
	"fmt"
	"time"
)

// WindowKey identifies one tumbling-window instance: a single parking lot on
// a single calendar day. DayUnix is the window start (midnight) as a Unix
// timestamp so the key is comparable and usable as a map key.
type WindowKey struct {
	DayUnix int64  // window start, Unix seconds
	Lot     string // parking lot identifier
}

// NewWindowKey builds the key for a lot and its day bucket.
func NewWindowKey(day time.Time, lot string) WindowKey {
	return WindowKey{DayUnix: day.Unix(), Lot: lot}
}

// Day returns the window start as a time.Time.
func (k WindowKey) Day() time.Time {
	return time.Unix(k.DayUnix, 0).UTC()
}

// String renders the key for logs and error messages.
func (k WindowKey) String() string {
	return fmt.Sprintf("%s_%s", k.Day().Format("2006-01-02"), k.Lot)
}

// WindowAggregate is the output record of the daily aggregator: the mean
// dynamic price of one lot over one calendar day. Emitted exactly once per
// window instance, when the window closes; immutable afterwards.
type WindowAggregate struct {
	WindowEnd time.Time `json:"ts"`        // end of the day window (start + 24h)
	Lot       string    `json:"lot"`       // parking lot identifier
	AvgPrice  float64   `json:"avg_price"` // arithmetic mean of dynamic price
	Count     int       `json:"count"`     // observations aggregated
}

// Key recovers the window instance key of an aggregate.
func (a *WindowAggregate) Key() WindowKey {
	return NewWindowKey(a.WindowEnd.Add(-24*time.Hour), a.Lot)
}
