// Package reporting renders the daily aggregate series for the
// visualization collaborator: a ts-sorted CSV of the output records and a
// Markdown summary per lot.
package reporting

import (
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// Report is the rendered view of one aggregate series.
type Report struct {
	GeneratedAt time.Time
	Aggregates  []*domain.WindowAggregate // sorted by (ts, lot)
	LotSummary  []LotSummary              // sorted by lot
}

// LotSummary condenses one lot's daily average series.
type LotSummary struct {
	Lot          string
	Days         int
	Observations int
	MinAvgPrice  float64
	MeanAvgPrice float64
	MaxAvgPrice  float64
}
