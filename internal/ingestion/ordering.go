package ingestion

import (
	"errors"
	"sort"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// ErrInvalidOrdering is returned when observations are not in non-decreasing
// event order.
var ErrInvalidOrdering = errors.New("observations are not in event order")

// SortObservations orders observations by (Timestamp ASC, ID ASC). The
// timestamp layout is lexicographically sortable, so string comparison is
// chronological. This is the deterministic order the replayer preserves.
func SortObservations(observations []*domain.Observation) {
	sort.SliceStable(observations, func(i, j int) bool {
		return compareObservations(observations[i], observations[j]) < 0
	})
}

// ValidateOrdering checks the ingestion contract of non-decreasing event
// time. Returns ErrInvalidOrdering on the first violation.
func ValidateOrdering(observations []*domain.Observation) error {
	for i := 1; i < len(observations); i++ {
		if observations[i-1].Timestamp > observations[i].Timestamp {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareObservations returns negative, zero or positive for the
// (Timestamp, ID) order of a relative to b.
func compareObservations(a, b *domain.Observation) int {
	if a.Timestamp != b.Timestamp {
		if a.Timestamp < b.Timestamp {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}
