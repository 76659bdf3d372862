// Package windowing groups priced observations into tumbling one-day
// windows per parking lot and emits one mean-price aggregate per window,
// exactly once, driven by observed event-time progress.
package windowing

import (
	"sort"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// WindowSize is the fixed tumbling window length. Days are exactly 24 hours
// because event times are naive timestamps parsed as UTC.
const WindowSize = 24 * time.Hour

// accumulator is the running state of one open window instance.
type accumulator struct {
	key       domain.WindowKey
	lot       string    // first-seen lot id; invariant within the instance
	windowEnd time.Time // key day + WindowSize
	count     int
	sum       float64 // running sum of dynamic price
}

func (acc *accumulator) aggregate() *domain.WindowAggregate {
	return &domain.WindowAggregate{
		WindowEnd: acc.windowEnd,
		Lot:       acc.lot,
		AvgPrice:  acc.sum / float64(acc.count),
		Count:     acc.count,
	}
}

// DailyAggregator is an explicit windowing state machine: a mapping from
// WindowKey to accumulator plus a per-lot event-time watermark.
//
// A lot's window closes as soon as that lot produces an event at or past the
// window's end; there is no further grace period. Records whose day is at or
// before the lot's last closed day are late and are dropped, never merged
// into a reopened window. Each instance therefore moves OPEN -> CLOSED once
// and its aggregate is emitted exactly once.
//
// The watermark is per lot, so sharding the stream by lot keeps every
// accumulator owned by exactly one shard with no extra synchronization. A
// single DailyAggregator instance is not itself safe for concurrent use.
type DailyAggregator struct {
	open      map[domain.WindowKey]*accumulator
	closedDay map[string]int64 // lot -> start (unix) of latest closed window

	lateDropped int
	emitted     int
}

// NewDailyAggregator creates an aggregator with no open windows.
func NewDailyAggregator() *DailyAggregator {
	return &DailyAggregator{
		open:      make(map[domain.WindowKey]*accumulator),
		closedDay: make(map[string]int64),
	}
}

// Process feeds one priced observation into its window and returns any
// aggregates whose windows the observation's event time closed. The returned
// slice is nil for most records; when the stream crosses a day boundary for
// a lot it carries that lot's finished day(s), ordered by window end.
func (a *DailyAggregator) Process(p *domain.PricedObservation) []*domain.WindowAggregate {
	lot := p.SystemCodeNumber
	key := domain.NewWindowKey(p.Day, lot)

	if last, ok := a.closedDay[lot]; ok && key.DayUnix <= last {
		a.lateDropped++
		return nil
	}

	acc, ok := a.open[key]
	if !ok {
		acc = &accumulator{
			key:       key,
			lot:       lot,
			windowEnd: key.Day().Add(WindowSize),
		}
		a.open[key] = acc
	}
	acc.count++
	acc.sum += p.DynamicPrice

	return a.closeDueWindows(lot, p.EventTime)
}

// closeDueWindows finalizes every open window of the lot whose end has been
// reached by the lot's event time.
func (a *DailyAggregator) closeDueWindows(lot string, eventTime time.Time) []*domain.WindowAggregate {
	var due []*accumulator
	for _, acc := range a.open {
		if acc.lot == lot && !eventTime.Before(acc.windowEnd) {
			due = append(due, acc)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.Slice(due, func(i, j int) bool { return due[i].windowEnd.Before(due[j].windowEnd) })

	out := make([]*domain.WindowAggregate, 0, len(due))
	for _, acc := range due {
		out = append(out, a.close(acc))
	}
	return out
}

// close removes the accumulator, advances the lot's watermark and emits the
// aggregate. No transition back to OPEN exists.
func (a *DailyAggregator) close(acc *accumulator) *domain.WindowAggregate {
	delete(a.open, acc.key)
	if acc.key.DayUnix > a.closedDay[acc.lot] {
		a.closedDay[acc.lot] = acc.key.DayUnix
	}
	a.emitted++
	return acc.aggregate()
}

// Flush closes every remaining open window and returns the partial
// aggregates, ordered by (window end, lot). Used on graceful shutdown and at
// end of a bounded replay: partial data is emitted rather than discarded.
func (a *DailyAggregator) Flush() []*domain.WindowAggregate {
	if len(a.open) == 0 {
		return nil
	}

	accs := make([]*accumulator, 0, len(a.open))
	for _, acc := range a.open {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		if !accs[i].windowEnd.Equal(accs[j].windowEnd) {
			return accs[i].windowEnd.Before(accs[j].windowEnd)
		}
		return accs[i].lot < accs[j].lot
	})

	out := make([]*domain.WindowAggregate, 0, len(accs))
	for _, acc := range accs {
		out = append(out, a.close(acc))
	}
	return out
}

// OpenWindows reports the number of currently open window instances.
func (a *DailyAggregator) OpenWindows() int {
	return len(a.open)
}

// LateDropped reports how many late records were dropped so far.
func (a *DailyAggregator) LateDropped() int {
	return a.lateDropped
}

// Emitted reports how many aggregates were emitted so far.
func (a *DailyAggregator) Emitted() int {
	return a.emitted
}
