// Package sink delivers closed window aggregates to downstream consumers:
// storage, Kafka, the live websocket hub. Sinks receive aggregates in
// window-close order and must tolerate being the slow party.
package sink

import (
	"context"
	"errors"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/observability"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// AggregateSink consumes one closed window aggregate at a time.
type AggregateSink interface {
	// Publish delivers a single aggregate. A returned error aborts the
	// pipeline run: an unavailable sink loses emitted windows, and windows
	// are never re-emitted. Sinks that can tolerate a failure swallow it.
	Publish(ctx context.Context, a *domain.WindowAggregate) error

	// Name identifies the sink in logs and metrics.
	Name() string
}

// StoreSink persists aggregates to an AggregateStore. A duplicate key means
// the window was already emitted once; the sink swallows it so replays stay
// idempotent at the storage boundary.
type StoreSink struct {
	store storage.AggregateStore
}

// NewStoreSink creates a sink over an aggregate store.
func NewStoreSink(store storage.AggregateStore) *StoreSink {
	return &StoreSink{store: store}
}

// Name implements AggregateSink.
func (s *StoreSink) Name() string { return "store" }

// Publish implements AggregateSink.
func (s *StoreSink) Publish(ctx context.Context, a *domain.WindowAggregate) error {
	err := s.store.Insert(ctx, a)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}

// Multi fans one aggregate out to several sinks. Errors are counted per
// sink and the remaining sinks still receive the aggregate before the first
// error is returned.
type Multi struct {
	sinks []AggregateSink
}

// NewMulti creates a fan-out sink.
func NewMulti(sinks ...AggregateSink) *Multi {
	return &Multi{sinks: sinks}
}

// Name implements AggregateSink.
func (m *Multi) Name() string { return "multi" }

// Publish implements AggregateSink.
func (m *Multi) Publish(ctx context.Context, a *domain.WindowAggregate) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, a); err != nil {
			observability.RecordSinkError(s.Name())
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		observability.RecordAggregatePublished(s.Name())
	}
	return firstErr
}

var (
	_ AggregateSink = (*StoreSink)(nil)
	_ AggregateSink = (*Multi)(nil)
)
