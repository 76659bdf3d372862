package ingestion

import (
	"context"
	"log"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// Replayer turns a loaded observation sequence back into a live-looking
// stream: an append-only channel of records delivered in loader order at a
// configurable rate.
type Replayer struct {
	observations []*domain.Observation
	rate         int
	logger       *log.Logger
}

// ReplayerOptions configures a Replayer.
type ReplayerOptions struct {
	// Observations is the ordered sequence to replay.
	Observations []*domain.Observation
	// Rate is the target records per second. Zero or negative replays as
	// fast as the consumer accepts.
	Rate int
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// NewReplayer creates a replayer over an ordered observation sequence.
func NewReplayer(opts ReplayerOptions) *Replayer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Replayer{
		observations: opts.Observations,
		rate:         opts.Rate,
		logger:       logger,
	}
}

// Replay starts streaming in a background goroutine and returns the channel
// the observations arrive on. The channel is closed when the sequence is
// exhausted or the context is cancelled; record order is always the input
// order. Blocking on an unready consumer is the only backpressure.
func (r *Replayer) Replay(ctx context.Context) <-chan *domain.Observation {
	out := make(chan *domain.Observation)

	var interval time.Duration
	if r.rate > 0 {
		interval = time.Second / time.Duration(r.rate)
	}

	go func() {
		defer close(out)

		start := time.Now()
		sent := 0

		var ticker *time.Ticker
		if interval > 0 {
			ticker = time.NewTicker(interval)
			defer ticker.Stop()
		}

		for _, obs := range r.observations {
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					r.logger.Printf("replay cancelled after %d of %d records", sent, len(r.observations))
					return
				}
			}
			select {
			case out <- obs:
				sent++
			case <-ctx.Done():
				r.logger.Printf("replay cancelled after %d of %d records", sent, len(r.observations))
				return
			}
		}

		r.logger.Printf("replay complete: %d records in %v", sent, time.Since(start))
	}()

	return out
}
