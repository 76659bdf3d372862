// Package pipeline wires the three core stages - feature enrichment,
// pricing, daily windowing - over an observation stream and delivers closed
// aggregates to the configured sinks.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/enrich"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/observability"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/pricing"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/sink"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/windowing"
)

// pricedBatchSize is how many priced observations are buffered before a bulk
// write to the timeseries store.
const pricedBatchSize = 500

// Options configures a pipeline Runner.
type Options struct {
	// Weights for the feature enricher. Zero value uses DefaultWeights.
	Weights enrich.Weights
	// Pricing policy. Zero value uses pricing.DefaultConfig.
	Pricing pricing.Config
	// Sink receives each closed window aggregate, in window-close order.
	// A failing sink is fatal to the pipeline (record-level transform
	// errors are not). Optional.
	Sink sink.AggregateSink
	// PricedStore, when set, receives every priced observation in batches.
	PricedStore storage.PricedObservationStore
	// LatestPrices, when set, is updated with each record's price. Cache
	// failures are logged and counted, never fatal.
	LatestPrices storage.LatestPriceStore
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Result contains statistics from one pipeline run.
type Result struct {
	ObservationsProcessed int
	PricesComputed        int
	EnrichFailures        int
	PricingFailures       int
	LateDropped           int
	AggregatesEmitted     int
	FlushedOnShutdown     int
	Duration              time.Duration
}

// Runner executes the staged pipeline over an observation stream.
type Runner struct {
	enricher *enrich.Enricher
	engine   *pricing.Engine
	agg      *windowing.DailyAggregator

	aggSink      sink.AggregateSink
	pricedStore  storage.PricedObservationStore
	latestPrices storage.LatestPriceStore
	logger       *log.Logger

	pricedBuf []*domain.PricedObservation
}

// NewRunner creates a pipeline runner.
func NewRunner(opts Options) *Runner {
	weights := opts.Weights
	if weights.Vehicle == nil && weights.Traffic == nil {
		weights = enrich.DefaultWeights()
	}
	cfg := opts.Pricing
	if cfg == (pricing.Config{}) {
		cfg = pricing.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		enricher:     enrich.New(weights),
		engine:       pricing.NewEngine(cfg),
		agg:          windowing.NewDailyAggregator(),
		aggSink:      opts.Sink,
		pricedStore:  opts.PricedStore,
		latestPrices: opts.LatestPrices,
		logger:       logger,
	}
}

// Run consumes the source until it is exhausted or the context is cancelled,
// then flushes: every still-open window is emitted with the data it has.
// Per-record transform failures are counted and skipped; sink and store
// failures abort the run.
func (r *Runner) Run(ctx context.Context, source <-chan *domain.Observation) (*Result, error) {
	start := time.Now()
	result := &Result{}

	defer func() {
		result.Duration = time.Since(start)
		observability.DefaultMetrics.PipelineDuration.Observe(result.Duration.Seconds())
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case obs, ok := <-source:
			if !ok {
				break loop
			}
			result.ObservationsProcessed++
			observability.DefaultMetrics.ObservationsReplayed.Inc()

			if err := r.process(ctx, obs, result); err != nil {
				return result, err
			}
		}
	}

	// Graceful end of stream: emit open windows with partial data.
	flushed := r.agg.Flush()
	for _, agg := range flushed {
		observability.RecordWindowClosed(r.agg.OpenWindows())
		if err := r.publish(ctx, agg); err != nil {
			return result, err
		}
	}
	result.FlushedOnShutdown = len(flushed)
	result.AggregatesEmitted += len(flushed)
	result.LateDropped = r.agg.LateDropped()

	if err := r.flushPriced(ctx); err != nil {
		return result, err
	}

	if flushed := result.FlushedOnShutdown; flushed > 0 {
		r.logger.Printf("flushed %d partial window(s) on shutdown", flushed)
	}
	r.logger.Printf("pipeline done: %d observations, %d prices, %d aggregates, %d late dropped",
		result.ObservationsProcessed, result.PricesComputed, result.AggregatesEmitted, result.LateDropped)

	return result, nil
}

// process runs one observation through all three stages.
func (r *Runner) process(ctx context.Context, obs *domain.Observation, result *Result) error {
	enriched, err := r.enricher.Enrich(obs)
	if err != nil {
		result.EnrichFailures++
		observability.RecordFailed("enrich")
		r.logger.Printf("enrich record %d: %v", obs.ID, err)
		return nil
	}
	observability.RecordEnriched()

	priced, err := r.engine.Price(enriched)
	if err != nil {
		result.PricingFailures++
		observability.RecordFailed("pricing")
		r.logger.Printf("price record %d: %v", obs.ID, err)
		return nil
	}
	result.PricesComputed++
	observability.RecordPriceComputed()
	observability.UpdateWatermark(priced.SystemCodeNumber, priced.EventTime.Unix())

	if r.latestPrices != nil {
		if err := r.latestPrices.Set(ctx, priced); err != nil {
			observability.RecordFailed("latest_price")
			r.logger.Printf("cache latest price for %s: %v", priced.SystemCodeNumber, err)
		}
	}

	if r.pricedStore != nil {
		r.pricedBuf = append(r.pricedBuf, priced)
		if len(r.pricedBuf) >= pricedBatchSize {
			if err := r.flushPriced(ctx); err != nil {
				return err
			}
		}
	}

	for _, agg := range r.agg.Process(priced) {
		result.AggregatesEmitted++
		observability.RecordWindowClosed(r.agg.OpenWindows())
		if err := r.publish(ctx, agg); err != nil {
			return err
		}
	}
	if dropped := r.agg.LateDropped(); dropped > result.LateDropped {
		result.LateDropped = dropped
		observability.RecordLateDrop()
	}

	return nil
}

// publish hands a closed aggregate to the sink. Sink unavailability is a
// pipeline-level failure.
func (r *Runner) publish(ctx context.Context, agg *domain.WindowAggregate) error {
	if r.aggSink == nil {
		return nil
	}
	if err := r.aggSink.Publish(ctx, agg); err != nil {
		return fmt.Errorf("publish aggregate %s: %w", agg.Key(), err)
	}
	return nil
}

// flushPriced bulk-writes the buffered priced observations.
func (r *Runner) flushPriced(ctx context.Context) error {
	if r.pricedStore == nil || len(r.pricedBuf) == 0 {
		return nil
	}
	if err := r.pricedStore.InsertBulk(ctx, r.pricedBuf); err != nil {
		return fmt.Errorf("store priced observations: %w", err)
	}
	r.pricedBuf = r.pricedBuf[:0]
	return nil
}
