// Package main runs the end-to-end pricing pipeline: load or read
// observations, replay them in timestamp order, price each record, close
// daily windows, persist aggregates, and write reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/config"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/ingestion"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/observability"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/pipeline"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/reporting"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/sink"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
	chstore "github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/clickhouse"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/memory"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/migrations"
	pgstore "github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/postgres"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/redisstore"
)

func main() {
	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	csvPath := flag.String("csv", "", "Dataset CSV to replay (empty: read observations from PostgreSQL)")
	postgresDSN := flag.String("postgres-dsn", cfg.Postgres.DSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Clickhouse.DSN, "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", cfg.Redis.Addr, "Redis address for the latest-price cache (empty to disable)")
	kafkaBrokers := flag.String("kafka-brokers", strings.Join(cfg.Kafka.Brokers, ","), "Comma-separated Kafka brokers (empty to disable)")
	kafkaTopic := flag.String("kafka-topic", cfg.Kafka.Topic, "Kafka topic for closed aggregates")
	rate := flag.Int("rate", cfg.Replay.Rate, "Replay rate in records/sec (0: as fast as possible)")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for reports")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", false, "Run database migrations before the run")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}
	if *csvPath == "" && *useMemory {
		logger.Fatal("--csv is required with --use-memory (no database to read observations from)")
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, logger, cfg, runOptions{
		csvPath:       *csvPath,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		redisAddr:     *redisAddr,
		kafkaBrokers:  splitBrokers(*kafkaBrokers),
		kafkaTopic:    *kafkaTopic,
		rate:          *rate,
		outputDir:     *outputDir,
		useMemory:     *useMemory,
		migrate:       *migrate,
	})
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type runOptions struct {
	csvPath       string
	postgresDSN   string
	clickhouseDSN string
	redisAddr     string
	kafkaBrokers  []string
	kafkaTopic    string
	rate          int
	outputDir     string
	useMemory     bool
	migrate       bool
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, opts runOptions) error {
	// Stores.
	var (
		observationStore storage.ObservationStore       = memory.NewObservationStore()
		aggregateStore   storage.AggregateStore         = memory.NewAggregateStore()
		pricedStore      storage.PricedObservationStore = memory.NewPricedObservationStore()
	)

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		if opts.migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("run postgres migrations: %w", err)
			}
			if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
				return fmt.Errorf("run clickhouse migrations: %w", err)
			}
			logger.Println("Migrations applied")
		}

		observationStore = pgstore.NewObservationStore(pool)
		aggregateStore = pgstore.NewAggregateStore(pool)
		pricedStore = chstore.NewPricedObservationStore(conn)
	}

	// Latest-price cache.
	var latestPrices storage.LatestPriceStore
	if opts.redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.redisAddr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		latestPrices = redisstore.NewLatestPriceStore(client, cfg.RedisTTL())
	}

	// Aggregate sinks.
	sinks := []sink.AggregateSink{sink.NewStoreSink(aggregateStore)}
	if len(opts.kafkaBrokers) > 0 {
		kafkaSink := sink.NewKafkaSink(opts.kafkaBrokers, opts.kafkaTopic)
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		logger.Printf("Publishing aggregates to kafka topic %s via %v", opts.kafkaTopic, opts.kafkaBrokers)
	}

	// Observations: CSV file or previously ingested rows.
	observations, err := loadObservations(ctx, logger, opts.csvPath, observationStore)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		return fmt.Errorf("no observations to process")
	}

	ingestion.SortObservations(observations)
	if err := ingestion.ValidateOrdering(observations); err != nil {
		return fmt.Errorf("validate ordering: %w", err)
	}

	replayer := ingestion.NewReplayer(ingestion.ReplayerOptions{
		Observations: observations,
		Rate:         opts.rate,
		Logger:       logger,
	})

	runner := pipeline.NewRunner(pipeline.Options{
		Weights:      cfg.Weights,
		Pricing:      cfg.Pricing,
		Sink:         sink.NewMulti(sinks...),
		PricedStore:  pricedStore,
		LatestPrices: latestPrices,
		Logger:       logger,
	})

	logger.Printf("Replaying %d observations (rate: %d/s)...", len(observations), opts.rate)
	result, err := runner.Run(ctx, replayer.Replay(ctx))
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	logger.Printf("Pipeline complete in %v: %d processed, %d priced, %d aggregates (%d flushed on shutdown), %d late dropped, %d enrich failures, %d pricing failures",
		result.Duration, result.ObservationsProcessed, result.PricesComputed,
		result.AggregatesEmitted, result.FlushedOnShutdown, result.LateDropped,
		result.EnrichFailures, result.PricingFailures)

	// Reports read the store back so a partial cancelled run still reports
	// whatever was persisted.
	generator := reporting.NewGenerator(aggregateStore)
	if err := generator.WriteFiles(ctx, opts.outputDir); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	logger.Printf("Reports written to %s/", opts.outputDir)

	return nil
}

// loadObservations reads the CSV when a path is given, otherwise returns
// everything previously ingested into the observation store.
func loadObservations(ctx context.Context, logger *log.Logger, csvPath string, store storage.ObservationStore) ([]*domain.Observation, error) {
	if csvPath != "" {
		result, err := ingestion.LoadCSVFile(csvPath)
		if err != nil {
			return nil, fmt.Errorf("load csv: %w", err)
		}
		logger.Printf("Loaded %s: %d rows, %d accepted, %d rejected",
			csvPath, result.Rows, len(result.Observations), result.RejectedTotal())
		return result.Observations, nil
	}

	observations, err := store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	logger.Printf("Read %d observations from store", len(observations))
	return observations, nil
}

func splitBrokers(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
