// Package main serves the pricing API: daily aggregates over HTTP, latest
// prices per lot, and a WebSocket feed of closed windows. When given a CSV
// it also runs the pipeline in streaming mode so connected clients see
// aggregates as their windows close.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/config"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/ingestion"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/pipeline"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/server"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/sink"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
	chstore "github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/clickhouse"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/memory"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/migrations"
	pgstore "github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/postgres"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/redisstore"
)

func main() {
	logger := log.New(os.Stdout, "[serve] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	httpAddr := flag.String("http-addr", cfg.HTTPAddress(), "HTTP listen address")
	csvPath := flag.String("csv", "", "Dataset CSV to stream through the pipeline while serving (optional)")
	rate := flag.Int("rate", cfg.Replay.Rate, "Replay rate in records/sec when --csv is set")
	postgresDSN := flag.String("postgres-dsn", cfg.Postgres.DSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Clickhouse.DSN, "ClickHouse connection string (empty to skip the priced timeseries)")
	redisAddr := flag.String("redis-addr", cfg.Redis.Addr, "Redis address for the latest-price cache (empty to use memory)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", false, "Run database migrations before serving")

	flag.Parse()

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if *useMemory && *csvPath == "" {
		logger.Fatal("--csv is required with --use-memory (nothing to serve otherwise)")
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

	err = run(ctx, logger, cfg, serveOptions{
		httpAddr:      *httpAddr,
		csvPath:       *csvPath,
		rate:          *rate,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		redisAddr:     *redisAddr,
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

type serveOptions struct {
	httpAddr      string
	csvPath       string
	rate          int
	postgresDSN   string
	clickhouseDSN string
	redisAddr     string
	useMemory     bool
	migrate       bool
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, opts serveOptions) error {
	var (
		aggregateStore storage.AggregateStore         = memory.NewAggregateStore()
		pricedStore    storage.PricedObservationStore = memory.NewPricedObservationStore()
	)

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if opts.migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("run postgres migrations: %w", err)
			}
		}
		aggregateStore = pgstore.NewAggregateStore(pool)

		if opts.clickhouseDSN != "" {
			conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
			if err != nil {
				return fmt.Errorf("connect to clickhouse: %w", err)
			}
			defer conn.Close()

			if opts.migrate {
				if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
					return fmt.Errorf("run clickhouse migrations: %w", err)
				}
			}
			pricedStore = chstore.NewPricedObservationStore(conn)
		} else {
			pricedStore = nil
		}
	}

	var latestPrices storage.LatestPriceStore = memory.NewLatestPriceStore()
	if opts.redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.redisAddr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		latestPrices = redisstore.NewLatestPriceStore(client, cfg.RedisTTL())
	}

	hub := server.NewHub(log.New(os.Stdout, "[ws-hub] ", log.LstdFlags))
	defer hub.Close()

	api := server.New(server.Options{
		AggregateStore: aggregateStore,
		LatestPrices:   latestPrices,
		Hub:            hub,
		Logger:         logger,
	})

	errCh := make(chan error, 2)

	go func() {
		if err := api.ListenAndServe(opts.httpAddr); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if opts.csvPath != "" {
		go func() {
			if err := streamCSV(ctx, logger, cfg, opts, hub, aggregateStore, pricedStore, latestPrices); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("pipeline: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// streamCSV replays the CSV through the pipeline, publishing each closed
// window to the store and to connected WebSocket clients.
func streamCSV(ctx context.Context, logger *log.Logger, cfg *config.Config, opts serveOptions, hub *server.Hub, aggregateStore storage.AggregateStore, pricedStore storage.PricedObservationStore, latestPrices storage.LatestPriceStore) error {
	result, err := ingestion.LoadCSVFile(opts.csvPath)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}
	logger.Printf("Loaded %s: %d rows, %d accepted, %d rejected",
		opts.csvPath, result.Rows, len(result.Observations), result.RejectedTotal())

	ingestion.SortObservations(result.Observations)
	if err := ingestion.ValidateOrdering(result.Observations); err != nil {
		return fmt.Errorf("validate ordering: %w", err)
	}

	replayer := ingestion.NewReplayer(ingestion.ReplayerOptions{
		Observations: result.Observations,
		Rate:         opts.rate,
		Logger:       logger,
	})

	runner := pipeline.NewRunner(pipeline.Options{
		Weights:      cfg.Weights,
		Pricing:      cfg.Pricing,
		Sink:         sink.NewMulti(sink.NewStoreSink(aggregateStore), hub),
		PricedStore:  pricedStore,
		LatestPrices: latestPrices,
		Logger:       logger,
	})

	logger.Printf("Streaming %d observations (rate: %d/s)...", len(result.Observations), opts.rate)
	runResult, err := runner.Run(ctx, replayer.Replay(ctx))
	if err != nil {
		return err
	}

	logger.Printf("Stream complete in %v: %d priced, %d aggregates emitted (%d flushed on shutdown)",
		runResult.Duration, runResult.PricesComputed,
		runResult.AggregatesEmitted, runResult.FlushedOnShutdown)
	return nil
}
