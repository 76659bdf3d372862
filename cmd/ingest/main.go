// Package main loads a parking dataset CSV, validates it, and bulk-inserts
// the observations into PostgreSQL (or an in-memory dry run).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/ingestion"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/memory"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/migrations"
	pgstore "github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/postgres"
)

func main() {
	csvPath := flag.String("csv", "", "Path to the dataset CSV file")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Validate and load into memory only (dry run)")
	migrate := flag.Bool("migrate", false, "Run PostgreSQL migrations before inserting")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *csvPath == "" {
		logger.Fatal("--csv is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for a dry run)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	if err := run(ctx, logger, *csvPath, *postgresDSN, *useMemory, *migrate); err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, csvPath, postgresDSN string, useMemory, migrate bool) error {
	start := time.Now()

	result, err := ingestion.LoadCSVFile(csvPath)
	if err != nil {
		return fmt.Errorf("load csv: %w", err)
	}

	logger.Printf("Loaded %s: %d rows, %d accepted, %d rejected",
		csvPath, result.Rows, len(result.Observations), result.RejectedTotal())
	printRejections(logger, result.Rejected)

	ingestion.SortObservations(result.Observations)
	if err := ingestion.ValidateOrdering(result.Observations); err != nil {
		return fmt.Errorf("validate ordering: %w", err)
	}

	var store storage.ObservationStore = memory.NewObservationStore()
	if !useMemory {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Println("Migrations applied")
		}

		store = pgstore.NewObservationStore(pool)
	}

	if err := store.InsertBulk(ctx, result.Observations); err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}

	target := "postgres"
	if useMemory {
		target = "memory (dry run)"
	}
	logger.Printf("Inserted %d observations into %s in %v",
		len(result.Observations), target, time.Since(start))
	return nil
}

// printRejections logs per-reason rejection counts in a stable order.
func printRejections(logger *log.Logger, rejected map[string]int) {
	if len(rejected) == 0 {
		return
	}
	reasons := make([]string, 0, len(rejected))
	for reason := range rejected {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		logger.Printf("  rejected %-20s %d", reason, rejected[reason])
	}
}
