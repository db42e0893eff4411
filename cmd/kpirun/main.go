package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/customer-intelligence/internal/artifact"
	"github.com/ignite/customer-intelligence/internal/cache"
	"github.com/ignite/customer-intelligence/internal/config"
	"github.com/ignite/customer-intelligence/internal/dataset"
	"github.com/ignite/customer-intelligence/internal/kpi"
	"github.com/ignite/customer-intelligence/internal/pkg/runlock"
	"github.com/ignite/customer-intelligence/internal/repository/postgres"
	"github.com/ignite/customer-intelligence/internal/warehouse"
)

var errRunInProgress = errors.New("another KPI run is already in progress")

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	asOfFlag := flag.String("as-of", "", "reference date (YYYY-MM-DD), overrides config")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *asOfFlag != "" {
		cfg.Run.AsOf = *asOfFlag
	}

	// The run body lives in its own function so deferred cleanup (lock
	// release, connection closes) runs before the process exits on failure.
	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

// run executes one full batch: load, compute, publish, record.
func run(ctx context.Context, cfg *config.Config) error {
	startedAt := time.Now().UTC()
	asOf, err := cfg.Run.ReferenceTime(startedAt)
	if err != nil {
		return fmt.Errorf("invalid reference date: %w", err)
	}

	src, cleanup, err := buildSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building input source: %w", err)
	}
	defer cleanup()

	var store *cache.Store
	if cfg.Cache.Enabled {
		store = cache.New(cfg.Cache)
		defer store.Close()
	}

	// The run ledger is optional; without Postgres we still run and publish.
	var runs *postgres.RunRepo
	var ledgerDB *sql.DB
	if cfg.Postgres.Enabled {
		ledgerDB, err = postgres.Open(cfg.Postgres.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening postgres: %w", err)
		}
		defer ledgerDB.Close()
		runs = postgres.NewRunRepo(ledgerDB)
		if err := runs.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	// Only one run may write the artifact prefix at a time.
	if lock := buildLock(store, ledgerDB); lock != nil {
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquiring run lock: %w", err)
		}
		if !ok {
			return errRunInProgress
		}
		defer lock.Release(ctx)
	}

	runID := uuid.New().String()
	if runs != nil {
		id, err := runs.Begin(ctx, asOf, startedAt)
		if err != nil {
			return fmt.Errorf("recording run start: %w", err)
		}
		runID = id
	}
	log.Printf("Starting KPI run %s (as of %s)", runID, asOf.Format("2006-01-02"))

	res, counts, err := execute(ctx, cfg, src, store, asOf, runID)
	if err != nil {
		if runs != nil {
			if ferr := runs.Fail(ctx, runID, time.Now().UTC(), err); ferr != nil {
				log.Printf("Failed to record run failure: %v", ferr)
			}
		}
		return fmt.Errorf("run %s failed: %w", runID, err)
	}

	if runs != nil {
		counts.FinishedAt = time.Now().UTC()
		counts.UnknownCustomers = res.Gaps.UnknownCustomers
		counts.UnknownProducts = res.Gaps.UnknownProducts
		if err := runs.Succeed(ctx, runID, counts); err != nil {
			log.Printf("Failed to record run success: %v", err)
		}
	}

	log.Printf("Run %s complete: %d customers, total revenue %.2f, retention rate %.2f",
		runID, res.Final.TotalCustomers, res.Final.TotalRevenue, res.Final.RetentionRate)
	return nil
}

// buildSource selects the input source from config. The returned cleanup
// closes any underlying connection.
func buildSource(ctx context.Context, cfg *config.Config) (dataset.Source, func(), error) {
	noop := func() {}

	switch cfg.Source.Type {
	case "http":
		return dataset.NewHTTPSource(cfg.Source.BaseURL, cfg.Source.Timeout()), noop, nil
	case "snowflake":
		client, err := warehouse.NewClient(cfg.Snowflake)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	case "postgres":
		db, err := postgres.Open(cfg.Postgres.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewInputRepo(db), func() { db.Close() }, nil
	default:
		return dataset.NewFileSource(cfg.Source.LocalDir), noop, nil
	}
}

// buildLock picks a lock backend from what is configured. Returns nil when
// neither Redis nor Postgres is available; a standalone local run needs no
// cross-host exclusion.
func buildLock(store *cache.Store, db *sql.DB) runlock.Lock {
	switch {
	case store != nil:
		return runlock.NewRedisLock(store.Client(), "kpi:run", 30*time.Minute)
	case db != nil:
		return runlock.NewPGAdvisoryLock(db, "kpi:run")
	default:
		return nil
	}
}

// execute runs the pipeline and publishes its artifacts.
func execute(ctx context.Context, cfg *config.Config, src dataset.Source, store *cache.Store, asOf time.Time, runID string) (*kpi.Result, postgres.Run, error) {
	scores, txs, products, err := dataset.LoadAll(ctx, src)
	if err != nil {
		return nil, postgres.Run{}, err
	}
	counts := postgres.Run{
		ScoreRows:       len(scores),
		TransactionRows: len(txs),
		ProductRows:     len(products),
	}
	log.Printf("Loaded %d scores, %d transactions, %d products",
		len(scores), len(txs), len(products))

	res, err := kpi.Run(kpi.Inputs{Scores: scores, Transactions: txs, Products: products}, asOf, cfg.Run.TopN)
	if err != nil {
		return nil, counts, err
	}

	pub, err := buildPublisher(ctx, cfg)
	if err != nil {
		return nil, counts, err
	}
	if err := pub.Publish(ctx, runID, dataset.Tables(res)); err != nil {
		return nil, counts, err
	}
	log.Printf("Published artifacts for run %s", runID)

	if store != nil {
		snap := cache.Snapshot{RunID: runID, CompletedAt: time.Now().UTC(), Result: res}
		if err := store.SetLatest(ctx, snap); err != nil {
			// The artifacts are already durable; a stale cache is recoverable.
			log.Printf("Failed to cache snapshot: %v", err)
		}
	}

	return res, counts, nil
}

func buildPublisher(ctx context.Context, cfg *config.Config) (artifact.Publisher, error) {
	if cfg.Artifacts.Type == "s3" {
		return artifact.NewS3Publisher(ctx,
			cfg.Artifacts.S3Bucket,
			cfg.Artifacts.S3Prefix,
			cfg.Artifacts.AWSRegion,
			cfg.Artifacts.GetAWSProfile(),
		)
	}
	return artifact.NewLocalPublisher(cfg.Artifacts.LocalPath), nil
}
