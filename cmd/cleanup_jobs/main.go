package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/spanner"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/chatsync-service/internal/config"
	"github.com/light-bringer/chatsync-service/internal/pkg/logger"
)

// Options of one cleanup run.
type Options struct {
	CompletedRetention time.Duration
	FailedRetention    time.Duration
	DryRun             bool
}

func main() {
	opts := Options{}
	flag.DurationVar(&opts.CompletedRetention, "completed-retention", 30*24*time.Hour, "Retention for completed jobs")
	flag.DurationVar(&opts.FailedRetention, "failed-retention", 90*24*time.Hour, "Retention for failed and stalled jobs")
	flag.BoolVar(&opts.DryRun, "dry-run", false, "Show what would be deleted without actually deleting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()
	client, err := spanner.NewClient(ctx, cfg.Spanner.Database)
	if err != nil {
		lg.Fatal("failed to create Spanner client", zap.Error(err))
	}
	defer client.Close()

	if err := cleanupJobs(ctx, client, opts, time.Now().UTC(), lg); err != nil {
		lg.Fatal("cleanup failed", zap.Error(err))
	}
}

func cleanupJobs(ctx context.Context, client *spanner.Client, opts Options, now time.Time, lg *zap.Logger) error {
	c := newCutoffs(now, opts)
	lg.Info("starting sync job cleanup",
		zap.Time("completed_cutoff", c.completed),
		zap.Time("failed_cutoff", c.failed),
		zap.Bool("dry_run", opts.DryRun))

	if opts.DryRun {
		counts, err := countByStatus(ctx, client.Single(), c)
		if err != nil {
			return err
		}
		var total int64
		for status, n := range counts {
			lg.Info("would delete jobs", zap.String("status", status), zap.Int64("count", n))
			total += n
		}
		lg.Info("dry run finished", zap.Int64("total", total))
		return nil
	}

	// partitioned DML has no per-transaction mutation limit
	deleted, err := client.PartitionedUpdate(ctx, c.deleteStatement())
	if err != nil {
		return fmt.Errorf("failed to delete jobs: %w", err)
	}
	lg.Info("sync job cleanup finished", zap.Int64("deleted", deleted))
	return nil
}

type querier interface {
	Query(ctx context.Context, stmt spanner.Statement) *spanner.RowIterator
}

func countByStatus(ctx context.Context, q querier, c cutoffs) (map[string]int64, error) {
	iter := q.Query(ctx, c.countStatement())
	defer iter.Stop()

	counts := make(map[string]int64)
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			return counts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to count jobs: %w", err)
		}

		var (
			status string
			count  int64
		)
		if err := row.Columns(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to parse row: %w", err)
		}
		counts[status] = count
	}
}
