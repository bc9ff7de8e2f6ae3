package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/certsnap/certsnap/internal/model"
)

// BatchProcessor handles concurrent processing of multiple identifiers.
// It uses errgroup to manage goroutines and respect the concurrency limit.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
//  1. It keeps the Pipeline focused on single-identifier execution
//  2. It allows different batch strategies (e.g., rate limiting)
//  3. Each identifier needs a fresh pipeline, and the factory lives here
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each identifier.
	// Pipelines carry per-identifier state in their steps, so instances
	// must not be shared between identifiers.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of identifiers in flight.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed records in input order.
	// Access is synchronized via mutex.
	results []*model.ResultRecord
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent identifiers.
// Default is 2: the lookup site throttles aggressively, and the anti-bot
// proxy bills per concurrent session.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each identifier to create a
// fresh pipeline instance, so step state never leaks between identifiers.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     2,
		results:         make([]*model.ResultRecord, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch resolves multiple identifiers concurrently.
//
// Results come back in input order regardless of completion order: the
// output CSV mirrors the input file row for row. A canceled context stops
// scheduling new identifiers; identifiers that never emitted stay in the
// result slice with a non-terminal state so sinks can skip them.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, identifiers []string) ([]*model.ResultRecord, error) {
	bp.logger.Info("starting batch processing",
		"total_identifiers", len(identifiers),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain input order
	bp.results = make([]*model.ResultRecord, len(identifiers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, identifier := range identifiers {
		g.Go(func() error {
			record := model.NewResultRecord(identifier)

			bp.mu.Lock()
			bp.results[i] = record
			bp.mu.Unlock()

			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("resolving identifier",
				"identifier", identifier,
				"index", i+1,
				"total", len(identifiers),
			)

			p := bp.pipelineFactory()
			if err := p.Execute(ctx, record); err != nil {
				// Only cancellation reaches here; per-identifier failures
				// are already recorded on the emitted record.
				return err
			}

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_identifiers", len(identifiers),
		"elapsed", elapsed,
	)

	return bp.results, err
}
