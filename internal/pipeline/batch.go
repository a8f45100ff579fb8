package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/careernest/credsheet/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when no concurrency is configured.
const DefaultConcurrency = 4

// BatchProcessor runs one pipeline per job with bounded concurrency.
// Jobs are independent; a failing job does not stop the others.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each job.
	pipelineFactory func() *Pipeline

	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of jobs run at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every job and returns them in input order. Job
// failures are recorded on the jobs; the returned error is only set when
// the context was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*model.Job) ([]*model.Job, error) {
	err := bp.ProcessBatchWithCallback(ctx, jobs, func(*model.Job, int) {})
	return jobs, err
}

// ProcessBatchWithCallback runs every job and calls callback as each one
// finishes. The callback runs on the job's goroutine and must be safe for
// concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []*model.Job,
	callback func(job *model.Job, index int),
) error {
	bp.logger.Debug("starting batch processing",
		"total_jobs", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			pipeline := bp.pipelineFactory()
			if err := pipeline.Execute(ctx, job); err != nil {
				bp.logger.Warn("job failed",
					"job", job.Name,
					"error", err,
				)
			}

			callback(job, i)

			// The error stays on the job so other jobs keep running.
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch processing complete",
		"total_jobs", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return err
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Succeeded int
	Failed    int
	Records   int
	Pages     int
}

// Summarize counts succeeded and failed jobs.
func Summarize(jobs []*model.Job) Summary {
	var s Summary
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if job.Failed() {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Pages += job.PageCount
		if job.Sheet != nil {
			s.Records += job.Sheet.Len()
		}
	}
	return s
}
