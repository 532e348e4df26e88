package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/sitecheck/internal/config"
	"github.com/nao1215/sitecheck/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Result is the outcome of one site in a batch.
type Result struct {
	// Target is the site.
	Target model.Target

	// Report is the site report. For a site that never started (batch
	// aborted or cancelled) only Target and Error are set.
	Report model.SiteReport

	// Err is the pipeline error, if any.
	Err error
}

// BatchProcessor runs the pipeline over many sites.
//
// The default concurrency of 1 processes sites strictly one after another:
// no stage of site N+1 starts before site N's pipeline, including its
// callback, has finished. Higher concurrency keeps per-site stage order
// while overlapping different sites.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each site so per-site
	// settings (headers, keywords) can differ.
	pipelineFactory func(model.Target) *Pipeline

	// concurrency is the maximum number of sites processed at once.
	concurrency int

	// limiter paces site starts. Nil means no pacing.
	limiter *rate.Limiter

	// abortOnError stops the batch at the first failed site instead of
	// skipping it.
	abortOnError bool

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

// WithConcurrency sets the maximum number of concurrent sites.
// Default is 1.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRateLimit limits site starts to perSecond with the given burst.
// A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) BatchOption {
	return func(b *BatchProcessor) {
		if perSecond <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithAbortOnError stops the batch at the first site whose pipeline fails.
// By default the failed site is reported and the batch continues.
func WithAbortOnError(abort bool) BatchOption {
	return func(b *BatchProcessor) {
		b.abortOnError = abort
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each site to create a fresh
// pipeline instance.
func NewBatchProcessor(pipelineFactory func(model.Target) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every target and returns the results in input order.
// An empty target list returns config.ErrNoTarget before any work.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []model.Target) ([]Result, error) {
	results := make([]Result, len(targets))
	var mu sync.Mutex

	err := bp.ProcessBatchWithCallback(ctx, targets, func(r Result, index int) {
		mu.Lock()
		results[index] = r
		mu.Unlock()
	})
	if len(targets) == 0 {
		return nil, err
	}
	return results, err
}

// ProcessBatchWithCallback runs every target and calls callback once per
// target with its result and input index, including targets skipped after
// an abort. The callback runs on the goroutine that processed the site; with
// concurrency 1 it returns before the next site starts.
//
// The returned error is the first site error when aborting on error, the
// context error when ctx was cancelled, and nil otherwise.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []model.Target,
	callback func(result Result, index int),
) error {
	if len(targets) == 0 {
		return config.ErrNoTarget
	}

	bp.logger.Info("starting batch processing",
		"total_sites", len(targets),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if bp.limiter != nil {
				if err := bp.limiter.Wait(gctx); err != nil {
					callback(skipped(target, err), i)
					return err
				}
			}
			if err := gctx.Err(); err != nil {
				callback(skipped(target, err), i)
				return err
			}

			bp.logger.Info("checking site", "site", target.URL, "index", i+1, "total", len(targets))

			report, err := bp.pipelineFactory(target).Run(gctx, target)
			callback(Result{Target: target, Report: report, Err: err}, i)

			if err != nil {
				bp.logger.Warn("site failed", "site", target.URL, "error", err)
				if bp.abortOnError {
					return fmt.Errorf("%s: %w", target.URL, err)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_sites", len(targets),
		"elapsed", time.Since(startTime),
	)
	if err == nil {
		err = ctx.Err()
	}
	return err
}

func skipped(target model.Target, err error) Result {
	return Result{
		Target: target,
		Report: model.SiteReport{Target: target, Error: err.Error()},
		Err:    err,
	}
}
