package downloader

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"walldl/pkg/logger"
)

// DefaultWorkers is the pool size when none is configured
const DefaultWorkers = 4

// FailurePolicy decides what a failed job does to the rest of the run
type FailurePolicy string

const (
	// PolicyAbort cancels the run on the first failed job
	PolicyAbort FailurePolicy = "abort"
	// PolicyContinue runs every job and reports all failures at the end
	PolicyContinue FailurePolicy = "continue"
)

// ErrPoolClosed is returned by Submit after Close or after an abort
var ErrPoolClosed = stderrors.New("worker pool is closed")

// JobRunner executes a single job
type JobRunner interface {
	Download(ctx context.Context, job DownloadJob) (DownloadResult, error)
}

// Summary aggregates the results of a run
type Summary struct {
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
	Cancelled  int
	Duplicates int
	Bytes      int64
	Duration   time.Duration
	Failures   []DownloadResult
}

func (s *Summary) add(r DownloadResult) {
	s.Total++
	switch r.Status {
	case StatusDownloaded:
		s.Downloaded++
		s.Bytes += r.Size
	case StatusSkipped:
		s.Skipped++
	case StatusCancelled:
		s.Cancelled++
	default:
		s.Failed++
		s.Failures = append(s.Failures, r)
	}
}

// WorkerPool runs download jobs on a fixed number of workers fed by an
// unbounded queue.
type WorkerPool struct {
	numWorkers int
	policy     FailurePolicy
	queue      *jobQueue
	runner     JobRunner
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	logger     logger.Logger
	started    time.Time

	mu       sync.Mutex
	summary  Summary
	firstErr error
	errs     []error
}

// NewWorkerPool creates a download worker pool. Workers run under a child
// of ctx, so cancelling ctx stops the pool.
func NewWorkerPool(
	ctx context.Context,
	numWorkers int,
	policy FailurePolicy,
	runner JobRunner,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = DefaultWorkers
	}
	if policy == "" {
		policy = PolicyAbort
	}
	if log == nil {
		log = logger.GetLogger()
	}

	poolCtx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		numWorkers: numWorkers,
		policy:     policy,
		queue:      newJobQueue(),
		runner:     runner,
		ctx:        poolCtx,
		cancel:     cancel,
		logger:     log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.started = time.Now()
	logger.LogComponentStart(wp.logger, "worker_pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"policy":      string(wp.policy),
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit queues a job. It fails once the pool is closed or the run has
// been cancelled.
func (wp *WorkerPool) Submit(job DownloadJob) error {
	if err := wp.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPoolClosed, err)
	}
	if !wp.queue.Push(job) {
		return ErrPoolClosed
	}

	wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
		"category": job.Category,
		"asset_id": job.Link.AssetID,
	})
	return nil
}

// Close signals that no more jobs will be submitted. Workers finish the
// queued jobs and exit.
func (wp *WorkerPool) Close() {
	wp.queue.Close()
}

// Cancel stops the run: queued jobs are recorded as cancelled and
// in-flight downloads see a cancelled context.
func (wp *WorkerPool) Cancel() {
	wp.cancel()
}

// Wait blocks until every worker has exited and returns the run summary.
// Under PolicyAbort the error is the first failure; under PolicyContinue it
// joins all failures. A run cut short by cancellation of the parent context
// returns the context error.
func (wp *WorkerPool) Wait() (*Summary, error) {
	wp.wg.Wait()

	wp.mu.Lock()
	summary := wp.summary
	summary.Failures = append([]DownloadResult(nil), wp.summary.Failures...)
	summary.Duration = time.Since(wp.started)
	firstErr, errs := wp.firstErr, wp.errs
	wp.mu.Unlock()

	ctxErr := wp.ctx.Err()
	wp.cancel()

	logger.LogComponentStop(wp.logger, "worker_pool", "drained")

	switch {
	case wp.policy == PolicyAbort && firstErr != nil:
		return &summary, firstErr
	case len(errs) > 0:
		return &summary, stderrors.Join(errs...)
	case summary.Cancelled > 0 && ctxErr != nil:
		return &summary, ctxErr
	default:
		return &summary, nil
	}
}

// worker is the main worker routine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for {
		job, ok := wp.queue.Pop()
		if !ok {
			break
		}

		// Drain without running once the run is cancelled
		if wp.ctx.Err() != nil {
			wp.record(DownloadResult{Job: job, Status: StatusCancelled, Error: wp.ctx.Err()})
			continue
		}

		wp.record(wp.processJob(job, id))
	}

	wp.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job DownloadJob, workerID int) DownloadResult {
	result, err := wp.runner.Download(wp.ctx, job)
	if err == nil {
		return result
	}

	result.Job = job
	result.Error = err
	if wp.ctx.Err() != nil && stderrors.Is(err, context.Canceled) {
		result.Status = StatusCancelled
		return result
	}

	result.Status = StatusFailed
	wp.logger.WithError(err).ErrorWithFields("Worker failed to download asset", map[string]interface{}{
		"worker_id": workerID,
		"category":  job.Category,
		"asset_id":  job.Link.AssetID,
		"duration":  result.Duration,
	})
	return result
}

func (wp *WorkerPool) record(result DownloadResult) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.summary.add(result)
	if result.Status != StatusFailed {
		return
	}

	wp.errs = append(wp.errs, result.Error)
	if wp.firstErr == nil {
		wp.firstErr = result.Error
		if wp.policy == PolicyAbort {
			wp.logger.Warn("Aborting run after failed download")
			wp.cancel()
		}
	}
}
