package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ProcessorQueue runs jobs on an in-process worker pool. Jobs still buffered
// when the process exits are lost; the Redis queue covers that case.
type ProcessorQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	size    int
	timeout time.Duration

	jobs chan Job
	wg   sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	senders sync.WaitGroup
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithProcessTimeout bounds one job including its retries.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewProcessorQueue starts the workers immediately.
func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		size:    256,
		timeout: 15 * time.Minute,
	}
	for _, o := range opts {
		o(q)
	}
	q.jobs = make(chan Job, q.size)
	q.done = make(chan struct{})
	q.wg.Add(q.workers)
	for i := 1; i <= q.workers; i++ {
		go q.work(i)
	}
	return q
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	log := q.logger.With("worker_id", workerID, "backend", "memory")
	log.Debug("worker started")
	for job := range q.jobs {
		q.run(log, job)
	}
	log.Debug("worker stopped")
}

func (q *ProcessorQueue) run(log *slog.Logger, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	start := time.Now()
	err := q.proc.Process(ctx, job)
	attrs := []any{
		"kind", job.Kind,
		"task_id", job.TaskID,
		"trace_id", job.TraceID,
		"queued_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		log.Error("queue.job.failed", append(attrs, "error", err)...)
		return
	}
	log.Info("queue.job.done", attrs...)
}

// Enqueue hands job to the pool, waiting for buffer space until ctx ends
// or the queue shuts down.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.RUnlock()
	defer q.senders.Done()

	select {
	case q.jobs <- job:
	default:
		q.logger.Warn("queue.full", "kind", job.Kind, "task_id", job.TaskID, "size", q.size)
		select {
		case q.jobs <- job:
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return ErrQueueClosed
		}
	}
	q.logger.Info("queue.job.queued", "kind", job.Kind, "task_id", job.TaskID, "backend", "memory")
	return nil
}

// Shutdown stops intake and waits for buffered jobs to finish or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// jobs may only be closed once no producer can still send on it
	q.senders.Wait()
	close(q.jobs)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.logger.Info("queue.drained")
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.timeout", "error", ctx.Err())
	}
}
