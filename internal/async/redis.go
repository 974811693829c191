package async

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a reliable list queue. Producers LPUSH onto <prefix>:pending;
// workers BLMOVE a job into <prefix>:processing and remove it only after the
// processor returns, so a crashed worker leaves the job behind for redelivery.
type RedisQueue struct {
	rdb     redis.UniversalClient
	pending string
	working string
	logger  *slog.Logger

	workers     int
	timeout     time.Duration
	pollTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

type RedisOption func(*RedisQueue)

func WithRedisWorkers(n int) RedisOption {
	return func(q *RedisQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithRedisProcessTimeout(d time.Duration) RedisOption {
	return func(q *RedisQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithPollTimeout(d time.Duration) RedisOption {
	return func(q *RedisQueue) {
		if d > 0 {
			q.pollTimeout = d
		}
	}
}

func NewRedisQueue(rdb redis.UniversalClient, prefix string, logger *slog.Logger, opts ...RedisOption) *RedisQueue {
	if prefix == "" {
		prefix = "jobapply:tasks"
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &RedisQueue{
		rdb:         rdb,
		pending:     prefix + ":pending",
		working:     prefix + ":processing",
		logger:      logger,
		workers:     4,
		timeout:     15 * time.Minute,
		pollTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.pending, payload).Err(); err != nil {
		q.logger.Error("redis.enqueue.error", "kind", job.Kind, "task_id", job.TaskID, "error", err)
		return fmt.Errorf("enqueue: %w", err)
	}
	q.logger.Info("queued task", "kind", job.Kind, "task_id", job.TaskID, "backend", "redis")
	return nil
}

// Recover moves jobs abandoned in the processing list back to pending and
// reports how many were moved. Run it before starting workers.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.rdb.LMove(ctx, q.working, q.pending, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("recover: %w", err)
		}
		n++
	}
	if n > 0 {
		q.logger.Warn("redis.recover.requeued", "jobs", n)
	}
	return n, nil
}

// Start recovers abandoned jobs and launches the workers. It returns immediately.
func (q *RedisQueue) Start(ctx context.Context, proc Processor) error {
	if _, err := q.Recover(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, i+1, proc)
	}
	return nil
}

func (q *RedisQueue) work(ctx context.Context, workerID int, proc Processor) {
	defer q.wg.Done()
	q.logger.Info("worker started", "worker_id", workerID, "backend", "redis")
	defer q.logger.Info("worker stopped", "worker_id", workerID)

	for ctx.Err() == nil {
		payload, err := q.rdb.BLMove(ctx, q.pending, q.working, "RIGHT", "LEFT", q.pollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Error("redis.dequeue.error", "worker_id", workerID, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		q.handle(ctx, workerID, proc, payload)
	}
}

func (q *RedisQueue) handle(ctx context.Context, workerID int, proc Processor, payload string) {
	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		q.logger.Error("redis.decode.error", "worker_id", workerID, "error", err)
		q.ack(workerID, payload)
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, q.timeout)
	err := proc.Process(jobCtx, job)
	cancel()

	if err != nil && ctx.Err() != nil {
		// shutting down mid-job: leave it in processing for the next start
		q.logger.Warn("task interrupted", "worker_id", workerID, "task_id", job.TaskID)
		return
	}
	if err != nil {
		q.logger.Error("task failed", "worker_id", workerID, "kind", job.Kind, "task_id", job.TaskID, "trace_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("task processed", "worker_id", workerID, "kind", job.Kind, "task_id", job.TaskID, "trace_id", job.TraceID)
	}
	q.ack(workerID, payload)
}

func (q *RedisQueue) ack(workerID int, payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.rdb.LRem(ctx, q.working, 1, payload).Err(); err != nil {
		q.logger.Error("redis.ack.error", "worker_id", workerID, "error", err)
	}
}

// Shutdown stops the workers and waits for in-flight jobs.
func (q *RedisQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("redis queue stopped")
	}
}

// Depth reports the pending and processing list lengths.
func (q *RedisQueue) Depth(ctx context.Context) (pending, processing int64, err error) {
	pipe := q.rdb.Pipeline()
	p := pipe.LLen(ctx, q.pending)
	w := pipe.LLen(ctx, q.working)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return p.Val(), w.Val(), nil
}
