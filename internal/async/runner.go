package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
)

// Handler runs one kind of task. Run returns an error only for conditions
// worth retrying; Fail is called once retries are exhausted.
type Handler interface {
	Run(ctx context.Context, taskID uuid.UUID) error
	Fail(ctx context.Context, taskID uuid.UUID, cause error) error
}

// Runner dispatches jobs to handlers by kind and applies the retry policy.
type Runner struct {
	handlers map[JobKind]Handler
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

type RunnerOption func(*Runner)

func WithAttempts(n uint) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.delay = d
		}
	}
}

func NewRunner(logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		handlers: make(map[JobKind]Handler),
		attempts: 3,
		delay:    60 * time.Second,
		logger:   logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) Handle(kind JobKind, h Handler) {
	r.handlers[kind] = h
}

// Process runs job with retries. After the last failed attempt the task is
// marked failed through its handler and the error is returned.
func (r *Runner) Process(ctx context.Context, job Job) error {
	h, ok := r.handlers[job.Kind]
	if !ok {
		return fmt.Errorf("no handler for job kind %q", job.Kind)
	}

	log := r.logger.With("kind", job.Kind, "task_id", job.TaskID, "trace_id", job.TraceID)
	start := time.Now()

	err := retry.Do(
		func() error { return h.Run(ctx, job.TaskID) },
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("task.retry", "attempt", job.Attempt+int(n)+1, "error", err)
		}),
	)
	if err == nil {
		log.Info("task.done", "elapsed_ms", time.Since(start).Milliseconds())
		return nil
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		// shutdown, not a task failure; the job is redelivered
		log.Warn("task.interrupted", "error", err)
		return err
	}

	log.Error("task.exhausted", "attempts", r.attempts, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
	// the job context may be what failed; record the outcome regardless
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if ferr := h.Fail(failCtx, job.TaskID, err); ferr != nil {
		log.Error("task.fail_error", "error", ferr)
		return errors.Join(err, ferr)
	}
	return err
}
