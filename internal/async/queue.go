package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type JobKind string

const (
	KindGeneration JobKind = "generation"
	KindMatching   JobKind = "matching"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is the smallest useful unit: which task to run and how it got here.
type Job struct {
	Kind        JobKind   `json:"kind"`
	TaskID      uuid.UUID `json:"task_id"`
	Attempt     int       `json:"attempt,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	TraceID     string    `json:"trace_id,omitempty"`
}

// NewJob stamps a job for taskID with a fresh trace id.
func NewJob(kind JobKind, taskID uuid.UUID) Job {
	return Job{
		Kind:        kind,
		TaskID:      taskID,
		SubmittedAt: time.Now().UTC(),
		TraceID:     uuid.NewString(),
	}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor executes one job to completion.
type Processor interface {
	Process(ctx context.Context, job Job) error
}
