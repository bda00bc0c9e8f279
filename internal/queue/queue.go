// Package queue hands jobs from the accepting process to a worker with
// at-least-once delivery, bounded retries and time limits. The job id is
// the idempotency key: re-execution fully replaces the job snapshot, so
// redelivering a task is always safe.
package queue

import "context"

// TaskTypeTranscribe is the asynq task type for transcription runs.
const TaskTypeTranscribe = "transcription:run"

type taskPayload struct {
	JobID string `json:"job_id"`
}

// Enqueuer is what the API server sees of the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Executor is the worker-side contract the queue dispatches to.
type Executor interface {
	Run(ctx context.Context, jobID string) error
}
