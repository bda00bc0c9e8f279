package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ecoworks/transcribed/internal/config"
	"github.com/ecoworks/transcribed/internal/transcribe"
)

// AsynqQueue is the Redis-backed Enqueuer used when the worker runs as a
// separate process.
type AsynqQueue struct {
	client *asynq.Client
	cfg    config.QueueConfig
}

func NewAsynqQueue(redisURL string, cfg config.QueueConfig) (*AsynqQueue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URI: %w", err)
	}
	return &AsynqQueue{client: asynq.NewClient(opt), cfg: cfg}, nil
}

// Enqueue submits the job keyed by its id. A task id conflict means the
// job is already queued or running, which is not an error.
func (q *AsynqQueue) Enqueue(ctx context.Context, jobID string) error {
	payload, err := json.Marshal(taskPayload{JobID: jobID})
	if err != nil {
		return fmt.Errorf("encode task payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeTranscribe, payload)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.TaskID(jobID),
		asynq.Queue(q.cfg.Name),
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.Timeout(q.cfg.HardTimeLimit),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	return nil
}

func (q *AsynqQueue) Ping(_ context.Context) error {
	return q.client.Ping()
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

var _ Enqueuer = (*AsynqQueue)(nil)

// Worker consumes transcription tasks from Redis. Concurrency is capped at
// one execution per worker process because inference is compute-bound;
// scale by adding worker processes.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

func NewWorker(redisURL string, cfg config.QueueConfig, exec Executor) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URI: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Name: 1},
		RetryDelayFunc: func(_ int, _ error, _ *asynq.Task) time.Duration {
			return cfg.RetryDelay
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeTranscribe, handleTranscribe(cfg, exec))

	return &Worker{srv: srv, mux: mux}, nil
}

// Run blocks until Shutdown is called or the server errors.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}

// handleTranscribe adapts the executor to asynq. The task context carries
// the hard time limit; the soft limit is an inner deadline the executor
// observes at segment boundaries, leaving headroom to record the failure
// before asynq kills the task.
func handleTranscribe(cfg config.QueueConfig, exec Executor) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p taskPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode task payload: %v: %w", err, asynq.SkipRetry)
		}

		softCtx, cancel := context.WithTimeout(ctx, cfg.SoftTimeLimit)
		defer cancel()

		err := exec.Run(softCtx, p.JobID)
		if err == nil {
			return nil
		}

		// A missing credential cannot be fixed by retrying.
		if errors.Is(err, transcribe.ErrNoAPIKey) {
			slog.Error("transcription failed permanently", "job_id", p.JobID, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried >= maxRetry {
			slog.Error("transcription failed permanently, retries exhausted",
				"job_id", p.JobID, "attempts", retried+1, "error", err)
		} else {
			slog.Warn("transcription attempt failed, will retry",
				"job_id", p.JobID, "attempt", retried+1, "error", err)
		}
		return err
	}
}
