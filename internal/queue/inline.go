package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ecoworks/transcribed/internal/config"
	"github.com/ecoworks/transcribed/internal/transcribe"
)

// InlineQueue executes jobs in-process. It pairs with the memory job store
// for development: same retry and time-limit semantics as the Redis queue,
// no cross-process delivery.
type InlineQueue struct {
	exec Executor
	cfg  config.QueueConfig
	slot chan struct{}
	wg   sync.WaitGroup
}

func NewInlineQueue(cfg config.QueueConfig, exec Executor) *InlineQueue {
	return &InlineQueue{
		exec: exec,
		cfg:  cfg,
		slot: make(chan struct{}, cfg.Concurrency),
	}
}

// Enqueue dispatches the job on a goroutine and returns immediately. One
// job runs at a time per execution slot.
func (q *InlineQueue) Enqueue(_ context.Context, jobID string) error {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.slot <- struct{}{}
		defer func() { <-q.slot }()
		q.runWithRetry(jobID)
	}()
	return nil
}

func (q *InlineQueue) runWithRetry(jobID string) {
	for attempt := 0; ; attempt++ {
		err := q.runOnce(jobID)
		if err == nil {
			return
		}
		if errors.Is(err, transcribe.ErrNoAPIKey) || attempt >= q.cfg.MaxRetries {
			slog.Error("transcription failed permanently",
				"job_id", jobID, "attempts", attempt+1, "error", err)
			return
		}
		slog.Warn("transcription attempt failed, will retry",
			"job_id", jobID, "attempt", attempt+1, "error", err)
		time.Sleep(q.cfg.RetryDelay)
	}
}

func (q *InlineQueue) runOnce(jobID string) error {
	hardCtx, cancelHard := context.WithTimeout(context.Background(), q.cfg.HardTimeLimit)
	defer cancelHard()
	softCtx, cancelSoft := context.WithTimeout(hardCtx, q.cfg.SoftTimeLimit)
	defer cancelSoft()
	return q.exec.Run(softCtx, jobID)
}

func (q *InlineQueue) Ping(_ context.Context) error { return nil }

// Close waits for in-flight executions to finish.
func (q *InlineQueue) Close() error {
	q.wg.Wait()
	return nil
}

var _ Enqueuer = (*InlineQueue)(nil)
