package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

// Tracker is the single write path for job snapshots. Every status or
// progress change made by the API server or the worker goes through it, so
// the transition table and progress bands are enforced in one place.
type Tracker struct {
	store jobstore.Store
	now   func() time.Time
}

func NewTracker(store jobstore.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Store exposes the underlying snapshot store for read-only callers.
func (t *Tracker) Store() jobstore.Store { return t.store }

// Create persists a new job snapshot in the pending state.
func (t *Tracker) Create(ctx context.Context, id, fileName, language string, provider models.Provider, sizeBytes int64) (*models.Job, error) {
	now := t.now()
	job := &models.Job{
		ID:            id,
		Status:        models.StatusPending,
		Progress:      0,
		FileName:      fileName,
		Language:      language,
		Provider:      provider,
		FileSizeBytes: sizeBytes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := t.store.PutJob(ctx, id, job); err != nil {
		return nil, fmt.Errorf("create job %s: %w", id, err)
	}
	return job, nil
}

// Transition moves the job to status with the given progress, validating
// both against the state machine, and persists the updated snapshot.
func (t *Tracker) Transition(ctx context.Context, job *models.Job, status models.Status, progress float64) error {
	if !CanTransition(job.Status, status) {
		return fmt.Errorf("%w: %s -> %s (job %s)", ErrInvalidTransition, job.Status, status, job.ID)
	}
	lo, hi, ok := progressBand(status)
	if !ok || progress < lo || progress > hi {
		return fmt.Errorf("%w: progress %.1f outside [%.0f, %.0f] for %s (job %s)",
			ErrInvalidTransition, progress, lo, hi, status, job.ID)
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = t.now()
	if err := t.store.PutJob(ctx, job.ID, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return nil
}

// Update persists the current snapshot without a status change, validating
// that the progress stays within the band of the current status. The
// segment loop calls this after each segment.
func (t *Tracker) Update(ctx context.Context, job *models.Job) error {
	return t.Transition(ctx, job, job.Status, job.Progress)
}

// Complete marks the job terminal-success: progress 100 and the result are
// set atomically in a single snapshot write.
func (t *Tracker) Complete(ctx context.Context, job *models.Job, result *models.TranscriptionResult) error {
	if !CanTransition(job.Status, models.StatusComplete) {
		return fmt.Errorf("%w: %s -> %s (job %s)", ErrInvalidTransition, job.Status, models.StatusComplete, job.ID)
	}
	job.Status = models.StatusComplete
	job.Progress = 100
	job.Result = result
	job.Error = ""
	job.UpdatedAt = t.now()
	if err := t.store.PutJob(ctx, job.ID, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return nil
}

// Fail marks the job terminal-error. Progress is left where it was and the
// result is never set alongside the error.
func (t *Tracker) Fail(ctx context.Context, job *models.Job, msg string) error {
	if job.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s (job %s)", ErrInvalidTransition, job.Status, models.StatusError, job.ID)
	}
	job.Status = models.StatusError
	job.Error = msg
	job.Result = nil
	job.UpdatedAt = t.now()
	if err := t.store.PutJob(ctx, job.ID, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return nil
}

// Reset rebuilds the snapshot for a fresh execution attempt. This is the
// at-least-once redelivery path: a retried task fully replaces whatever the
// previous attempt left behind, including an error state, rather than
// transitioning from it. Only a completed job refuses a reset.
func (t *Tracker) Reset(ctx context.Context, job *models.Job) error {
	if job.Status == models.StatusComplete {
		return fmt.Errorf("%w: cannot reset completed job %s", ErrInvalidTransition, job.ID)
	}
	job.Status = models.StatusProcessing
	job.Progress = 5
	job.CurrentSegment = 0
	job.TotalSegments = 0
	job.CurrentText = ""
	job.Result = nil
	job.Error = ""
	job.StartTime = t.now()
	job.UpdatedAt = job.StartTime
	if err := t.store.PutJob(ctx, job.ID, job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return nil
}
