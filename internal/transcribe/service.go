package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ecoworks/transcribed/internal/audio"
	"github.com/ecoworks/transcribed/internal/jobs"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

// ErrEmptyPayload is an input validation error: rejected before any job id
// is allocated or anything is written to the store.
var ErrEmptyPayload = errors.New("audio payload is empty")

// Enqueuer is the slice of the task queue the service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string) error
}

// Service is the accepting-side orchestration: it creates jobs, stores
// payloads, and starts execution. It never runs inference itself.
type Service struct {
	tracker *jobs.Tracker
	store   jobstore.Store
	queue   Enqueuer
	now     func() time.Time
}

func NewService(tracker *jobs.Tracker, queue Enqueuer) *Service {
	return &Service{
		tracker: tracker,
		store:   tracker.Store(),
		queue:   queue,
		now:     time.Now,
	}
}

// Submit validates the upload, creates the job in the pending state and
// stores the payload for the worker. The job is not enqueued here; the
// first progress subscriber triggers execution.
func (s *Service) Submit(ctx context.Context, filename string, payload []byte, language string, provider models.Provider) (*models.Job, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	jobID := uuid.New().String()
	job, err := s.tracker.Create(ctx, jobID, filename, language, provider, int64(len(payload)))
	if err != nil {
		return nil, err
	}

	if err := s.tracker.Transition(ctx, job, models.StatusUploading, 0); err != nil {
		return nil, err
	}

	meta := models.PayloadMeta{FileName: filename, Language: language, Provider: provider}
	if err := s.store.PutPayload(ctx, jobID, payload, meta); err != nil {
		return nil, fmt.Errorf("store payload for job %s: %w", jobID, err)
	}

	// An early duration estimate makes the pre-transcription ETA usable.
	job.AudioDuration = audio.EstimateDuration(filename, payload)
	if err := s.tracker.Transition(ctx, job, models.StatusUploading, 5); err != nil {
		return nil, err
	}

	slog.Info("job submitted",
		"job_id", jobID,
		"file_name", filename,
		"size_bytes", len(payload),
		"provider", provider,
	)
	return job, nil
}

// Snapshot returns the current job state, or found=false for an unknown id.
func (s *Service) Snapshot(ctx context.Context, jobID string) (*models.Job, bool, error) {
	return s.store.GetJob(ctx, jobID)
}

// StartIfPending enqueues execution for a job still waiting to run. The
// status gate makes it idempotent: a second subscriber sees the job
// already past uploading and triggers nothing. Returns the refreshed job.
func (s *Service) StartIfPending(ctx context.Context, jobID string) (*models.Job, bool, error) {
	job, found, err := s.store.GetJob(ctx, jobID)
	if err != nil || !found {
		return nil, found, err
	}

	if job.Status != models.StatusPending && job.Status != models.StatusUploading {
		return job, true, nil
	}

	if err := s.tracker.Transition(ctx, job, models.StatusProcessing, 5); err != nil {
		return nil, false, err
	}
	if err := s.queue.Enqueue(ctx, jobID); err != nil {
		return nil, false, fmt.Errorf("enqueue job %s: %w", jobID, err)
	}
	slog.Info("job queued for execution", "job_id", jobID)
	return job, true, nil
}

// Progress builds the poll-endpoint event: the same snapshot schema the
// stream sends, minus the nested result.
func (s *Service) Progress(ctx context.Context, jobID string) (models.ProgressEvent, bool, error) {
	job, found, err := s.store.GetJob(ctx, jobID)
	if err != nil || !found {
		return models.ProgressEvent{}, found, err
	}
	ev := jobs.Snapshot(job, s.now())
	ev.Result = nil
	return ev, true, nil
}
