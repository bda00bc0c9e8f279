package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ecoworks/transcribed/internal/audio"
	"github.com/ecoworks/transcribed/internal/cost"
	"github.com/ecoworks/transcribed/internal/jobs"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

// expectedSegmentSeconds is the rough segment length used to estimate the
// total segment count before the stream is exhausted.
const expectedSegmentSeconds = 7.0

// cloudNominalConfidence stands in for a confidence score the cloud API
// does not report.
const cloudNominalConfidence = 0.95

// segmentYield is how long the segment loop pauses after persisting each
// snapshot so concurrent progress readers observe intermediate state.
const segmentYield = 10 * time.Millisecond

// Executor runs one transcription job end to end: claims the pending
// payload, drives the provider legs, and writes every observable state
// change through the job tracker. It holds no per-job state and is safe to
// reuse across jobs.
type Executor struct {
	tracker *jobs.Tracker
	store   jobstore.Store
	engine  Engine
	cloud   CloudTranscriber
	rates   cost.Rates
	yield   time.Duration
	now     func() time.Time
}

func NewExecutor(tracker *jobs.Tracker, engine Engine, cloud CloudTranscriber, rates cost.Rates) *Executor {
	return &Executor{
		tracker: tracker,
		store:   tracker.Store(),
		engine:  engine,
		cloud:   cloud,
		rates:   rates,
		yield:   segmentYield,
		now:     time.Now,
	}
}

// Run executes the job with the given id. A returned error means the
// attempt failed and the task queue may redeliver; the job snapshot has
// already been moved to the error state with a human-readable message. A
// redelivered job is re-executed from scratch: Run fully replaces whatever
// snapshot the previous attempt left.
func (e *Executor) Run(ctx context.Context, jobID string) error {
	job, found, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if !found {
		return fmt.Errorf("job %s not found in store", jobID)
	}
	if job.Status == models.StatusComplete {
		slog.Info("job already complete, skipping", "job_id", jobID)
		return nil
	}

	payload, meta, found, err := e.store.GetPayload(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load payload for job %s: %w", jobID, err)
	}
	// The payload is consumed exactly once, success or failure.
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := e.store.DeletePayload(cleanupCtx, jobID); err != nil {
			slog.Error("payload cleanup failed", "job_id", jobID, "error", err)
		}
	}()
	if !found {
		e.fail(ctx, job, ErrPayloadMissing.Error())
		return fmt.Errorf("job %s: %w", jobID, ErrPayloadMissing)
	}

	if err := e.tracker.Reset(ctx, job); err != nil {
		return fmt.Errorf("reset job %s: %w", jobID, err)
	}

	if job.AudioDuration == 0 {
		job.AudioDuration = audio.EstimateDuration(meta.FileName, payload)
	}

	result, runErr := e.execute(ctx, job, payload, meta)
	if runErr != nil {
		e.fail(ctx, job, runErr.Error())
		return fmt.Errorf("job %s: %w", jobID, runErr)
	}

	if err := e.tracker.Complete(ctx, job, result); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	slog.Info("transcription complete",
		"job_id", jobID,
		"provider", job.Provider,
		"duration_seconds", result.Duration,
		"confidence", result.Confidence,
	)
	return nil
}

// fail records the terminal error without clobbering a cancellation: the
// write uses a context detached from the (possibly expired) job context.
func (e *Executor) fail(ctx context.Context, job *models.Job, msg string) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.tracker.Fail(failCtx, job, msg); err != nil {
		slog.Error("failed to record job error", "job_id", job.ID, "error", err)
	}
}

func (e *Executor) execute(ctx context.Context, job *models.Job, payload []byte, meta models.PayloadMeta) (*models.TranscriptionResult, error) {
	switch job.Provider {
	case models.ProviderLocal:
		local, err := e.runLocal(ctx, job, payload, meta, 15, 95)
		if err != nil {
			return nil, err
		}
		return e.assemble(job, local, nil), nil

	case models.ProviderCloud:
		cloud, err := e.runCloud(ctx, job, payload, meta, 15, 95)
		if err != nil {
			return nil, err
		}
		return e.assemble(job, nil, cloud), nil

	case models.ProviderBoth:
		local, err := e.runLocal(ctx, job, payload, meta, 15, 50)
		if err != nil {
			return nil, err
		}
		cloud, err := e.runCloud(ctx, job, payload, meta, 50, 95)
		if err != nil {
			return nil, err
		}
		return e.assemble(job, local, cloud), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", job.Provider)
	}
}

// runLocal drives the engine's segment stream, mapping segment end
// timestamps onto the [lo, hi] progress band and persisting the snapshot
// after every segment.
func (e *Executor) runLocal(ctx context.Context, job *models.Job, payload []byte, meta models.PayloadMeta, lo, hi float64) (*models.ProviderResult, error) {
	started := e.now()

	if err := e.tracker.Transition(ctx, job, models.StatusLoadingModel, 10); err != nil {
		return nil, err
	}
	if err := e.engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}

	path, err := writeTempAudio(payload, meta.FileName)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	if err := e.tracker.Transition(ctx, job, models.StatusTranscribing, lo); err != nil {
		return nil, err
	}

	info, segments, err := e.engine.Transcribe(ctx, path, meta.Language)
	if err != nil {
		return nil, fmt.Errorf("transcribing: %w", err)
	}
	defer segments.Close()

	if info.Duration > 0 {
		job.AudioDuration = info.Duration
	}
	job.TotalSegments = max(1, int(info.Duration/expectedSegmentSeconds))
	job.CurrentSegment = 0
	job.CurrentText = ""

	var (
		text         string
		logProbTotal float64
		count        int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("transcription aborted: %w", err)
		}
		seg, err := segments.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading segment: %w", err)
		}

		count++
		job.CurrentSegment = count
		if count > job.TotalSegments {
			remaining := info.Duration - seg.End
			job.TotalSegments = count + max(1, int(remaining/expectedSegmentSeconds))
		}
		if text != "" {
			text += " "
		}
		text += strings.TrimSpace(seg.Text)
		job.CurrentText = text
		logProbTotal += seg.AvgLogProb

		if info.Duration > 0 {
			p := lo + (seg.End/info.Duration)*(hi-lo)
			job.Progress = math.Min(hi, math.Max(job.Progress, p))
		}

		if err := e.tracker.Update(ctx, job); err != nil {
			return nil, err
		}
		// Yield so progress readers see this snapshot before the next
		// segment lands.
		time.Sleep(e.yield)
	}
	job.TotalSegments = count

	confidence := 0.0
	if count > 0 {
		confidence = math.Min(1, math.Max(0, 1+logProbTotal/float64(count)))
	}

	processing := e.now().Sub(started).Seconds()
	language := info.Language
	if language == "" {
		language = meta.Language
	}
	return &models.ProviderResult{
		Provider:       models.ProviderLocal,
		Text:           text,
		Language:       language,
		Duration:       info.Duration,
		Confidence:     math.Round(confidence*1000) / 1000,
		ProcessingTime: processing,
		Cost:           info.Duration / 60 * e.rates.LocalPerMinute,
	}, nil
}

// runCloud performs the single round trip to the remote API. The remote
// endpoint reports no audio length, so the duration is estimated from the
// payload size.
func (e *Executor) runCloud(ctx context.Context, job *models.Job, payload []byte, meta models.PayloadMeta, lo, hi float64) (*models.ProviderResult, error) {
	started := e.now()

	if err := e.tracker.Transition(ctx, job, models.StatusTranscribingCloud, lo); err != nil {
		return nil, err
	}

	res, err := e.cloud.Transcribe(ctx, payload, meta.FileName, meta.Language)
	if err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			return nil, err
		}
		return nil, fmt.Errorf("cloud transcription: %w", err)
	}

	job.Progress = hi
	job.CurrentText = res.Text
	if err := e.tracker.Update(ctx, job); err != nil {
		return nil, err
	}

	estimated := audio.EstimateDuration(meta.FileName, payload)
	return &models.ProviderResult{
		Provider:       models.ProviderCloud,
		Text:           res.Text,
		Language:       res.Language,
		Duration:       estimated,
		Confidence:     cloudNominalConfidence,
		ProcessingTime: e.now().Sub(started).Seconds(),
		Cost:           estimated / 60 * e.rates.CloudPerMinute,
	}, nil
}

// assemble builds the terminal payload. For "both" the local leg is
// primary: its text, language, confidence and (measured) duration win, and
// both per-provider results are retained for comparison.
func (e *Executor) assemble(job *models.Job, local, cloud *models.ProviderResult) *models.TranscriptionResult {
	primary := local
	if primary == nil {
		primary = cloud
	}

	duration := primary.Duration
	if local != nil && local.Duration > 0 {
		duration = local.Duration
	}

	processing := 0.0
	if local != nil {
		processing += local.ProcessingTime
	}
	if cloud != nil {
		processing += cloud.ProcessingTime
	}

	metrics := cost.Calculate(duration, processing, job.FileSizeBytes, job.Provider, e.rates)

	result := &models.TranscriptionResult{
		Text:        primary.Text,
		Language:    primary.Language,
		Duration:    duration,
		Confidence:  primary.Confidence,
		Provider:    job.Provider,
		CostMetrics: &metrics,
	}
	if job.Provider == models.ProviderBoth {
		result.LocalResult = local
		result.CloudResult = cloud
	}
	return result
}

// writeTempAudio materializes the payload on disk for the engine, keeping
// the original extension so format detection still works.
func writeTempAudio(payload []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}
	f, err := os.CreateTemp("", "transcribed-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp audio file: %w", err)
	}
	return f.Name(), nil
}
