package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoworks/transcribed/internal/jobs"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

func newTracker(t *testing.T) (*jobs.Tracker, jobstore.Store) {
	t.Helper()
	store := jobstore.NewMemoryStore(time.Hour)
	t.Cleanup(func() { store.Close() })
	return jobs.NewTracker(store), store
}

func TestTracker_Create(t *testing.T) {
	tracker, store := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "meeting.wav", "en", models.ProviderLocal, 1024)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, job.Status)
	assert.Equal(t, 0.0, job.Progress)

	stored, found, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "meeting.wav", stored.FileName)
}

func TestTracker_Transition_Persists(t *testing.T) {
	tracker, store := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)

	require.NoError(t, tracker.Transition(ctx, job, models.StatusUploading, 0))
	require.NoError(t, tracker.Transition(ctx, job, models.StatusProcessing, 5))

	stored, found, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusProcessing, stored.Status)
	assert.Equal(t, 5.0, stored.Progress)
}

func TestTracker_Transition_RejectsIllegalStatus(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)

	err = tracker.Transition(ctx, job, models.StatusTranscribing, 20)
	assert.ErrorIs(t, err, jobs.ErrInvalidTransition)
	// A rejected transition must not mutate the in-memory job either.
	assert.Equal(t, models.StatusPending, job.Status)
}

func TestTracker_Transition_RejectsOutOfBandProgress(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)

	err = tracker.Transition(ctx, job, models.StatusUploading, 50)
	assert.ErrorIs(t, err, jobs.ErrInvalidTransition)
}

func TestTracker_Complete_SetsResultAtomically(t *testing.T) {
	tracker, store := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)
	require.NoError(t, tracker.Transition(ctx, job, models.StatusProcessing, 5))
	require.NoError(t, tracker.Transition(ctx, job, models.StatusLoadingModel, 10))
	require.NoError(t, tracker.Transition(ctx, job, models.StatusTranscribing, 15))

	result := &models.TranscriptionResult{Text: "hello world", Provider: models.ProviderLocal}
	require.NoError(t, tracker.Complete(ctx, job, result))

	stored, found, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusComplete, stored.Status)
	assert.Equal(t, 100.0, stored.Progress)
	require.NotNil(t, stored.Result)
	assert.Equal(t, "hello world", stored.Result.Text)
}

func TestTracker_Fail_KeepsProgressDropsResult(t *testing.T) {
	tracker, store := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)
	require.NoError(t, tracker.Transition(ctx, job, models.StatusProcessing, 5))
	require.NoError(t, tracker.Transition(ctx, job, models.StatusLoadingModel, 12))

	require.NoError(t, tracker.Fail(ctx, job, "model file missing"))

	stored, _, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Equal(t, 12.0, stored.Progress)
	assert.Equal(t, "model file missing", stored.Error)
	assert.Nil(t, stored.Result)
}

func TestTracker_Fail_RefusedWhenTerminal(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)
	require.NoError(t, tracker.Fail(ctx, job, "first failure"))

	err = tracker.Fail(ctx, job, "second failure")
	assert.ErrorIs(t, err, jobs.ErrInvalidTransition)
	assert.Equal(t, "first failure", job.Error)
}

func TestTracker_Reset_ReplacesErrorState(t *testing.T) {
	tracker, store := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)
	require.NoError(t, tracker.Fail(ctx, job, "transient failure"))

	// A queue redelivery starts over from a clean processing snapshot.
	require.NoError(t, tracker.Reset(ctx, job))

	stored, _, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, stored.Status)
	assert.Equal(t, 5.0, stored.Progress)
	assert.Empty(t, stored.Error)
	assert.Zero(t, stored.CurrentSegment)
	assert.False(t, stored.StartTime.IsZero())
}

func TestTracker_Reset_RefusedWhenComplete(t *testing.T) {
	tracker, _ := newTracker(t)
	ctx := context.Background()

	job, err := tracker.Create(ctx, "job-1", "a.wav", "", models.ProviderLocal, 10)
	require.NoError(t, err)
	require.NoError(t, tracker.Transition(ctx, job, models.StatusProcessing, 5))
	require.NoError(t, tracker.Transition(ctx, job, models.StatusTranscribingCloud, 15))
	require.NoError(t, tracker.Complete(ctx, job, &models.TranscriptionResult{Text: "done"}))

	err = tracker.Reset(ctx, job)
	assert.ErrorIs(t, err, jobs.ErrInvalidTransition)
}
