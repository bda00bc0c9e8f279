package jobstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

// setupRedis spins up a Redis container and returns a connected RedisStore.
func setupRedis(t *testing.T, ttl time.Duration) *jobstore.RedisStore {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := jobstore.NewRedisStore("redis://"+host+":"+port.Port(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestRedisStore_Ping(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t, time.Hour)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestRedisStore_JobRoundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t, time.Hour)
	ctx := context.Background()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := &models.Job{
		ID:             "job-1",
		Status:         models.StatusTranscribing,
		Progress:       41.7,
		CurrentSegment: 3,
		TotalSegments:  9,
		StartTime:      start,
		AudioDuration:  60,
		FileSizeBytes:  960_000,
		FileName:       "call.wav",
		Language:       "en",
		Provider:       models.ProviderBoth,
		CurrentText:    "so far",
		CreatedAt:      start,
		UpdatedAt:      start,
	}
	require.NoError(t, store.PutJob(ctx, "job-1", job))

	got, found, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, job.Status, got.Status)
	assert.Equal(t, job.Progress, got.Progress)
	assert.Equal(t, job.CurrentSegment, got.CurrentSegment)
	assert.Equal(t, job.Provider, got.Provider)
	assert.True(t, job.StartTime.Equal(got.StartTime))
}

func TestRedisStore_GetJob_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t, time.Hour)

	got, found, err := store.GetJob(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t, time.Second)
	ctx := context.Background()

	require.NoError(t, store.PutJob(ctx, "job-1", &models.Job{ID: "job-1"}))

	_, found, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(1500 * time.Millisecond)

	_, found, err = store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_PayloadRoundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t, time.Hour)
	ctx := context.Background()

	audio := []byte("not really audio but close enough")
	meta := models.PayloadMeta{FileName: "a.wav", Language: "de", Provider: models.ProviderCloud}
	require.NoError(t, store.PutPayload(ctx, "job-1", audio, meta))

	got, gotMeta, found, err := store.GetPayload(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, audio, got)
	assert.Equal(t, meta, gotMeta)

	require.NoError(t, store.DeletePayload(ctx, "job-1"))

	_, _, found, err = store.GetPayload(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_IncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := setupRedis(t, time.Hour)
	ctx := context.Background()

	n, err := store.IncrWithExpiry(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.IncrWithExpiry(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRedisStore_Unavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store, err := jobstore.NewRedisStore("redis://localhost:1", time.Hour)
	require.NoError(t, err)
	defer store.Close()

	_, _, err = store.GetJob(context.Background(), "job-1")
	assert.ErrorIs(t, err, jobstore.ErrUnavailable)
}
