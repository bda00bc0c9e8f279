package jobs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ecoworks/transcribed/pkg/models"
)

func TestSnapshot_TranscribingEvent(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := &models.Job{
		ID:             "job-1",
		Status:         models.StatusTranscribing,
		Progress:       41.666,
		CurrentSegment: 3,
		TotalSegments:  9,
		StartTime:      start,
		AudioDuration:  60,
		CurrentText:    "so far so good",
	}

	ev := Snapshot(job, start.Add(20*time.Second))

	assert.Equal(t, "job-1", ev.JobID)
	assert.Equal(t, models.StatusTranscribing, ev.Status)
	assert.Equal(t, 41.7, ev.Progress)
	assert.Equal(t, 20.0, ev.ElapsedSeconds)
	assert.Equal(t, "Transcribing segment 3/9...", ev.Message)
	assert.Equal(t, "so far so good", ev.CurrentText)
	assert.Nil(t, ev.Result)
	assert.Empty(t, ev.Error)
}

func TestSnapshot_NoStartTime(t *testing.T) {
	job := &models.Job{ID: "job-1", Status: models.StatusPending}
	ev := Snapshot(job, time.Now())
	assert.Equal(t, 0.0, ev.ElapsedSeconds)
	assert.Equal(t, "Waiting to start...", ev.Message)
}

func TestSnapshot_CompleteCarriesResult(t *testing.T) {
	job := &models.Job{
		ID:       "job-1",
		Status:   models.StatusComplete,
		Progress: 100,
		Result:   &models.TranscriptionResult{Text: "final text"},
	}
	ev := Snapshot(job, time.Now())
	assert.Equal(t, 100.0, ev.Progress)
	assert.Equal(t, "Transcription complete!", ev.Message)
	assert.NotNil(t, ev.Result)
	assert.Equal(t, "final text", ev.Result.Text)
}

func TestSnapshot_ErrorCarriesMessage(t *testing.T) {
	job := &models.Job{
		ID:     "job-1",
		Status: models.StatusError,
		Error:  "engine unavailable",
	}
	ev := Snapshot(job, time.Now())
	assert.Equal(t, "engine unavailable", ev.Error)
	assert.Equal(t, "Error: engine unavailable", ev.Message)
	assert.Nil(t, ev.Result)
}

func TestSnapshot_CurrentTextWindowed(t *testing.T) {
	long := strings.Repeat("a", 500) + "end"
	job := &models.Job{ID: "job-1", Status: models.StatusTranscribing, CurrentText: long}

	ev := Snapshot(job, time.Now())
	assert.Len(t, ev.CurrentText, currentTextWindow)
	assert.True(t, strings.HasSuffix(ev.CurrentText, "end"))
}

func TestTailWindow_RespectsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 100) // 2 bytes per rune
	got := tailWindow(s, 5)
	// 5 bytes would split a rune; the window shrinks to the next boundary.
	assert.Equal(t, strings.Repeat("é", 2), got)
}
