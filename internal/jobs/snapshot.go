package jobs

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/ecoworks/transcribed/pkg/models"
)

// currentTextWindow bounds the trailing transcript slice carried in every
// progress event so ticks stay small on long recordings.
const currentTextWindow = 200

// Snapshot builds the wire-level progress event for a job as of now.
// The terminal event for a completed job carries the full result; the
// terminal event for a failed job carries the error message.
func Snapshot(job *models.Job, now time.Time) models.ProgressEvent {
	var elapsed float64
	if !job.StartTime.IsZero() {
		elapsed = now.Sub(job.StartTime).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
	}

	ev := models.ProgressEvent{
		JobID:              job.ID,
		Status:             job.Status,
		Progress:           math.Round(job.Progress*10) / 10,
		CurrentSegment:     job.CurrentSegment,
		TotalSegments:      job.TotalSegments,
		ElapsedSeconds:     elapsed,
		EstimatedRemaining: EstimateRemaining(time.Duration(elapsed*float64(time.Second)), job.Progress, job.AudioDuration),
		CurrentText:        tailWindow(job.CurrentText, currentTextWindow),
		Message:            statusMessage(job),
	}

	switch job.Status {
	case models.StatusComplete:
		ev.Result = job.Result
	case models.StatusError:
		ev.Error = job.Error
	}
	return ev
}

func statusMessage(job *models.Job) string {
	switch job.Status {
	case models.StatusPending:
		return "Waiting to start..."
	case models.StatusUploading:
		return "Receiving audio file..."
	case models.StatusProcessing:
		return "Preparing audio for transcription..."
	case models.StatusLoadingModel:
		return "Loading Whisper model..."
	case models.StatusTranscribing:
		if job.TotalSegments > 0 {
			return fmt.Sprintf("Transcribing segment %d/%d...", job.CurrentSegment, job.TotalSegments)
		}
		return "Transcribing audio..."
	case models.StatusTranscribingCloud:
		return "Transcribing via cloud API..."
	case models.StatusComplete:
		return "Transcription complete!"
	case models.StatusError:
		return fmt.Sprintf("Error: %s", job.Error)
	}
	return string(job.Status)
}

// tailWindow returns the trailing maxBytes of s without splitting a UTF-8
// rune at the cut.
func tailWindow(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	start := len(s) - maxBytes
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
