package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecoworks/transcribed/internal/api/response"
	"github.com/ecoworks/transcribed/internal/jobs"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

// Streamer is the interface the progress endpoints depend on.
type Streamer interface {
	// StartIfPending triggers execution for a job still waiting to run and
	// returns the refreshed snapshot. Idempotent via the status gate.
	StartIfPending(ctx context.Context, jobID string) (*models.Job, bool, error)
	Snapshot(ctx context.Context, jobID string) (*models.Job, bool, error)
	Progress(ctx context.Context, jobID string) (models.ProgressEvent, bool, error)
}

// NewProgressStreamHandler returns the SSE handler for
// GET /api/v1/transcribe/progress/{jobID}. One snapshot event per cadence
// tick until the job is terminal, then a single result (or error) event,
// then the stream closes. An unknown job id produces exactly one
// not_found event and no cadence loop.
func NewProgressStreamHandler(svc Streamer, cadence time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		ctx := r.Context()

		flusher, ok := w.(http.Flusher)
		if !ok {
			response.Error(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED",
				"Response writer does not support streaming", nil)
			return
		}

		// The first subscriber to a waiting job starts execution.
		job, found, err := svc.StartIfPending(ctx, jobID)
		if err != nil {
			if errors.Is(err, jobstore.ErrUnavailable) {
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Job storage is unavailable", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		if !found {
			writeEvent(w, flusher, "not_found", map[string]string{
				"job_id": jobID,
				"error":  "Job not found",
			})
			return
		}

		ticker := time.NewTicker(cadence)
		defer ticker.Stop()

		for {
			if job.Status.Terminal() {
				ev := jobs.Snapshot(job, time.Now())
				if job.Status == models.StatusComplete {
					writeEvent(w, flusher, "complete", ev)
				} else {
					writeEvent(w, flusher, "error", ev)
				}
				return
			}

			writeEvent(w, flusher, "progress", jobs.Snapshot(job, time.Now()))

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			job, found, err = svc.Snapshot(ctx, jobID)
			if err != nil || !found {
				// The snapshot vanished mid-stream (TTL) or the store went
				// away; tell the subscriber rather than going silent.
				writeEvent(w, flusher, "not_found", map[string]string{
					"job_id": jobID,
					"error":  "Job no longer available",
				})
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

// NewProgressPollHandler returns the handler for
// GET /api/v1/transcribe/status/{jobID}: the same snapshot schema as the
// stream, minus the nested result. Unknown ids are a not-found condition,
// not an error.
func NewProgressPollHandler(svc Streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")

		ev, found, err := svc.Progress(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, jobstore.ErrUnavailable) {
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Job storage is unavailable", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if !found {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			return
		}
		response.JSON(w, ev)
	}
}
