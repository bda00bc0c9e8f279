package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/ecoworks/transcribed/internal/api/response"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/internal/transcribe"
	"github.com/ecoworks/transcribed/pkg/models"
)

// maxUploadBytes bounds how much audio a single request may carry.
const maxUploadBytes = 100 << 20

// Submitter is the interface the upload handler depends on.
type Submitter interface {
	Submit(ctx context.Context, filename string, payload []byte, language string, provider models.Provider) (*models.Job, error)
}

type uploadResponse struct {
	JobID    string          `json:"job_id"`
	Status   models.Status   `json:"status"`
	Provider models.Provider `json:"provider"`
}

// NewUploadHandler returns the handler for POST /api/v1/transcribe/upload.
// Invalid input is rejected before a job id is allocated.
func NewUploadHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"A multipart 'file' field is required", nil)
			return
		}
		defer file.Close()

		provider, ok := models.ParseProvider(r.FormValue("provider"))
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"provider must be one of local, cloud, both", nil)
			return
		}

		payload, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Could not read uploaded file", nil)
			return
		}

		job, err := svc.Submit(r.Context(), header.Filename, payload, r.FormValue("language"), provider)
		if err != nil {
			switch {
			case errors.Is(err, transcribe.ErrEmptyPayload):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"Uploaded audio file is empty", nil)
			case errors.Is(err, jobstore.ErrUnavailable):
				response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE",
					"Job storage is unavailable", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, uploadResponse{
			JobID:    job.ID,
			Status:   job.Status,
			Provider: job.Provider,
		})
	}
}
