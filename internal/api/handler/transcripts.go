package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecoworks/transcribed/internal/api/middleware"
	"github.com/ecoworks/transcribed/internal/api/response"
	"github.com/ecoworks/transcribed/internal/history"
	"github.com/ecoworks/transcribed/pkg/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type createTranscriptRequest struct {
	FileName      string              `json:"file_name"`
	FileSizeBytes int64               `json:"file_size_bytes"`
	AudioDuration float64             `json:"audio_duration_seconds"`
	Text          string              `json:"text"`
	Language      string              `json:"language"`
	Confidence    float64             `json:"confidence"`
	Provider      string              `json:"provider"`
	CostMetrics   *models.CostMetrics `json:"cost_metrics"`
}

// NewCreateTranscriptHandler returns the handler for POST /api/v1/transcripts.
func NewCreateTranscriptHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTranscriptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.FileName == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "file_name is required", nil)
			return
		}
		if req.Text == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required", nil)
			return
		}
		provider, ok := models.ParseProvider(req.Provider)
		if !ok {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"provider must be one of local, cloud, both", nil)
			return
		}

		transcript := &models.Transcript{
			ID:            uuid.New(),
			UserID:        middleware.GetUserID(r),
			FileName:      req.FileName,
			FileSizeBytes: req.FileSizeBytes,
			AudioDuration: req.AudioDuration,
			Text:          req.Text,
			Language:      req.Language,
			Confidence:    req.Confidence,
			Provider:      provider,
			CostMetrics:   req.CostMetrics,
			CreatedAt:     time.Now().UTC(),
		}
		if err := store.Create(r.Context(), transcript); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not save transcript", nil)
			return
		}
		response.Created(w, transcript)
	}
}

// NewListTranscriptsHandler returns the handler for GET /api/v1/transcripts.
func NewListTranscriptsHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		if page < 1 {
			page = 1
		}
		pageSize := queryInt(r, "page_size", defaultPageSize)
		if pageSize < 1 {
			pageSize = defaultPageSize
		}
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		transcripts, total, err := store.List(r.Context(), middleware.GetUserID(r), page, pageSize)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not list transcripts", nil)
			return
		}
		if transcripts == nil {
			transcripts = []*models.Transcript{}
		}
		response.Collection(w, transcripts, response.PaginationMeta{
			Page:    page,
			Limit:   pageSize,
			Total:   total,
			HasNext: page*pageSize < total,
		})
	}
}

// NewGetTranscriptHandler returns the handler for GET /api/v1/transcripts/{id}.
func NewGetTranscriptHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "transcriptID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid transcript id", nil)
			return
		}

		transcript, err := store.Get(r.Context(), id, middleware.GetUserID(r))
		if errors.Is(err, history.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Transcript not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not load transcript", nil)
			return
		}
		response.JSON(w, transcript)
	}
}

// NewDeleteTranscriptHandler returns the handler for DELETE /api/v1/transcripts/{id}.
func NewDeleteTranscriptHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "transcriptID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid transcript id", nil)
			return
		}

		err = store.Delete(r.Context(), id, middleware.GetUserID(r))
		if errors.Is(err, history.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Transcript not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Could not delete transcript", nil)
			return
		}
		response.JSON(w, map[string]string{"status": "deleted"})
	}
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
