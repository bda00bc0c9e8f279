package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/ecoworks/transcribed/internal/api/middleware"
	"github.com/ecoworks/transcribed/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	UploadHandler       http.HandlerFunc
	ProgressStream      http.HandlerFunc
	ProgressPoll        http.HandlerFunc
	EngineStatusHandler http.HandlerFunc

	CreateTranscript http.HandlerFunc
	ListTranscripts  http.HandlerFunc
	GetTranscript    http.HandlerFunc
	DeleteTranscript http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Identity)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/transcribe/upload", orNotImplemented(deps.UploadHandler))
		r.Get("/api/v1/transcribe/status", orNotImplemented(deps.EngineStatusHandler))
		r.Get("/api/v1/transcribe/status/{jobID}", orNotImplemented(deps.ProgressPoll))

		r.Post("/api/v1/transcripts", orNotImplemented(deps.CreateTranscript))
		r.Get("/api/v1/transcripts", orNotImplemented(deps.ListTranscripts))
		r.Get("/api/v1/transcripts/{transcriptID}", orNotImplemented(deps.GetTranscript))
		r.Delete("/api/v1/transcripts/{transcriptID}", orNotImplemented(deps.DeleteTranscript))
	})

	// SSE stream sits outside the rate-limit group: a single long-lived
	// subscription should not consume the caller's request budget.
	r.Get("/api/v1/transcribe/progress/{jobID}", orNotImplemented(deps.ProgressStream))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
