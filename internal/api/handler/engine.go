package handler

import (
	"net/http"

	"github.com/ecoworks/transcribed/internal/api/response"
)

// EngineProber reports whether the local transcription engine is ready.
type EngineProber interface {
	Ready() bool
}

// NewEngineStatusHandler returns the handler for GET /api/v1/transcribe/status.
// It reports readiness of the local engine so clients can decide whether the
// first local job will pay the model-load penalty.
func NewEngineStatusHandler(engine EngineProber, cloudConfigured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := engine != nil && engine.Ready()
		response.JSON(w, map[string]any{
			"local_engine_ready": ready,
			"cloud_configured":   cloudConfigured,
		})
	}
}
