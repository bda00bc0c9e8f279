package transcribe

import "errors"

var (
	// ErrNoAPIKey is a configuration error: the cloud provider was requested
	// but no credential is available. Retrying cannot fix it.
	ErrNoAPIKey = errors.New("cloud transcription API key not configured")

	// ErrEngineUnavailable means the local inference engine failed to load
	// or is unreachable.
	ErrEngineUnavailable = errors.New("local inference engine unavailable")

	// ErrCloudAPI wraps transport-level failures of the cloud API.
	ErrCloudAPI = errors.New("cloud transcription API error")

	// ErrPayloadMissing means the pending payload was absent at claim time,
	// usually because its TTL elapsed before the worker picked up the job.
	ErrPayloadMissing = errors.New("pending audio payload not found")
)
