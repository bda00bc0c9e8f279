package models

import "time"

// SnapshotSchemaVersion is bumped whenever the Job wire layout changes in a
// way the worker and the API server could disagree on.
const SnapshotSchemaVersion = 1

// Status is the job lifecycle state. Transitions are enforced by
// internal/jobs; writers must not set the field directly.
type Status string

const (
	StatusPending           Status = "pending"
	StatusUploading         Status = "uploading"
	StatusProcessing        Status = "processing"
	StatusLoadingModel      Status = "loading_model"
	StatusTranscribing      Status = "transcribing"
	StatusTranscribingCloud Status = "transcribing_cloud"
	StatusComplete          Status = "complete"
	StatusError             Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Provider selects the execution strategy for a job.
type Provider string

const (
	ProviderLocal Provider = "local"
	ProviderCloud Provider = "cloud"
	ProviderBoth  Provider = "both"
)

// ParseProvider normalizes a caller-supplied provider string. "remote" is an
// accepted alias for "cloud"; the empty string defaults to local.
func ParseProvider(s string) (Provider, bool) {
	switch s {
	case "", string(ProviderLocal):
		return ProviderLocal, true
	case string(ProviderCloud), "remote":
		return ProviderCloud, true
	case string(ProviderBoth):
		return ProviderBoth, true
	}
	return "", false
}

// Job is the full snapshot of a transcription job. It is created by the API
// server on upload, mutated only by the worker that owns the execution, and
// read concurrently by progress subscribers. The whole snapshot is written on
// every update: last write wins, no merging.
type Job struct {
	SchemaVersion  int       `json:"schema_version"`
	ID             string    `json:"job_id"`
	Status         Status    `json:"status"`
	Progress       float64   `json:"progress"`
	CurrentSegment int       `json:"current_segment"`
	TotalSegments  int       `json:"total_segments"`
	StartTime      time.Time `json:"start_time"`
	AudioDuration  float64   `json:"audio_duration_seconds"`
	FileSizeBytes  int64     `json:"file_size_bytes"`
	FileName       string    `json:"file_name"`
	Language       string    `json:"language,omitempty"`
	Provider       Provider  `json:"provider"`
	CurrentText    string    `json:"current_text,omitempty"`

	// Exactly one of Result and Error is set once Status is terminal.
	Result *TranscriptionResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PayloadMeta travels alongside the raw audio bytes of a pending payload.
// The payload is stored separately from the Job so progress reads never
// carry the audio, and it is consumed exactly once by the worker.
type PayloadMeta struct {
	FileName string   `json:"file_name"`
	Language string   `json:"language,omitempty"`
	Provider Provider `json:"provider"`
}
