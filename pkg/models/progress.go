package models

// ProgressEvent is the self-contained message sent on every progress stream
// tick and returned by the poll endpoint. The terminal event on a completed
// job additionally carries Result; the terminal event on a failed job
// carries Error.
type ProgressEvent struct {
	JobID              string  `json:"job_id"`
	Status             Status  `json:"status"`
	Progress           float64 `json:"progress"`
	CurrentSegment     int     `json:"current_segment"`
	TotalSegments      int     `json:"total_segments"`
	ElapsedSeconds     float64 `json:"elapsed_seconds"`
	EstimatedRemaining float64 `json:"estimated_remaining"`
	CurrentText        string  `json:"current_text"`
	Message            string  `json:"message"`

	Result *TranscriptionResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}
