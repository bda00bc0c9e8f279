package models

// ProviderResult is the normalized output of one provider invocation.
// Immutable after creation.
type ProviderResult struct {
	Provider       Provider `json:"provider"`
	Text           string   `json:"text"`
	Language       string   `json:"language"`
	Duration       float64  `json:"duration_seconds"`
	Confidence     float64  `json:"confidence"`
	ProcessingTime float64  `json:"processing_time_seconds"`
	Cost           float64  `json:"cost_usd"`
}

// CostMetrics compares what the job cost against what the cloud API would
// have charged. Computed once at job completion.
type CostMetrics struct {
	AudioDurationSeconds  float64 `json:"audio_duration_seconds"`
	AudioDurationMinutes  float64 `json:"audio_duration_minutes"`
	FileSizeBytes         int64   `json:"file_size_bytes"`
	FileSizeMB            float64 `json:"file_size_mb"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	ProcessingSpeedRatio  float64 `json:"processing_speed_ratio"`
	CloudAPICost          float64 `json:"cloud_api_cost"`
	LocalComputeCost      float64 `json:"local_compute_cost"`
	EffectiveCost         float64 `json:"effective_cost"`
	Savings               float64 `json:"savings"`
	SavingsPercentage     float64 `json:"savings_percentage"`
}

// TranscriptionResult is the terminal success payload of a job. For
// provider "both" the primary text/language/confidence come from the local
// leg and both per-provider results are retained for comparison.
type TranscriptionResult struct {
	Text        string          `json:"text"`
	Language    string          `json:"language"`
	Duration    float64         `json:"duration_seconds"`
	Confidence  float64         `json:"confidence"`
	Provider    Provider        `json:"provider"`
	CostMetrics *CostMetrics    `json:"cost_metrics,omitempty"`
	LocalResult *ProviderResult `json:"local_result,omitempty"`
	CloudResult *ProviderResult `json:"cloud_result,omitempty"`
}
