package models

import (
	"time"

	"github.com/google/uuid"
)

// Transcript is a finished transcription persisted to history storage.
type Transcript struct {
	ID            uuid.UUID    `db:"id"                     json:"id"`
	UserID        string       `db:"user_id"                json:"user_id"`
	FileName      string       `db:"file_name"              json:"file_name"`
	FileSizeBytes int64        `db:"file_size_bytes"        json:"file_size_bytes"`
	AudioDuration float64      `db:"audio_duration_seconds" json:"audio_duration_seconds"`
	Text          string       `db:"text"                   json:"text"`
	Language      string       `db:"language"               json:"language,omitempty"`
	Confidence    float64      `db:"confidence"             json:"confidence"`
	Provider      Provider     `db:"provider"               json:"provider"`
	CostMetrics   *CostMetrics `db:"cost_metrics"           json:"cost_metrics,omitempty"`
	CreatedAt     time.Time    `db:"created_at"             json:"created_at"`
}
