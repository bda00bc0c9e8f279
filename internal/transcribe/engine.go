package transcribe

import "context"

// Segment is one contiguous timestamped unit of transcribed text.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	AvgLogProb float64 `json:"avg_logprob"`
}

// AudioInfo is the per-file record the engine reports before segments
// start arriving.
type AudioInfo struct {
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

// SegmentReader yields segments one at a time in timestamp order. Next
// returns io.EOF after the last segment. Readers are forward-only and not
// safe for concurrent use.
type SegmentReader interface {
	Next() (*Segment, error)
	Close() error
}

// Engine is the local inference contract. Load is called once per process
// before the first job; it must be cheap to call again after success.
// Transcribe takes a path to the audio on local disk plus an optional
// language hint and returns the audio info together with a lazy segment
// stream.
type Engine interface {
	Load(ctx context.Context) error
	Ready() bool
	Transcribe(ctx context.Context, path, language string) (*AudioInfo, SegmentReader, error)
}
