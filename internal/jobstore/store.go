package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ecoworks/transcribed/pkg/models"
)

// ErrUnavailable wraps backend failures so callers can distinguish "the
// store is down" from "the key is absent". Storage unavailability is
// surfaced loudly, never swallowed.
var ErrUnavailable = errors.New("job store unavailable")

// Store is keyed, TTL-bound storage for job snapshots and pending audio
// payloads. It is the only state shared between the API server and the
// worker, so both implementations must round-trip every snapshot field
// exactly. Last write wins; callers mutate via read-modify-write of the
// whole snapshot. Implementations must be safe for concurrent use.
type Store interface {
	PutJob(ctx context.Context, id string, job *models.Job) error
	// GetJob returns (nil, false, nil) when the key is absent or expired.
	GetJob(ctx context.Context, id string) (*models.Job, bool, error)
	DeleteJob(ctx context.Context, id string) error

	PutPayload(ctx context.Context, id string, audio []byte, meta models.PayloadMeta) error
	GetPayload(ctx context.Context, id string) ([]byte, models.PayloadMeta, bool, error)
	DeletePayload(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}

// encodeJob serializes a snapshot, stamping the schema version so the
// server and worker processes can detect drift instead of silently
// misreading each other's writes.
func encodeJob(job *models.Job) ([]byte, error) {
	j := *job
	j.SchemaVersion = models.SnapshotSchemaVersion
	data, err := json.Marshal(&j)
	if err != nil {
		return nil, fmt.Errorf("encode job snapshot: %w", err)
	}
	return data, nil
}

func decodeJob(data []byte) (*models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job snapshot: %w", err)
	}
	if job.SchemaVersion != models.SnapshotSchemaVersion {
		return nil, fmt.Errorf("job snapshot schema version %d, want %d",
			job.SchemaVersion, models.SnapshotSchemaVersion)
	}
	return &job, nil
}
