// Package history persists finished transcripts. The orchestration core
// only consumes this create/list/get/delete contract; everything behind it
// is replaceable.
package history

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ecoworks/transcribed/pkg/models"
)

var ErrNotFound = errors.New("transcript not found")

// Store is the transcript history interface. All access is scoped to the
// owning user.
type Store interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, t *models.Transcript) error
	List(ctx context.Context, userID string, page, pageSize int) ([]*models.Transcript, int, error)
	Get(ctx context.Context, id uuid.UUID, userID string) (*models.Transcript, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}
