package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/ecoworks/transcribed/pkg/models"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

type memoryPayload struct {
	audio     []byte
	meta      models.PayloadMeta
	expiresAt time.Time
}

// MemoryStore is the in-process Store used in development, when the worker
// runs inline with the API server. It has no cross-process visibility.
// Snapshots still go through the JSON codec so the two backends cannot
// drift in what survives a round trip.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	jobs     map[string]memoryEntry
	payloads map[string]memoryPayload

	// now is swappable in tests to exercise TTL expiry.
	now func() time.Time
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		jobs:     make(map[string]memoryEntry),
		payloads: make(map[string]memoryPayload),
		now:      time.Now,
	}
}

func (s *MemoryStore) PutJob(_ context.Context, id string, job *models.Job) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*models.Job, bool, error) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok || entry.expired(s.now()) {
		return nil, false, nil
	}
	job, err := decodeJob(entry.data)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) PutPayload(_ context.Context, id string, audio []byte, meta models.PayloadMeta) error {
	buf := make([]byte, len(audio))
	copy(buf, audio)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[id] = memoryPayload{audio: buf, meta: meta, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) GetPayload(_ context.Context, id string) ([]byte, models.PayloadMeta, bool, error) {
	s.mu.RLock()
	p, ok := s.payloads[id]
	s.mu.RUnlock()
	if !ok || s.now().After(p.expiresAt) {
		return nil, models.PayloadMeta{}, false, nil
	}
	return p.audio, p.meta, true, nil
}

func (s *MemoryStore) DeletePayload(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payloads, id)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
