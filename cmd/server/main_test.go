package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoworks/transcribed/internal/history"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/pkg/models"
)

// ─── mock history store ──────────────────────────────────────────────────────

type testHistory struct {
	pingErr error
}

func (s *testHistory) Ping(_ context.Context) error                            { return s.pingErr }
func (s *testHistory) Create(_ context.Context, _ *models.Transcript) error    { return nil }
func (s *testHistory) List(_ context.Context, _ string, _, _ int) ([]*models.Transcript, int, error) {
	return nil, 0, nil
}
func (s *testHistory) Get(_ context.Context, _ uuid.UUID, _ string) (*models.Transcript, error) {
	return nil, history.ErrNotFound
}
func (s *testHistory) Delete(_ context.Context, _ uuid.UUID, _ string) error {
	return history.ErrNotFound
}

var _ history.Store = (*testHistory)(nil)

// ─── mock job store ──────────────────────────────────────────────────────────

type testJobStore struct {
	pingErr error
}

func (s *testJobStore) PutJob(_ context.Context, _ string, _ *models.Job) error { return nil }
func (s *testJobStore) GetJob(_ context.Context, _ string) (*models.Job, bool, error) {
	return nil, false, nil
}
func (s *testJobStore) DeleteJob(_ context.Context, _ string) error { return nil }
func (s *testJobStore) PutPayload(_ context.Context, _ string, _ []byte, _ models.PayloadMeta) error {
	return nil
}
func (s *testJobStore) GetPayload(_ context.Context, _ string) ([]byte, models.PayloadMeta, bool, error) {
	return nil, models.PayloadMeta{}, false, nil
}
func (s *testJobStore) DeletePayload(_ context.Context, _ string) error { return nil }
func (s *testJobStore) Ping(_ context.Context) error                    { return s.pingErr }
func (s *testJobStore) Close() error                                    { return nil }

var _ jobstore.Store = (*testJobStore)(nil)

// ─── health handler ──────────────────────────────────────────────────────────

func TestHealthHandler_AllHealthy(t *testing.T) {
	h := healthHandler(&testHistory{}, &testJobStore{})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["job_store"])
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	h := healthHandler(&testHistory{pingErr: errors.New("connection refused")}, &testJobStore{})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "DEGRADED")
	assert.Contains(t, rec.Body.String(), `"database":"degraded"`)
}

func TestHealthHandler_JobStoreDown(t *testing.T) {
	h := healthHandler(&testHistory{}, &testJobStore{pingErr: errors.New("redis down")})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"job_store":"degraded"`)
}
