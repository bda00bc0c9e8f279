package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecoworks/transcribed/pkg/models"
)

func TestCanTransition_HappyPathLocal(t *testing.T) {
	path := []models.Status{
		models.StatusPending,
		models.StatusUploading,
		models.StatusProcessing,
		models.StatusLoadingModel,
		models.StatusTranscribing,
		models.StatusComplete,
	}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]),
			"%s -> %s should be legal", path[i], path[i+1])
	}
}

func TestCanTransition_CloudSkipsModelLoad(t *testing.T) {
	assert.True(t, CanTransition(models.StatusProcessing, models.StatusTranscribingCloud))
	assert.True(t, CanTransition(models.StatusTranscribingCloud, models.StatusComplete))
}

func TestCanTransition_BothModeLocalThenCloud(t *testing.T) {
	assert.True(t, CanTransition(models.StatusTranscribing, models.StatusTranscribingCloud))
}

func TestCanTransition_ErrorFromAnyNonTerminal(t *testing.T) {
	for _, from := range []models.Status{
		models.StatusPending,
		models.StatusUploading,
		models.StatusProcessing,
		models.StatusLoadingModel,
		models.StatusTranscribing,
		models.StatusTranscribingCloud,
	} {
		assert.True(t, CanTransition(from, models.StatusError), "error from %s", from)
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, from := range []models.Status{models.StatusComplete, models.StatusError} {
		for _, to := range []models.Status{
			models.StatusPending,
			models.StatusProcessing,
			models.StatusTranscribing,
			models.StatusComplete,
			models.StatusError,
		} {
			assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestCanTransition_NoBackwardMoves(t *testing.T) {
	assert.False(t, CanTransition(models.StatusTranscribing, models.StatusLoadingModel))
	assert.False(t, CanTransition(models.StatusProcessing, models.StatusUploading))
	assert.False(t, CanTransition(models.StatusTranscribingCloud, models.StatusTranscribing))
}

func TestCanTransition_SameStatusForProgressUpdates(t *testing.T) {
	assert.True(t, CanTransition(models.StatusTranscribing, models.StatusTranscribing))
	assert.False(t, CanTransition(models.StatusComplete, models.StatusComplete))
}

func TestProgressBand(t *testing.T) {
	tests := []struct {
		status models.Status
		lo, hi float64
	}{
		{models.StatusPending, 0, 0},
		{models.StatusUploading, 0, 5},
		{models.StatusProcessing, 5, 10},
		{models.StatusLoadingModel, 10, 15},
		{models.StatusTranscribing, 15, 95},
		{models.StatusTranscribingCloud, 15, 95},
		{models.StatusComplete, 100, 100},
	}
	for _, tc := range tests {
		lo, hi, ok := progressBand(tc.status)
		assert.True(t, ok, "band for %s", tc.status)
		assert.Equal(t, tc.lo, lo, "lo for %s", tc.status)
		assert.Equal(t, tc.hi, hi, "hi for %s", tc.status)
	}

	_, _, ok := progressBand(models.Status("nonsense"))
	assert.False(t, ok)
}
