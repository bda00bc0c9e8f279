package jobs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateRemaining_BeforeTranscription(t *testing.T) {
	// 60s of audio, 10s elapsed, still loading: assume 3x realtime.
	got := EstimateRemaining(10*time.Second, 12, 60)
	assert.Equal(t, 170.0, got)
}

func TestEstimateRemaining_BeforeTranscription_FlooredAtZero(t *testing.T) {
	// Elapsed already exceeds the 3x assumption.
	got := EstimateRemaining(200*time.Second, 12, 60)
	assert.Equal(t, 0.0, got)
}

func TestEstimateRemaining_ExtrapolatesFromRate(t *testing.T) {
	// 40 progress points in 80s -> 2s per point, 45 points left.
	got := EstimateRemaining(80*time.Second, 55, 60)
	assert.InDelta(t, 90.0, got, 0.001)
}

func TestEstimateRemaining_AtTranscribeStart(t *testing.T) {
	// Exactly at the band edge there is no rate yet; falls back to the
	// realtime assumption rather than dividing by zero.
	got := EstimateRemaining(30*time.Second, 15, 60)
	assert.Equal(t, 150.0, got)
}

func TestEstimateRemaining_Complete(t *testing.T) {
	assert.Equal(t, 0.0, EstimateRemaining(time.Minute, 100, 60))
}

func TestEstimateRemaining_AlwaysFinite(t *testing.T) {
	cases := []struct {
		elapsed  time.Duration
		progress float64
		duration float64
	}{
		{0, 0, 0},
		{0, 15.0000001, 0},
		{time.Hour, 15.0000001, 0.1},
		{0, 99.999, 10},
	}
	for _, tc := range cases {
		got := EstimateRemaining(tc.elapsed, tc.progress, tc.duration)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.False(t, math.IsNaN(got) || math.IsInf(got, 0), "non-finite for %+v", tc)
	}
}
