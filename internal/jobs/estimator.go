package jobs

import (
	"math"
	"time"
)

// transcribeStart is the progress value at which segment-driven progress
// begins; below it the estimator has no rate signal to extrapolate from.
const transcribeStart = 15.0

// realtimeFactor is the assumed processing-time multiple of audio duration
// used before transcription produces a measurable rate.
const realtimeFactor = 3.0

// EstimateRemaining returns the estimated seconds left for a job. Before
// transcription has started it assumes processing takes realtimeFactor
// times the audio duration; afterwards it extrapolates from the observed
// time per progress point. The result is always finite and >= 0.
func EstimateRemaining(elapsed time.Duration, progress, audioDuration float64) float64 {
	if progress >= 100 {
		return 0
	}

	if progress <= transcribeStart {
		remaining := audioDuration*realtimeFactor - elapsed.Seconds()
		if remaining < 0 {
			return 0
		}
		return remaining
	}

	denom := progress - transcribeStart
	if denom <= 0 {
		return 0
	}
	rate := elapsed.Seconds() / denom
	remaining := rate * (100 - progress)
	if remaining < 0 || math.IsNaN(remaining) || math.IsInf(remaining, 0) {
		return 0
	}
	return remaining
}
