// Package cost computes the cloud-vs-local cost comparison attached to
// every finished transcription.
package cost

import (
	"math"

	"github.com/ecoworks/transcribed/pkg/models"
)

// Rates holds the per-minute price constants. The cloud rate tracks the
// published API price; the local rate is a rough compute/electricity
// estimate, not a measured figure.
type Rates struct {
	CloudPerMinute float64
	LocalPerMinute float64
}

// DefaultRates matches the OpenAI transcription API pricing at the time of
// writing.
var DefaultRates = Rates{
	CloudPerMinute: 0.006,
	LocalPerMinute: 0.0005,
}

// Calculate derives the cost metrics for a finished job. Pure function of
// its inputs. Jobs executed on the cloud provider pay the cloud price and
// save nothing; everything else pays the local rate and saves the
// difference.
func Calculate(audioDuration, processingTime float64, fileSizeBytes int64, provider models.Provider, rates Rates) models.CostMetrics {
	minutes := audioDuration / 60

	cloudCost := minutes * rates.CloudPerMinute
	localCost := minutes * rates.LocalPerMinute

	var effective, savings, savingsPct float64
	if provider == models.ProviderCloud {
		effective = cloudCost
	} else {
		effective = localCost
		savings = cloudCost - localCost
		if cloudCost > 0 {
			savingsPct = savings / cloudCost * 100
		}
	}

	var speedRatio float64
	if processingTime > 0 {
		speedRatio = audioDuration / processingTime
	}

	return models.CostMetrics{
		AudioDurationSeconds:  audioDuration,
		AudioDurationMinutes:  round2(minutes),
		FileSizeBytes:         fileSizeBytes,
		FileSizeMB:            round2(float64(fileSizeBytes) / (1024 * 1024)),
		ProcessingTimeSeconds: round2(processingTime),
		ProcessingSpeedRatio:  round2(speedRatio),
		CloudAPICost:          round4(cloudCost),
		LocalComputeCost:      round4(localCost),
		EffectiveCost:         round4(effective),
		Savings:               round4(savings),
		SavingsPercentage:     round2(savingsPct),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
