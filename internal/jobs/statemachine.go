package jobs

import (
	"fmt"

	"github.com/ecoworks/transcribed/pkg/models"
)

// ErrInvalidTransition is wrapped by every rejected status write.
var ErrInvalidTransition = fmt.Errorf("invalid status transition")

// transitions is the closed set of legal status changes. Error is reachable
// from every non-terminal state and is handled separately in CanTransition.
// A cloud-only job goes processing -> transcribing_cloud directly; a local
// job goes through loading_model.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:           {models.StatusUploading, models.StatusProcessing},
	models.StatusUploading:         {models.StatusProcessing},
	models.StatusProcessing:        {models.StatusLoadingModel, models.StatusTranscribingCloud},
	models.StatusLoadingModel:      {models.StatusTranscribing},
	models.StatusTranscribing:      {models.StatusTranscribingCloud, models.StatusComplete},
	models.StatusTranscribingCloud: {models.StatusComplete},
	models.StatusComplete:          nil,
	models.StatusError:             nil,
}

// CanTransition reports whether from -> to is a legal status change.
// A same-status "transition" is legal for non-terminal states; it is how
// progress-only updates flow through the single write path.
func CanTransition(from, to models.Status) bool {
	if from.Terminal() {
		return false
	}
	if to == models.StatusError {
		return true
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// progressBand returns the inclusive progress range a status may carry.
func progressBand(s models.Status) (lo, hi float64, ok bool) {
	switch s {
	case models.StatusPending:
		return 0, 0, true
	case models.StatusUploading:
		return 0, 5, true
	case models.StatusProcessing:
		return 5, 10, true
	case models.StatusLoadingModel:
		return 10, 15, true
	case models.StatusTranscribing, models.StatusTranscribingCloud:
		return 15, 95, true
	case models.StatusComplete:
		return 100, 100, true
	default:
		return 0, 0, false
	}
}
