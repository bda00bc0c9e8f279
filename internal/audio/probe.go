// Package audio estimates properties of uploaded audio without decoding it.
package audio

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/youpy/go-wav"
)

// bytesPerMinute approximates one minute of compressed audio (~128 kbit/s).
// Used when the container gives us no duration, e.g. before the engine has
// seen the file, or for the cloud API which never reports one.
const bytesPerMinute = 960_000

// EstimateDuration returns the audio duration in seconds. WAV headers are
// read exactly; everything else falls back to a size heuristic, so treat
// the result as an estimate, not a measurement.
func EstimateDuration(filename string, data []byte) float64 {
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		if d, ok := wavDuration(data); ok {
			return d
		}
	}
	return float64(len(data)) / bytesPerMinute * 60
}

func wavDuration(data []byte) (float64, bool) {
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil || format.ByteRate == 0 {
		return 0, false
	}
	d, err := r.Duration()
	if err != nil {
		return 0, false
	}
	return d.Seconds(), true
}
