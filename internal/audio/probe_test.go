package audio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
)

// buildWAV renders a silent mono PCM file of the given sample count.
func buildWAV(t *testing.T, numSamples uint32, sampleRate uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, numSamples, 1, sampleRate, 16)
	samples := make([]wav.Sample, numSamples)
	require.NoError(t, w.WriteSamples(samples))
	return buf.Bytes()
}

func TestEstimateDuration_WAVHeader(t *testing.T) {
	// 2 seconds at 8 kHz.
	data := buildWAV(t, 16000, 8000)
	got := EstimateDuration("speech.wav", data)
	assert.InDelta(t, 2.0, got, 0.01)
}

func TestEstimateDuration_WAVCaseInsensitive(t *testing.T) {
	data := buildWAV(t, 8000, 8000)
	got := EstimateDuration("SPEECH.WAV", data)
	assert.InDelta(t, 1.0, got, 0.01)
}

func TestEstimateDuration_SizeHeuristic(t *testing.T) {
	// 960_000 bytes is treated as one minute of compressed audio.
	data := make([]byte, 960_000)
	got := EstimateDuration("speech.mp3", data)
	assert.Equal(t, 60.0, got)

	got = EstimateDuration("half.ogg", data[:480_000])
	assert.Equal(t, 30.0, got)
}

func TestEstimateDuration_CorruptWAVFallsBack(t *testing.T) {
	data := []byte("definitely not a RIFF container")
	got := EstimateDuration("broken.wav", data)
	assert.InDelta(t, float64(len(data))/960_000*60, got, 0.0001)
}

func TestEstimateDuration_Empty(t *testing.T) {
	assert.Equal(t, 0.0, EstimateDuration("empty.mp3", nil))
}
