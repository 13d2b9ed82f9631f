package audio

import (
	"fmt"
	"time"
)

// Waveform is a mono sample sequence tagged with its sampling rate.
// Samples are nominally in [-1, 1]; values outside that range are kept as-is.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// NewWaveform validates the sample rate and returns a Waveform that owns samples.
func NewWaveform(samples []float32, sampleRate int) (Waveform, error) {
	if sampleRate < 1 {
		return Waveform{}, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}, nil
}

// Silence returns n zero-valued samples at sampleRate.
func Silence(n, sampleRate int) Waveform {
	if n < 0 {
		n = 0
	}
	return Waveform{Samples: make([]float32, n), SampleRate: sampleRate}
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate < 1 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}
