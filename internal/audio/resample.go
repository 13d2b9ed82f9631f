package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts w to the target rate. A waveform already at the target
// rate is returned as-is. The result always holds
// round(len(w.Samples) * targetRate / w.SampleRate) samples.
func Resample(w Waveform, targetRate int) (Waveform, error) {
	if targetRate < 1 {
		return Waveform{}, fmt.Errorf("invalid target sample rate: %d", targetRate)
	}
	if w.SampleRate == targetRate || len(w.Samples) == 0 {
		return Waveform{Samples: w.Samples, SampleRate: targetRate}, nil
	}
	if w.SampleRate < 1 {
		return Waveform{}, fmt.Errorf("invalid source sample rate: %d", w.SampleRate)
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(w.SampleRate),
		OutputRate: float64(targetRate),
		Channels:   monoChannels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return Waveform{}, fmt.Errorf("create resampler: %w", err)
	}

	input := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		input[i] = float64(s)
	}

	output, err := r.Process(input)
	if err != nil {
		return Waveform{}, fmt.Errorf("resample %d Hz -> %d Hz: %w", w.SampleRate, targetRate, err)
	}
	tail, err := r.Flush()
	if err != nil {
		return Waveform{}, fmt.Errorf("flush resampler %d Hz -> %d Hz: %w", w.SampleRate, targetRate, err)
	}
	output = append(output, tail...)

	want := int(math.Round(float64(len(w.Samples)) * float64(targetRate) / float64(w.SampleRate)))
	out := make([]float32, want)
	for i := range min(want, len(output)) {
		out[i] = float32(output[i])
	}
	return Waveform{Samples: out, SampleRate: targetRate}, nil
}
