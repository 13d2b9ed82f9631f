package audio

import (
	"math"
)

// PadTail returns a copy of samples with n zero samples appended.
func PadTail(samples []float32, n int) []float32 {
	if n < 0 {
		n = 0
	}
	out := make([]float32, len(samples)+n)
	copy(out, samples)
	return out
}

// FadeOut applies a linear ramp from 1 to 0 over the last n samples, in place.
// When n exceeds the sample count the whole slice is faded.
func FadeOut(samples []float32, n int) []float32 {
	if n <= 0 || len(samples) == 0 {
		return samples
	}
	if n > len(samples) {
		n = len(samples)
	}
	start := len(samples) - n
	if n == 1 {
		samples[start] = 0
		return samples
	}
	for i := range n {
		gain := 1 - float32(i)/float32(n-1)
		samples[start+i] *= gain
	}
	return samples
}

// MeanSquare returns the mean of the squared samples.
func MeanSquare(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return sum / float64(len(samples))
}

// NormalizeVolume scales samples towards targetDBFS. With increaseOnly set,
// audio that is already louder than the target is returned unchanged. Silent
// input is returned unchanged.
func NormalizeVolume(samples []float32, targetDBFS float64, increaseOnly bool) []float32 {
	ms := MeanSquare(samples)
	if ms == 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return samples
	}

	change := targetDBFS - 10*math.Log10(ms)
	if change < 0 && increaseOnly {
		return samples
	}

	gain := float32(math.Pow(10, change/20))
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// VADOptions parameterizes TrimLongSilences.
type VADOptions struct {
	WindowMS      int     // analysis window length
	AverageWidth  int     // moving-average width, in windows
	MaxSilence    int     // longest tolerated silence, in windows
	ThresholdDBFS float64 // windows louder than this count as voiced
}

// DefaultVADOptions mirrors the speaker encoder's reference preprocessing.
func DefaultVADOptions() VADOptions {
	return VADOptions{
		WindowMS:      30,
		AverageWidth:  8,
		MaxSilence:    6,
		ThresholdDBFS: -45,
	}
}

// TrimLongSilences removes stretches of silence longer than opts.MaxSilence
// windows. The tail that does not fill a whole window is dropped. If no window
// is voiced the input is returned unchanged.
func TrimLongSilences(samples []float32, sampleRate int, opts VADOptions) []float32 {
	perWindow := opts.WindowMS * sampleRate / 1000
	if perWindow < 1 || len(samples) < perWindow {
		return samples
	}

	windows := len(samples) / perWindow
	flags := make([]bool, windows)
	anyVoiced := false
	for w := range windows {
		ms := MeanSquare(samples[w*perWindow : (w+1)*perWindow])
		if ms > 0 && 10*math.Log10(ms) > opts.ThresholdDBFS {
			flags[w] = true
			anyVoiced = true
		}
	}
	if !anyVoiced {
		return samples
	}

	mask := dilate(smoothFlags(flags, opts.AverageWidth), opts.MaxSilence+1)

	out := make([]float32, 0, len(samples))
	for w, keep := range mask {
		if keep {
			out = append(out, samples[w*perWindow:(w+1)*perWindow]...)
		}
	}
	if len(out) == 0 {
		return samples
	}
	return out
}

// smoothFlags is a centred moving average over width windows, rounded half to even.
func smoothFlags(flags []bool, width int) []bool {
	if width <= 1 {
		return append([]bool(nil), flags...)
	}
	before := (width - 1) / 2
	out := make([]bool, len(flags))
	for i := range flags {
		count := 0
		for j := i - before; j < i-before+width; j++ {
			if j >= 0 && j < len(flags) && flags[j] {
				count++
			}
		}
		out[i] = count*2 > width
	}
	return out
}

// dilate sets every element within a centred structure of the given size of a
// true element to true.
func dilate(mask []bool, size int) []bool {
	if size <= 1 {
		return append([]bool(nil), mask...)
	}
	left := size / 2
	right := size - 1 - left
	out := make([]bool, len(mask))
	for i, v := range mask {
		if !v {
			continue
		}
		for j := max(0, i-right); j <= min(len(mask)-1, i+left); j++ {
			out[j] = true
		}
	}
	return out
}
