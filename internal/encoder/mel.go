package encoder

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MelFrontend computes power mel spectrograms with centred, reflect-padded
// frames and a periodic Hann window.
type MelFrontend struct {
	nFFT    int
	hop     int
	window  []float64
	filters [][]float64 // [channel][bin]
	fft     *fourier.FFT
}

// NewMelFrontend builds a frontend for sampleRate with the given window and
// step in milliseconds and channels Slaney-normalised mel filters.
func NewMelFrontend(sampleRate, windowMS, stepMS, channels int) *MelFrontend {
	nFFT := sampleRate * windowMS / 1000
	hop := sampleRate * stepMS / 1000

	return &MelFrontend{
		nFFT:    nFFT,
		hop:     hop,
		window:  hannWindow(nFFT),
		filters: melFilterBank(sampleRate, nFFT, channels),
		fft:     fourier.NewFFT(nFFT),
	}
}

// Hop returns the frame step in samples.
func (m *MelFrontend) Hop() int { return m.hop }

// FrameCount returns the number of frames Compute yields for n samples.
func (m *MelFrontend) FrameCount(n int) int { return 1 + n/m.hop }

// Compute returns frame-major mel power values: out[f*channels+c].
func (m *MelFrontend) Compute(samples []float32) []float32 {
	pad := m.nFFT / 2
	frames := m.FrameCount(len(samples))
	channels := len(m.filters)
	bins := m.nFFT/2 + 1

	seq := make([]float64, m.nFFT)
	coeffs := make([]complex128, bins)
	power := make([]float64, bins)
	out := make([]float32, frames*channels)

	for f := range frames {
		start := f*m.hop - pad
		for i := range seq {
			seq[i] = float64(reflectAt(samples, start+i)) * m.window[i]
		}

		coeffs = m.fft.Coefficients(coeffs, seq)
		for k, c := range coeffs {
			re, im := real(c), imag(c)
			power[k] = re*re + im*im
		}

		for c, filter := range m.filters {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * power[k]
				}
			}
			out[f*channels+c] = float32(sum)
		}
	}
	return out
}

// reflectAt indexes x as if it were reflect-padded without repeating the edge
// samples, extending the reflection as far as needed.
func reflectAt(x []float32, i int) float32 {
	n := len(x)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return x[0]
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return x[i]
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMin     = melLogMinHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

func hzToMel(hz float64) float64 {
	if hz < melLogMinHz {
		return hz / melLinearStep
	}
	return melLogMin + math.Log(hz/melLogMinHz)/melLogStep
}

func melToHz(mel float64) float64 {
	if mel < melLogMin {
		return mel * melLinearStep
	}
	return melLogMinHz * math.Exp(melLogStep*(mel-melLogMin))
}

// melFilterBank returns channels triangular filters over nFFT/2+1 bins from
// 0 Hz to Nyquist, each scaled to unit area (Slaney normalisation).
func melFilterBank(sampleRate, nFFT, channels int) [][]float64 {
	bins := nFFT/2 + 1
	nyquist := float64(sampleRate) / 2

	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * nyquist / float64(bins-1)
	}

	maxMel := hzToMel(nyquist)
	melHz := make([]float64, channels+2)
	for i := range melHz {
		melHz[i] = melToHz(maxMel * float64(i) / float64(channels+1))
	}

	filters := make([][]float64, channels)
	for c := range filters {
		lo, mid, hi := melHz[c], melHz[c+1], melHz[c+2]
		norm := 2 / (hi - lo)
		row := make([]float64, bins)
		for k, f := range fftFreqs {
			lower := (f - lo) / (mid - lo)
			upper := (hi - f) / (hi - mid)
			if w := math.Min(lower, upper); w > 0 {
				row[k] = w * norm
			}
		}
		filters[c] = row
	}
	return filters
}
