package encoder

import "math"

const (
	// partialOverlap is the fraction of frames consecutive partials share.
	partialOverlap = 0.5
	// minPadCoverage is the share of a trailing partial that must be real audio.
	minPadCoverage = 0.75
)

// Slice is a half-open range of mel frames [Start, End).
type Slice struct {
	Start, End int
}

// PartialSlices splits an utterance of n samples into mel frame ranges of
// partialFrames frames each, overlapping by half. samplesPerFrame converts
// frames to samples. The last slice is dropped when less than 75% of it is
// covered by audio and it is not the only one.
func PartialSlices(n, samplesPerFrame, partialFrames int) []Slice {
	frames := int(math.Ceil(float64(n+1) / float64(samplesPerFrame)))
	step := max(int(math.Round(float64(partialFrames)*(1-partialOverlap))), 1)

	steps := max(1, frames-partialFrames+step+1)
	var slices []Slice
	for i := 0; i < steps; i += step {
		slices = append(slices, Slice{Start: i, End: i + partialFrames})
	}

	last := slices[len(slices)-1]
	start, end := last.Start*samplesPerFrame, last.End*samplesPerFrame
	coverage := float64(n-start) / float64(end-start)
	if coverage < minPadCoverage && len(slices) > 1 {
		slices = slices[:len(slices)-1]
	}
	return slices
}
