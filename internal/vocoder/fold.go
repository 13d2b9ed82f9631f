package vocoder

import "math"

// fold splits a channel-major [channels][frames] matrix into chunks of
// target+2*overlap frames that start every target+overlap frames. The tail
// is zero-padded so the last chunk is full. Each chunk is channel-major.
func fold(data []float32, channels, frames, target, overlap int) [][]float32 {
	folds := (frames - overlap) / (target + overlap)
	extended := folds*(target+overlap) + overlap
	if remaining := frames - extended; remaining != 0 {
		folds++
	}
	if folds < 1 {
		folds = 1
	}

	size := target + 2*overlap
	chunks := make([][]float32, folds)
	for i := range folds {
		start := i * (target + overlap)
		chunk := make([]float32, channels*size)
		for c := range channels {
			if start >= frames {
				break
			}
			end := min(start+size, frames)
			copy(chunk[c*size:], data[c*frames+start:c*frames+end])
		}
		chunks[i] = chunk
	}
	return chunks
}

// crossfade trims the chunks' overlapping edges with an equal-power fade,
// half of each overlap being silence, and sums them back into one signal.
// Chunk lengths are in samples: target+2*overlap each.
func crossfade(chunks [][]float32, target, overlap int) []float32 {
	silence := overlap / 2
	fade := overlap - silence

	fadeIn := make([]float32, overlap)
	fadeOut := make([]float32, overlap)
	for i := range fade {
		t := -1.0
		if fade > 1 {
			t = -1 + 2*float64(i)/float64(fade-1)
		}
		fadeIn[silence+i] = float32(math.Sqrt(0.5 * (1 + t)))
		fadeOut[i] = float32(math.Sqrt(0.5 * (1 - t)))
	}
	// fadeOut is 1..0 over fade then silent; fadeIn is silent then 0..1.

	total := len(chunks)*(target+overlap) + overlap
	out := make([]float32, total)
	size := target + 2*overlap
	for i, chunk := range chunks {
		segment := append([]float32(nil), chunk[:size]...)
		if i > 0 {
			for j := range overlap {
				segment[j] *= fadeIn[j]
			}
		}
		if i < len(chunks)-1 {
			for j := range overlap {
				segment[size-overlap+j] *= fadeOut[j]
			}
		}

		start := i * (target + overlap)
		for j, v := range segment {
			out[start+j] += v
		}
	}
	return out
}
