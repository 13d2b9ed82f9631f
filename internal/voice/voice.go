// Package voice holds the values passed between the cloning stages: speaker
// embeddings, mel spectrograms and generation requests.
package voice

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when a value's dimensions do not fit its use.
var ErrShapeMismatch = errors.New("shape mismatch")

// SpeakerEmbedding is a fixed-length vector characterising a speaker. Vectors
// produced by the encoder are unit length; zero vectors are accepted as input.
type SpeakerEmbedding []float32

// NewSpeakerEmbedding copies values after checking the length and finiteness.
// It never renormalises.
func NewSpeakerEmbedding(values []float32, dim int) (SpeakerEmbedding, error) {
	if dim < 1 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	if len(values) != dim {
		return nil, fmt.Errorf("%w: embedding has %d values, want %d", ErrShapeMismatch, len(values), dim)
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("embedding value %d is not finite", i)
		}
	}
	return append(SpeakerEmbedding(nil), values...), nil
}

// ZeroEmbedding returns an all-zero embedding of length dim.
func ZeroEmbedding(dim int) SpeakerEmbedding {
	return make(SpeakerEmbedding, max(dim, 0))
}

// Dim returns the embedding length.
func (e SpeakerEmbedding) Dim() int { return len(e) }

// Norm returns the Euclidean norm.
func (e SpeakerEmbedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// IsUnit reports whether the norm is within tol of 1.
func (e SpeakerEmbedding) IsUnit(tol float64) bool {
	return math.Abs(e.Norm()-1) <= tol
}

// MelSpectrogram is a channel-major matrix: Data[c*Frames+f] is channel c at frame f.
type MelSpectrogram struct {
	Channels int
	Frames   int
	Data     []float32
}

// NewMelSpectrogram validates the dimensions against the data length.
func NewMelSpectrogram(channels, frames int, data []float32) (MelSpectrogram, error) {
	if channels < 1 || frames < 1 {
		return MelSpectrogram{}, fmt.Errorf("%w: spectrogram dimensions %dx%d must be positive", ErrShapeMismatch, channels, frames)
	}
	if len(data) != channels*frames {
		return MelSpectrogram{}, fmt.Errorf("%w: spectrogram %dx%d needs %d values, got %d", ErrShapeMismatch, channels, frames, channels*frames, len(data))
	}
	return MelSpectrogram{Channels: channels, Frames: frames, Data: data}, nil
}

// At returns the value of channel c at frame f.
func (m MelSpectrogram) At(c, f int) float32 {
	return m.Data[c*m.Frames+f]
}

// Row returns channel c across all frames. The slice aliases m.Data.
func (m MelSpectrogram) Row(c int) []float32 {
	return m.Data[c*m.Frames : (c+1)*m.Frames]
}

// TrimFrames returns the first n frames of m.
func (m MelSpectrogram) TrimFrames(n int) MelSpectrogram {
	if n >= m.Frames {
		return m
	}
	n = max(n, 0)
	out := make([]float32, m.Channels*n)
	for c := range m.Channels {
		copy(out[c*n:(c+1)*n], m.Row(c)[:n])
	}
	return MelSpectrogram{Channels: m.Channels, Frames: n, Data: out}
}

// ConcatMels joins spectrograms along the frame axis.
func ConcatMels(mels ...MelSpectrogram) (MelSpectrogram, error) {
	if len(mels) == 0 {
		return MelSpectrogram{}, fmt.Errorf("%w: no spectrograms to concatenate", ErrShapeMismatch)
	}

	channels := mels[0].Channels
	total := 0
	for i, m := range mels {
		if m.Channels != channels {
			return MelSpectrogram{}, fmt.Errorf("%w: spectrogram %d has %d channels, want %d", ErrShapeMismatch, i, m.Channels, channels)
		}
		total += m.Frames
	}

	out := make([]float32, channels*total)
	for c := range channels {
		offset := c * total
		for _, m := range mels {
			offset += copy(out[offset:], m.Row(c))
		}
	}
	return NewMelSpectrogram(channels, total, out)
}

// GenerationRequest pairs each utterance with the embedding to speak it in.
type GenerationRequest struct {
	Texts      []string
	Embeddings []SpeakerEmbedding
}

// NewGenerationRequest rejects empty or unequal-length inputs.
func NewGenerationRequest(texts []string, embeddings []SpeakerEmbedding) (GenerationRequest, error) {
	if len(texts) == 0 {
		return GenerationRequest{}, errors.New("generation request needs at least one utterance")
	}
	if len(texts) != len(embeddings) {
		return GenerationRequest{}, fmt.Errorf("%w: %d utterances but %d embeddings", ErrShapeMismatch, len(texts), len(embeddings))
	}
	return GenerationRequest{
		Texts:      append([]string(nil), texts...),
		Embeddings: append([]SpeakerEmbedding(nil), embeddings...),
	}, nil
}

// Len returns the number of pairs.
func (r GenerationRequest) Len() int { return len(r.Texts) }
