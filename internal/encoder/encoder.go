// Package encoder derives speaker embeddings from preprocessed reference audio.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/voice"
)

// Encoder runs the speaker encoder graph over partial utterances and averages
// the results into one unit-length embedding.
type Encoder struct {
	graph onnx.GraphRunner
	meta  model.EncoderMeta
	mel   *MelFrontend
}

func New(graph onnx.GraphRunner, meta model.EncoderMeta) *Encoder {
	return &Encoder{
		graph: graph,
		meta:  meta,
		mel:   NewMelFrontend(meta.SampleRate, meta.MelWindowMS, meta.MelStepMS, meta.MelChannels),
	}
}

// Embed returns the speaker embedding of w, which must already be at the
// encoder sample rate. The result always has unit norm.
func (e *Encoder) Embed(ctx context.Context, w audio.Waveform) (voice.SpeakerEmbedding, error) {
	if w.SampleRate != e.meta.SampleRate {
		return nil, fmt.Errorf("waveform sample rate %d, encoder expects %d", w.SampleRate, e.meta.SampleRate)
	}
	if w.Len() == 0 {
		return nil, errors.New("cannot embed an empty waveform")
	}

	batch, partials, err := e.partialBatch(w.Samples)
	if err != nil {
		return nil, err
	}

	outputs, err := e.graph.Run(ctx, map[string]*onnx.Tensor{model.EncoderInput: batch})
	if err != nil {
		return nil, fmt.Errorf("speaker encoder: %w", err)
	}

	embeds, err := onnx.Output(e.graph, outputs, model.EncoderOutput)
	if err != nil {
		return nil, err
	}
	if _, err := onnx.ExpectShape(embeds, int64(partials), int64(e.meta.EmbeddingSize)); err != nil {
		return nil, fmt.Errorf("speaker encoder output: %w", err)
	}
	data, err := onnx.ExtractFloat32(embeds)
	if err != nil {
		return nil, fmt.Errorf("speaker encoder output: %w", err)
	}

	return voice.NewSpeakerEmbedding(meanUnit(data, partials, e.meta.EmbeddingSize), e.meta.EmbeddingSize)
}

// partialBatch pads samples to cover every partial and stacks the partials'
// mel frames into a [partials, frames, channels] tensor.
func (e *Encoder) partialBatch(samples []float32) (*onnx.Tensor, int, error) {
	hop := e.mel.Hop()
	slices := PartialSlices(len(samples), hop, e.meta.PartialFrames)

	if need := slices[len(slices)-1].End * hop; need > len(samples) {
		samples = audio.PadTail(samples, need-len(samples))
	}

	frames := e.mel.Compute(samples)
	channels := e.meta.MelChannels
	per := e.meta.PartialFrames * channels

	data := make([]float32, 0, len(slices)*per)
	for _, s := range slices {
		data = append(data, frames[s.Start*channels:s.End*channels]...)
	}

	t, err := onnx.NewTensor(data, []int64{int64(len(slices)), int64(e.meta.PartialFrames), int64(channels)})
	if err != nil {
		return nil, 0, fmt.Errorf("build encoder input: %w", err)
	}
	return t, len(slices), nil
}

// meanUnit averages rows of a [rows, dim] matrix and scales the mean to unit
// length. A zero or non-finite mean yields the uniform unit vector.
func meanUnit(data []float32, rows, dim int) []float32 {
	mean := make([]float64, dim)
	row := make([]float64, dim)
	for r := range rows {
		for d := range dim {
			row[d] = float64(data[r*dim+d])
		}
		floats.Add(mean, row)
	}
	floats.Scale(1/float64(rows), mean)

	out := make([]float32, dim)
	norm := floats.Norm(mean, 2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		uniform := float32(1 / math.Sqrt(float64(dim)))
		for d := range out {
			out[d] = uniform
		}
		return out
	}

	for d, v := range mean {
		out[d] = float32(v / norm)
	}
	return out
}
