// Package synth maps (text, speaker embedding) pairs to mel spectrograms.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/text"
	"github.com/example/go-voice-clone/internal/voice"
)

// Graph lends out the synthesizer runner for the duration of fn.
// *model.Handle implements it and releases the graph afterwards in
// low-memory mode.
type Graph interface {
	With(fn func(onnx.GraphRunner) error) error
}

type Synthesizer struct {
	graph Graph
	meta  model.SynthesizerMeta
}

func New(graph Graph, meta model.SynthesizerMeta) *Synthesizer {
	return &Synthesizer{graph: graph, meta: meta}
}

// Synthesize returns one spectrogram per request pair, in request order.
// Pairs are run in sub-batches of the model's batch size, all under a single
// borrow of the graph.
func (s *Synthesizer) Synthesize(ctx context.Context, req voice.GenerationRequest) ([]voice.MelSpectrogram, error) {
	if req.Len() == 0 {
		return nil, errors.New("nothing to synthesize")
	}
	if len(req.Embeddings) != req.Len() {
		return nil, fmt.Errorf("%w: %d utterances but %d embeddings", voice.ErrShapeMismatch, req.Len(), len(req.Embeddings))
	}
	for i, e := range req.Embeddings {
		if e.Dim() != s.meta.EmbeddingSize {
			return nil, fmt.Errorf("%w: embedding %d has %d values, synthesizer expects %d",
				voice.ErrShapeMismatch, i, e.Dim(), s.meta.EmbeddingSize)
		}
	}

	seqs := make([][]int64, req.Len())
	for i, t := range req.Texts {
		seqs[i] = text.ToSequence(t)
	}

	batch := max(s.meta.BatchSize, 1)
	mels := make([]voice.MelSpectrogram, 0, req.Len())
	err := s.graph.With(func(r onnx.GraphRunner) error {
		for start := 0; start < len(seqs); start += batch {
			end := min(start+batch, len(seqs))
			out, err := s.runBatch(ctx, r, seqs[start:end], req.Embeddings[start:end])
			if err != nil {
				return fmt.Errorf("batch %d-%d: %w", start, end-1, err)
			}
			mels = append(mels, out...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return mels, nil
}

func (s *Synthesizer) runBatch(ctx context.Context, r onnx.GraphRunner, seqs [][]int64, embeds []voice.SpeakerEmbedding) ([]voice.MelSpectrogram, error) {
	b := len(seqs)
	steps := 0
	for _, seq := range seqs {
		steps = max(steps, len(seq))
	}

	ids := make([]int64, b*steps)
	for i, seq := range seqs {
		copy(ids[i*steps:], seq)
	}
	emb := make([]float32, 0, b*s.meta.EmbeddingSize)
	for _, e := range embeds {
		emb = append(emb, e...)
	}

	chars, err := onnx.NewTensor(ids, []int64{int64(b), int64(steps)})
	if err != nil {
		return nil, err
	}
	speaker, err := onnx.NewTensor(emb, []int64{int64(b), int64(s.meta.EmbeddingSize)})
	if err != nil {
		return nil, err
	}

	outputs, err := r.Run(ctx, map[string]*onnx.Tensor{
		model.SynthesizerCharsInput:     chars,
		model.SynthesizerEmbeddingInput: speaker,
	})
	if err != nil {
		return nil, err
	}

	out, err := onnx.Output(r, outputs, model.SynthesizerOutput)
	if err != nil {
		return nil, err
	}
	shape, err := onnx.ExpectShape(out, int64(b), int64(s.meta.MelChannels), -1)
	if err != nil {
		return nil, fmt.Errorf("synthesizer output: %w", err)
	}
	data, err := onnx.ExtractFloat32(out)
	if err != nil {
		return nil, fmt.Errorf("synthesizer output: %w", err)
	}

	channels, frames := int(shape[1]), int(shape[2])
	per := channels * frames
	mels := make([]voice.MelSpectrogram, b)
	for i := range b {
		mel, err := voice.NewMelSpectrogram(channels, frames, data[i*per:(i+1)*per])
		if err != nil {
			return nil, err
		}
		mels[i] = TrimStop(mel, float32(s.meta.StopThreshold))
		slog.Debug("synthesized utterance", "symbols", len(seqs[i]), "frames", mels[i].Frames, "raw_frames", frames)
	}
	return mels, nil
}

// TrimStop drops trailing frames whose loudest channel is below threshold,
// keeping at least one frame.
func TrimStop(mel voice.MelSpectrogram, threshold float32) voice.MelSpectrogram {
	frames := mel.Frames
	for frames > 1 && frameMax(mel, frames-1) < threshold {
		frames--
	}
	return mel.TrimFrames(frames)
}

func frameMax(mel voice.MelSpectrogram, f int) float32 {
	peak := mel.At(0, f)
	for c := 1; c < mel.Channels; c++ {
		peak = max(peak, mel.At(c, f))
	}
	return peak
}
