// Package vocoder turns mel spectrograms into waveforms chunk by chunk.
package vocoder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/voice"
)

// Chunking defaults in samples.
const (
	DefaultTarget  = 8000
	DefaultOverlap = 800
)

// tailFadeHops is the length of the closing fade-out in hops.
const tailFadeHops = 20

// Graph lends out the vocoder runner for the duration of fn.
type Graph interface {
	With(fn func(onnx.GraphRunner) error) error
}

type Vocoder struct {
	graph Graph
	meta  model.VocoderMeta
	now   func() time.Time
}

func New(graph Graph, meta model.VocoderMeta) *Vocoder {
	return &Vocoder{graph: graph, meta: meta, now: time.Now}
}

// Infer vocodes mel. target and overlap are in samples and rounded to whole
// frames. The result has exactly mel.Frames*hop samples at the vocoder rate.
// A nil sink is treated as NopProgress.
func (v *Vocoder) Infer(ctx context.Context, mel voice.MelSpectrogram, target, overlap int, sink ProgressSink) (audio.Waveform, error) {
	if mel.Channels != v.meta.MelChannels {
		return audio.Waveform{}, fmt.Errorf("%w: spectrogram has %d channels, vocoder expects %d",
			voice.ErrShapeMismatch, mel.Channels, v.meta.MelChannels)
	}
	if mel.Frames < 1 || len(mel.Data) != mel.Channels*mel.Frames {
		return audio.Waveform{}, fmt.Errorf("%w: malformed spectrogram %dx%d", voice.ErrShapeMismatch, mel.Channels, mel.Frames)
	}
	if target < 1 || overlap < 0 {
		return audio.Waveform{}, fmt.Errorf("invalid chunking target=%d overlap=%d", target, overlap)
	}
	if sink == nil {
		sink = NopProgress{}
	}

	hop := v.meta.HopSize
	targetFrames := max(1, target/hop)
	overlapFrames := (overlap + hop - 1) / hop

	scaled := make([]float32, len(mel.Data))
	scale := float32(1 / v.meta.MaxAbsValue)
	for i, x := range mel.Data {
		scaled[i] = x * scale
	}

	chunks := fold(scaled, mel.Channels, mel.Frames, targetFrames, overlapFrames)
	size := targetFrames + 2*overlapFrames
	slog.Debug("vocoding", "frames", mel.Frames, "chunks", len(chunks), "chunk_frames", size)

	start := v.now()
	outputs := make([][]float32, len(chunks))
	err := v.graph.With(func(r onnx.GraphRunner) error {
		generated := 0
		for i, chunk := range chunks {
			samples, err := v.runChunk(ctx, r, chunk, mel.Channels, size)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			outputs[i] = samples
			generated += len(samples)
			sink.Progress(Progress{
				Chunk:   i + 1,
				Chunks:  len(chunks),
				Samples: generated,
				Elapsed: v.now().Sub(start),
			})
		}
		return nil
	})
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("vocode: %w", err)
	}

	wav := crossfade(outputs, targetFrames*hop, overlapFrames*hop)
	wav = wav[:mel.Frames*hop]
	audio.FadeOut(wav, tailFadeHops*hop)

	return audio.Waveform{Samples: wav, SampleRate: v.meta.SampleRate}, nil
}

func (v *Vocoder) runChunk(ctx context.Context, r onnx.GraphRunner, chunk []float32, channels, frames int) ([]float32, error) {
	in, err := onnx.NewTensor(chunk, []int64{1, int64(channels), int64(frames)})
	if err != nil {
		return nil, err
	}
	outputs, err := r.Run(ctx, map[string]*onnx.Tensor{model.VocoderInput: in})
	if err != nil {
		return nil, err
	}
	out, err := onnx.Output(r, outputs, model.VocoderOutput)
	if err != nil {
		return nil, err
	}

	want := int64(frames * v.meta.HopSize)
	if _, err := onnx.ExpectShape(out, 1, want); err != nil {
		return nil, fmt.Errorf("vocoder output: %w", err)
	}
	return onnx.ExtractFloat32(out)
}
