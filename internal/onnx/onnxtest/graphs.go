package onnxtest

import (
	"context"
	"fmt"
	"math"

	"github.com/example/go-voice-clone/internal/onnx"
)

// Encoder returns a speaker encoder fake: mels [B, F, C] -> embeds [B, dim].
// Each embedding is a deterministic function of its partial's mean energy,
// and an all-zero partial maps to an all-zero embedding.
func Encoder(dim int) RunFunc {
	return func(_ context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
		mels, ok := inputs["mels"]
		if !ok {
			return nil, fmt.Errorf("encoder fake: missing mels input")
		}
		shape, err := onnx.ExpectShape(mels, -1, -1, -1)
		if err != nil {
			return nil, err
		}
		data, err := onnx.ExtractFloat32(mels)
		if err != nil {
			return nil, err
		}

		batch := int(shape[0])
		per := int(shape[1] * shape[2])
		out := make([]float32, batch*dim)
		for b := range batch {
			var sum float64
			for _, v := range data[b*per : (b+1)*per] {
				sum += float64(v)
			}
			mean := sum / float64(per)
			for d := range dim {
				out[b*dim+d] = float32(mean * math.Cos(float64(d+1)))
			}
		}

		embeds, err := onnx.NewTensor(out, []int64{int64(batch), int64(dim)})
		if err != nil {
			return nil, err
		}
		return map[string]*onnx.Tensor{"embeds": embeds}, nil
	}
}

// Synthesizer returns a synthesizer fake: chars [B, T] and speaker_embedding
// [B, D] -> mels [B, channels, T*framesPerChar]. Frames past a row's last
// non-zero id are filled with -maxAbs so stop-threshold trimming removes them.
func Synthesizer(channels, framesPerChar int, maxAbs float32) RunFunc {
	return func(_ context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
		chars, ok := inputs["chars"]
		if !ok {
			return nil, fmt.Errorf("synthesizer fake: missing chars input")
		}
		if _, ok := inputs["speaker_embedding"]; !ok {
			return nil, fmt.Errorf("synthesizer fake: missing speaker_embedding input")
		}
		shape, err := onnx.ExpectShape(chars, -1, -1)
		if err != nil {
			return nil, err
		}
		ids, err := onnx.ExtractInt64(chars)
		if err != nil {
			return nil, err
		}

		batch, steps := int(shape[0]), int(shape[1])
		frames := steps * framesPerChar
		out := make([]float32, batch*channels*frames)
		for b := range batch {
			row := ids[b*steps : (b+1)*steps]
			used := 0
			for i, id := range row {
				if id != 0 {
					used = i + 1
				}
			}
			for c := range channels {
				for f := range frames {
					v := -maxAbs
					if f < used*framesPerChar {
						v = maxAbs / 2
					}
					out[(b*channels+c)*frames+f] = v
				}
			}
		}

		mels, err := onnx.NewTensor(out, []int64{int64(batch), int64(channels), int64(frames)})
		if err != nil {
			return nil, err
		}
		return map[string]*onnx.Tensor{"mels": mels}, nil
	}
}

// Vocoder returns a vocoder fake: mel [B, C, F] -> audio [B, F*hop]. Each
// output sample equals the mean of its frame's channels.
func Vocoder(hop int) RunFunc {
	return func(_ context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
		mel, ok := inputs["mel"]
		if !ok {
			return nil, fmt.Errorf("vocoder fake: missing mel input")
		}
		shape, err := onnx.ExpectShape(mel, -1, -1, -1)
		if err != nil {
			return nil, err
		}
		data, err := onnx.ExtractFloat32(mel)
		if err != nil {
			return nil, err
		}

		batch, channels, frames := int(shape[0]), int(shape[1]), int(shape[2])
		out := make([]float32, batch*frames*hop)
		for b := range batch {
			for f := range frames {
				var sum float32
				for c := range channels {
					sum += data[(b*channels+c)*frames+f]
				}
				mean := sum / float32(channels)
				for h := range hop {
					out[(b*frames+f)*hop+h] = mean
				}
			}
		}

		audio, err := onnx.NewTensor(out, []int64{int64(batch), int64(frames * hop)})
		if err != nil {
			return nil, err
		}
		return map[string]*onnx.Tensor{"audio": audio}, nil
	}
}
