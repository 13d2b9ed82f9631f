package model

import (
	"path/filepath"

	"github.com/example/go-voice-clone/internal/onnx"
)

// Graph input and output names.
const (
	EncoderName     = "encoder"
	SynthesizerName = "synthesizer"
	VocoderName     = "vocoder"

	EncoderInput  = "mels"
	EncoderOutput = "embeds"

	SynthesizerCharsInput     = "chars"
	SynthesizerEmbeddingInput = "speaker_embedding"
	SynthesizerOutput         = "mels"

	VocoderInput  = "mel"
	VocoderOutput = "audio"
)

// verifySteps is the symbolic time length used when building zero inputs.
const verifySteps = 8

// Paths locates the three models on disk.
type Paths struct {
	EncoderPath    string
	SynthesizerDir string
	VocoderPath    string
}

// SynthesizerPath returns the synthesizer graph inside SynthesizerDir.
func (p Paths) SynthesizerPath() string {
	return filepath.Join(p.SynthesizerDir, SynthesizerGraphFile)
}

// Sessions resolves the three graphs and describes their inputs with the
// concrete sizes from meta. Time axes are symbolic.
func (p Paths) Sessions(meta Metadata) ([]onnx.Session, error) {
	enc, err := onnx.NewSession(EncoderName, p.EncoderPath,
		[]onnx.NodeInfo{{Name: EncoderInput, DType: "float32", Shape: []any{1, meta.Encoder.PartialFrames, meta.Encoder.MelChannels}}},
		[]onnx.NodeInfo{{Name: EncoderOutput, DType: "float32", Shape: []any{"batch", meta.Encoder.EmbeddingSize}}},
	)
	if err != nil {
		return nil, err
	}

	syn, err := onnx.NewSession(SynthesizerName, p.SynthesizerPath(),
		[]onnx.NodeInfo{
			{Name: SynthesizerCharsInput, DType: "int64", Shape: []any{1, verifySteps}},
			{Name: SynthesizerEmbeddingInput, DType: "float32", Shape: []any{1, meta.Synthesizer.EmbeddingSize}},
		},
		[]onnx.NodeInfo{{Name: SynthesizerOutput, DType: "float32", Shape: []any{"batch", meta.Synthesizer.MelChannels, "frames"}}},
	)
	if err != nil {
		return nil, err
	}

	voc, err := onnx.NewSession(VocoderName, p.VocoderPath,
		[]onnx.NodeInfo{{Name: VocoderInput, DType: "float32", Shape: []any{1, meta.Vocoder.MelChannels, verifySteps}}},
		[]onnx.NodeInfo{{Name: VocoderOutput, DType: "float32", Shape: []any{"batch", "samples"}}},
	)
	if err != nil {
		return nil, err
	}

	return []onnx.Session{enc, syn, voc}, nil
}
