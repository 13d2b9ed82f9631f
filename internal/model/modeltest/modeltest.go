// Package modeltest builds small model registries backed by fake graphs.
package modeltest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/onnx/onnxtest"
)

// FramesPerChar is how many mel frames the fake synthesizer emits per symbol.
const FramesPerChar = 2

// Metadata returns a small, self-consistent model description.
func Metadata() model.Metadata {
	return model.Metadata{
		Encoder: model.EncoderMeta{
			SampleRate:    16000,
			MelChannels:   40,
			MelWindowMS:   25,
			MelStepMS:     10,
			PartialFrames: 160,
			EmbeddingSize: 8,
		},
		Synthesizer: model.SynthesizerMeta{
			SampleRate:    16000,
			MelChannels:   20,
			HopSize:       50,
			EmbeddingSize: 8,
			MaxAbsValue:   4,
			StopThreshold: -3.4,
			BatchSize:     2,
		},
		Vocoder: model.VocoderMeta{
			SampleRate:  16000,
			MelChannels: 20,
			HopSize:     50,
			MaxAbsValue: 4,
		},
	}
}

// Fakes holds the fake runners behind a registry.
type Fakes struct {
	Encoder     *onnxtest.Runner
	Synthesizer *onnxtest.Runner
	Vocoder     *onnxtest.Runner
	// Reopened collects synthesizer runners created after a low-memory release.
	Reopened []*onnxtest.Runner
}

// NewRegistry returns a registry over fake graphs that follow Metadata.
func NewRegistry(tb testing.TB, lowMemory bool) (*model.Registry, *Fakes) {
	tb.Helper()

	meta := Metadata()
	synthFn := onnxtest.Synthesizer(meta.Synthesizer.MelChannels, FramesPerChar, float32(meta.Synthesizer.MaxAbsValue))

	f := &Fakes{
		Encoder:     onnxtest.NewRunner(model.EncoderName, onnxtest.Encoder(meta.Encoder.EmbeddingSize)),
		Synthesizer: onnxtest.NewRunner(model.SynthesizerName, synthFn),
		Vocoder:     onnxtest.NewRunner(model.VocoderName, onnxtest.Vocoder(meta.Vocoder.HopSize)),
	}
	reopen := func() (onnx.GraphRunner, error) {
		r := onnxtest.NewRunner(model.SynthesizerName, synthFn)
		f.Reopened = append(f.Reopened, r)
		return r, nil
	}

	reg, err := model.NewRegistryWithRunners(meta, f.Encoder, f.Synthesizer, f.Vocoder, lowMemory, reopen)
	if err != nil {
		tb.Fatalf("NewRegistryWithRunners: %v", err)
	}
	tb.Cleanup(reg.Close)

	return reg, f
}

// WriteTree lays out placeholder graphs and metadata sidecars for Metadata
// under dir and returns their paths. The graphs are not loadable; the tree
// serves checks that only stat files and read metadata.
func WriteTree(tb testing.TB, dir string) model.Paths {
	tb.Helper()

	meta := Metadata()
	paths := model.Paths{
		EncoderPath:    filepath.Join(dir, "encoder.onnx"),
		SynthesizerDir: filepath.Join(dir, "synthesizer"),
		VocoderPath:    filepath.Join(dir, "vocoder.onnx"),
	}
	if err := os.MkdirAll(paths.SynthesizerDir, 0o755); err != nil {
		tb.Fatal(err)
	}

	for _, p := range []string{paths.EncoderPath, paths.SynthesizerPath(), paths.VocoderPath} {
		if err := os.WriteFile(p, []byte("onnx"), 0o644); err != nil {
			tb.Fatal(err)
		}
	}
	writeJSON(tb, model.SidecarPath(paths.EncoderPath), meta.Encoder)
	writeJSON(tb, filepath.Join(paths.SynthesizerDir, model.HParamsFile), meta.Synthesizer)
	writeJSON(tb, model.SidecarPath(paths.VocoderPath), meta.Vocoder)
	return paths
}

func writeJSON(tb testing.TB, path string, v any) {
	tb.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatal(err)
	}
}
