package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMetadata marks invalid or inconsistent model metadata.
var ErrMetadata = errors.New("invalid model metadata")

const (
	// SynthesizerGraphFile and HParamsFile are the fixed names inside the synthesizer directory.
	SynthesizerGraphFile = "synthesizer.onnx"
	HParamsFile          = "hparams.json"
)

// EncoderMeta describes the speaker encoder's audio frontend and output.
type EncoderMeta struct {
	SampleRate    int `json:"sample_rate"`
	MelChannels   int `json:"mel_channels"`
	MelWindowMS   int `json:"mel_window_ms"`
	MelStepMS     int `json:"mel_step_ms"`
	PartialFrames int `json:"partial_frames"`
	EmbeddingSize int `json:"embedding_size"`
}

// SynthesizerMeta holds the synthesizer hyperparameters the pipeline depends on.
type SynthesizerMeta struct {
	SampleRate    int     `json:"sample_rate"`
	MelChannels   int     `json:"mel_channels"`
	HopSize       int     `json:"hop_size"`
	EmbeddingSize int     `json:"embedding_size"`
	MaxAbsValue   float64 `json:"max_abs_value"`
	StopThreshold float64 `json:"stop_threshold"`
	BatchSize     int     `json:"batch_size"`
}

// VocoderMeta describes the vocoder's expected input and output rate.
type VocoderMeta struct {
	SampleRate  int     `json:"sample_rate"`
	MelChannels int     `json:"mel_channels"`
	HopSize     int     `json:"hop_size"`
	MaxAbsValue float64 `json:"max_abs_value"`
}

// Metadata is the combined description of the three models.
type Metadata struct {
	Encoder     EncoderMeta
	Synthesizer SynthesizerMeta
	Vocoder     VocoderMeta
}

// SidecarPath returns the JSON metadata path next to an ONNX graph:
// models/encoder.onnx -> models/encoder.json.
func SidecarPath(graphPath string) string {
	return strings.TrimSuffix(graphPath, filepath.Ext(graphPath)) + ".json"
}

// LoadMetadata reads and cross-checks the metadata of all three models.
func LoadMetadata(paths Paths) (Metadata, error) {
	var meta Metadata

	if err := readJSON(SidecarPath(paths.EncoderPath), &meta.Encoder); err != nil {
		return Metadata{}, fmt.Errorf("encoder metadata: %w", err)
	}
	if err := readJSON(filepath.Join(paths.SynthesizerDir, HParamsFile), &meta.Synthesizer); err != nil {
		return Metadata{}, fmt.Errorf("synthesizer metadata: %w", err)
	}
	if err := readJSON(SidecarPath(paths.VocoderPath), &meta.Vocoder); err != nil {
		return Metadata{}, fmt.Errorf("vocoder metadata: %w", err)
	}

	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// Validate checks every value is positive and that adjacent stages agree on
// embedding size, mel channels, hop size and output sample rate.
func (m Metadata) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"encoder.sample_rate", float64(m.Encoder.SampleRate)},
		{"encoder.mel_channels", float64(m.Encoder.MelChannels)},
		{"encoder.mel_window_ms", float64(m.Encoder.MelWindowMS)},
		{"encoder.mel_step_ms", float64(m.Encoder.MelStepMS)},
		{"encoder.partial_frames", float64(m.Encoder.PartialFrames)},
		{"encoder.embedding_size", float64(m.Encoder.EmbeddingSize)},
		{"synthesizer.sample_rate", float64(m.Synthesizer.SampleRate)},
		{"synthesizer.mel_channels", float64(m.Synthesizer.MelChannels)},
		{"synthesizer.hop_size", float64(m.Synthesizer.HopSize)},
		{"synthesizer.embedding_size", float64(m.Synthesizer.EmbeddingSize)},
		{"synthesizer.max_abs_value", m.Synthesizer.MaxAbsValue},
		{"synthesizer.batch_size", float64(m.Synthesizer.BatchSize)},
		{"vocoder.sample_rate", float64(m.Vocoder.SampleRate)},
		{"vocoder.mel_channels", float64(m.Vocoder.MelChannels)},
		{"vocoder.hop_size", float64(m.Vocoder.HopSize)},
		{"vocoder.max_abs_value", m.Vocoder.MaxAbsValue},
	}
	for _, c := range checks {
		if !(c.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrMetadata, c.name, c.value)
		}
	}

	if m.Encoder.EmbeddingSize != m.Synthesizer.EmbeddingSize {
		return fmt.Errorf("%w: encoder embedding size %d != synthesizer embedding size %d",
			ErrMetadata, m.Encoder.EmbeddingSize, m.Synthesizer.EmbeddingSize)
	}
	if m.Synthesizer.MelChannels != m.Vocoder.MelChannels {
		return fmt.Errorf("%w: synthesizer mel channels %d != vocoder mel channels %d",
			ErrMetadata, m.Synthesizer.MelChannels, m.Vocoder.MelChannels)
	}
	if m.Synthesizer.HopSize != m.Vocoder.HopSize {
		return fmt.Errorf("%w: synthesizer hop size %d != vocoder hop size %d",
			ErrMetadata, m.Synthesizer.HopSize, m.Vocoder.HopSize)
	}
	if m.Synthesizer.SampleRate != m.Vocoder.SampleRate {
		return fmt.Errorf("%w: synthesizer sample rate %d != vocoder sample rate %d",
			ErrMetadata, m.Synthesizer.SampleRate, m.Vocoder.SampleRate)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMetadata, path, err)
	}
	return nil
}
