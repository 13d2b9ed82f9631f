// Package ingest turns reference recordings into waveforms ready for the
// speaker encoder.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/go-voice-clone/internal/audio"
)

// ErrEmptyAudio is returned for recordings that decode to no samples.
var ErrEmptyAudio = audio.ErrEmptyAudio

const (
	// TargetDBFS is the loudness quiet recordings are raised to.
	TargetDBFS = -30
)

// Options configures an Ingestor.
type Options struct {
	// SampleRate is the encoder's input rate.
	SampleRate int
	// FFmpegPath decodes non-WAV input.
	FFmpegPath string
	// VAD parameterizes silence trimming. The zero value selects audio.DefaultVADOptions.
	VAD audio.VADOptions
}

// Ingestor loads and preprocesses reference audio.
type Ingestor struct {
	opts Options
}

func New(opts Options) (*Ingestor, error) {
	if opts.SampleRate < 1 {
		return nil, fmt.Errorf("invalid encoder sample rate: %d", opts.SampleRate)
	}
	if opts.VAD == (audio.VADOptions{}) {
		opts.VAD = audio.DefaultVADOptions()
	}
	return &Ingestor{opts: opts}, nil
}

// FromPath decodes the file at path and preprocesses it like FromSamples.
func (i *Ingestor) FromPath(ctx context.Context, path string) (audio.Waveform, error) {
	w, err := audio.LoadFile(ctx, path, audio.LoadOptions{FFmpegPath: i.opts.FFmpegPath})
	if err != nil {
		return audio.Waveform{}, err
	}

	slog.Debug("decoded reference audio", "path", path, "sample_rate", w.SampleRate, "samples", w.Len())

	return i.FromSamples(w.Samples, w.SampleRate)
}

// FromSamples resamples mono samples to the encoder rate, raises quiet audio
// towards TargetDBFS and trims long silences.
func (i *Ingestor) FromSamples(samples []float32, sampleRate int) (audio.Waveform, error) {
	if len(samples) == 0 {
		return audio.Waveform{}, ErrEmptyAudio
	}

	w, err := audio.NewWaveform(samples, sampleRate)
	if err != nil {
		return audio.Waveform{}, err
	}

	w, err = audio.Resample(w, i.opts.SampleRate)
	if err != nil {
		return audio.Waveform{}, err
	}
	if w.Len() == 0 {
		return audio.Waveform{}, ErrEmptyAudio
	}

	out := audio.NormalizeVolume(w.Samples, TargetDBFS, true)
	out = audio.TrimLongSilences(out, w.SampleRate, i.opts.VAD)

	return audio.Waveform{Samples: out, SampleRate: w.SampleRate}, nil
}
