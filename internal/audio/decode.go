package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/wav"
)

// ErrEmptyAudio is returned when a decoder yields no samples.
var ErrEmptyAudio = errors.New("audio contains no samples")

// DecodeWAV decodes WAV bytes of any sample rate, bit depth and channel count
// into a mono Waveform. Multi-channel input is downmixed by averaging.
func DecodeWAV(data []byte) (Waveform, error) {
	if len(data) == 0 {
		return Waveform{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Waveform{}, errors.New("invalid WAV file")
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return Waveform{}, fmt.Errorf("invalid channel count %d", channels)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("reading PCM data: %w", err)
	}

	samples := Downmix(buf.Data, channels)
	if len(samples) == 0 {
		return Waveform{}, ErrEmptyAudio
	}

	return NewWaveform(samples, int(dec.SampleRate))
}

// Downmix averages interleaved frames of the given channel count into mono.
// Trailing samples that do not form a full frame are dropped.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return append([]float32(nil), interleaved...)
	}

	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// LoadOptions controls how LoadFile decodes non-WAV input.
type LoadOptions struct {
	// FFmpegPath is the ffmpeg executable used for compressed formats.
	FFmpegPath string
}

// LoadFile reads an audio file from disk at its native sample rate. WAV files
// are decoded in-process; every other extension is handed to ffmpeg.
func LoadFile(ctx context.Context, path string, opts LoadOptions) (Waveform, error) {
	if strings.TrimSpace(path) == "" {
		return Waveform{}, errors.New("audio path must not be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("open audio file: %w", err)
	}
	if info.IsDir() {
		return Waveform{}, fmt.Errorf("audio path %q is a directory", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		data, err := os.ReadFile(path)
		if err != nil {
			return Waveform{}, fmt.Errorf("read audio file %q: %w", path, err)
		}
		w, err := DecodeWAV(data)
		if err != nil {
			return Waveform{}, fmt.Errorf("decode WAV %q: %w", path, err)
		}
		return w, nil
	}

	w, err := decodeWithFFmpeg(ctx, path, opts)
	if err != nil {
		return Waveform{}, fmt.Errorf("decode %q: %w", path, err)
	}
	return w, nil
}
