// Package output pads, plays and persists generated audio.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/go-voice-clone/internal/audio"
)

// DefaultPadSeconds is the silence appended to every emitted waveform.
const DefaultPadSeconds = 1.0

type Options struct {
	Dir     string
	Pattern string // fmt pattern taking the output counter, e.g. demo_output_%02d.wav
	Format  audio.Format
	// PadSeconds of silence appended before playback and saving.
	PadSeconds float64
	// Player is used when Emit is asked to play. It may be nil.
	Player Player
}

// Sink writes numbered WAV files and optionally plays them. The counter
// advances only after a file has been written.
type Sink struct {
	opts Options

	mu    sync.Mutex
	count int
}

func NewSink(opts Options) (*Sink, error) {
	if opts.Pattern == "" {
		opts.Pattern = "demo_output_%02d.wav"
	}
	if !strings.Contains(opts.Pattern, "%") {
		return nil, fmt.Errorf("output pattern %q has no counter verb", opts.Pattern)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.PadSeconds < 0 {
		return nil, fmt.Errorf("pad seconds must not be negative, got %v", opts.PadSeconds)
	}
	format, err := audio.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format
	return &Sink{opts: opts}, nil
}

// Emit pads w, plays it when playback is set, and saves it under the next
// counter value. It returns the saved path.
func (s *Sink) Emit(ctx context.Context, w audio.Waveform, playback bool) (string, error) {
	if w.SampleRate < 1 {
		return "", fmt.Errorf("invalid sample rate %d", w.SampleRate)
	}

	padSamples := int(math.Round(s.opts.PadSeconds * float64(w.SampleRate)))
	padded := audio.Waveform{
		Samples:    audio.PadTail(w.Samples, padSamples),
		SampleRate: w.SampleRate,
	}

	if playback {
		if s.opts.Player == nil {
			return "", errors.New("playback requested but no player configured")
		}
		if err := s.opts.Player.Play(ctx, padded); err != nil {
			return "", fmt.Errorf("play: %w", err)
		}
	}

	data, err := audio.Encode(padded, s.opts.Format)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.opts.Dir, fmt.Sprintf(s.opts.Pattern, s.count))
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	s.count++

	slog.Debug("saved output", "path", path, "samples", padded.Len(), "format", s.opts.Format)
	return path, nil
}

// Count returns how many files have been written.
func (s *Sink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
