// Package session runs the interactive voice cloning loop and the startup
// self-test.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/observe"
	"github.com/example/go-voice-clone/internal/vocoder"
	"github.com/example/go-voice-clone/internal/voice"
)

const (
	referencePrompt = "Reference voice: enter an audio filepath of a voice to be cloned (mp3, wav, m4a, flac, ...):"
	textPrompt      = "Write a sentence (+-20 words) to be synthesized:"
)

type Ingestor interface {
	FromPath(ctx context.Context, path string) (audio.Waveform, error)
}

type Embedder interface {
	Embed(ctx context.Context, w audio.Waveform) (voice.SpeakerEmbedding, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req voice.GenerationRequest) ([]voice.MelSpectrogram, error)
}

type Vocoder interface {
	Infer(ctx context.Context, mel voice.MelSpectrogram, target, overlap int, sink vocoder.ProgressSink) (audio.Waveform, error)
}

type Emitter interface {
	Emit(ctx context.Context, w audio.Waveform, playback bool) (string, error)
}

// Pipeline wires the stages of one cycle.
type Pipeline struct {
	Ingest  Ingestor
	Encoder Embedder
	Synth   Synthesizer
	Vocoder Vocoder
	Output  Emitter

	// Target and Overlap are the vocoder chunking in samples.
	Target, Overlap int
	Progress        vocoder.ProgressSink
	Playback        bool
}

type Options struct {
	In      io.Reader
	Out     io.Writer
	Metrics *observe.Metrics
}

// Session drives the interactive loop over a Pipeline.
type Session struct {
	pipeline Pipeline
	prompt   *Prompter
	out      io.Writer
	metrics  *observe.Metrics
}

func New(p Pipeline, opts Options) *Session {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.In == nil {
		opts.In = eofReader{}
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.Nop()
	}
	if p.Progress == nil {
		p.Progress = vocoder.NopProgress{}
	}
	return &Session{
		pipeline: p,
		prompt:   NewPrompter(opts.In, opts.Out),
		out:      opts.Out,
		metrics:  opts.Metrics,
	}
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// CycleResult is the outcome of one pass through the states.
type CycleResult struct {
	Reference string
	Text      string
	Path      string
	Audio     time.Duration
	// Err is nil on success. Failures are *StageError; exhausted input and
	// cancellation are returned as io.EOF and the context error.
	Err error
}

// RunCycle performs AwaitReference through EmitOutput once.
func (s *Session) RunCycle(ctx context.Context) CycleResult {
	var res CycleResult
	p := s.pipeline

	var err error
	if res.Reference, err = s.prompt.Ask(ctx, referencePrompt); err != nil {
		res.Err = err
		return res
	}

	var wav audio.Waveform
	if err := s.stage(ctx, LoadAudio, func() (err error) {
		wav, err = p.Ingest.FromPath(ctx, res.Reference)
		return err
	}); err != nil {
		res.Err = err
		return res
	}
	fmt.Fprintln(s.out, "Loaded file successfully")

	var embed voice.SpeakerEmbedding
	if err := s.stage(ctx, ExtractEmbedding, func() (err error) {
		embed, err = p.Encoder.Embed(ctx, wav)
		return err
	}); err != nil {
		res.Err = err
		return res
	}
	fmt.Fprintln(s.out, "Created the embedding")

	if res.Text, err = s.prompt.Ask(ctx, textPrompt); err != nil {
		res.Err = err
		return res
	}

	var mel voice.MelSpectrogram
	if err := s.stage(ctx, Synthesize, func() error {
		req, err := voice.NewGenerationRequest([]string{res.Text}, []voice.SpeakerEmbedding{embed})
		if err != nil {
			return err
		}
		mels, err := p.Synth.Synthesize(ctx, req)
		if err != nil {
			return err
		}
		if len(mels) != 1 {
			return fmt.Errorf("synthesizer returned %d spectrograms for 1 utterance", len(mels))
		}
		mel = mels[0]
		return nil
	}); err != nil {
		res.Err = err
		return res
	}
	fmt.Fprintln(s.out, "Created the mel spectrogram")

	fmt.Fprintln(s.out, "Synthesizing the waveform:")
	var generated audio.Waveform
	if err := s.stage(ctx, Vocode, func() (err error) {
		generated, err = p.Vocoder.Infer(ctx, mel, p.Target, p.Overlap, p.Progress)
		return err
	}); err != nil {
		res.Err = err
		return res
	}
	res.Audio = generated.Duration()

	if err := s.stage(ctx, EmitOutput, func() (err error) {
		res.Path, err = p.Output.Emit(ctx, generated, p.Playback)
		return err
	}); err != nil {
		res.Err = err
		return res
	}
	fmt.Fprintf(s.out, "\nSaved output as %s\n\n", res.Path)

	s.metrics.RecordAudio(ctx, res.Audio)
	return res
}

// stage times fn and wraps its error with the failing state.
func (s *Session) stage(ctx context.Context, state State, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	s.metrics.RecordStage(ctx, state.String(), elapsed)
	if err != nil {
		slog.Debug("stage failed", "stage", state.String(), "elapsed", elapsed, "error", err)
		return &StageError{State: state, Err: err}
	}
	slog.Debug("stage done", "stage", state.String(), "elapsed", elapsed)
	return nil
}

// Run repeats cycles until the input is exhausted or ctx is cancelled. A
// failed cycle is reported and the loop starts over; it never ends Run.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Interactive generation loop")
	for {
		res := s.RunCycle(ctx)

		var stageErr *StageError
		switch {
		case res.Err == nil:
			s.metrics.RecordCycle(ctx, "")
			slog.Info("cycle complete", "reference", res.Reference, "output", res.Path, "audio", res.Audio)
		case errors.As(res.Err, &stageErr) && ctx.Err() == nil:
			s.metrics.RecordCycle(ctx, stageErr.State.String())
			slog.Warn("cycle failed", "stage", stageErr.State.String(), "error", stageErr.Err)
			fmt.Fprintf(s.out, "Caught exception: %v\n", stageErr.Err)
			fmt.Fprint(s.out, "Restarting\n\n")
		case errors.Is(res.Err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return res.Err
		}
	}
}
