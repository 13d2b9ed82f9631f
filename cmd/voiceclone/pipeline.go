package main

import (
	"context"
	"fmt"
	"io"

	"github.com/example/go-voice-clone/internal/config"
	"github.com/example/go-voice-clone/internal/encoder"
	"github.com/example/go-voice-clone/internal/ingest"
	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/session"
	"github.com/example/go-voice-clone/internal/synth"
	"github.com/example/go-voice-clone/internal/vocoder"
)

var bootstrapRuntime = onnx.Bootstrap

var loadRegistry = func(ctx context.Context, cfg config.Config, info onnx.RuntimeInfo) (*model.Registry, error) {
	return model.Load(ctx, modelPaths(cfg), model.Options{
		LowMemory: cfg.Session.LowMemory,
		Runner:    info.RunnerConfig(),
	})
}

func modelPaths(cfg config.Config) model.Paths {
	return model.Paths{
		EncoderPath:    cfg.Paths.Encoder,
		SynthesizerDir: cfg.Paths.SynthesizerDir,
		VocoderPath:    cfg.Paths.Vocoder,
	}
}

// components are the loaded models and the stages built on them.
type components struct {
	registry *model.Registry
	ingest   *ingest.Ingestor
	encoder  *encoder.Encoder
	synth    *synth.Synthesizer
	vocoder  *vocoder.Vocoder
}

// loadComponents selects the ONNX Runtime, reports it on w and loads all
// three models. A missing runtime or model is fatal.
func loadComponents(ctx context.Context, cfg config.Config, w io.Writer) (*components, error) {
	info, err := bootstrapRuntime(cfg.Runtime)
	if err != nil {
		return nil, fmt.Errorf("onnx runtime: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Using ONNX Runtime %s at %s (API version %d, %d threads).\n",
		info.Version, info.LibraryPath, info.APIVersion, info.Threads)

	reg, err := loadRegistry(ctx, cfg, info)
	if err != nil {
		return nil, err
	}
	meta := reg.Metadata()

	ing, err := ingest.New(ingest.Options{
		SampleRate: meta.Encoder.SampleRate,
		FFmpegPath: cfg.Decode.FFmpegPath,
	})
	if err != nil {
		reg.Close()
		return nil, err
	}

	return &components{
		registry: reg,
		ingest:   ing,
		encoder:  encoder.New(reg.Encoder(), meta.Encoder),
		synth:    synth.New(reg.Synthesizer(), meta.Synthesizer),
		vocoder:  vocoder.New(reg.Vocoder(), meta.Vocoder),
	}, nil
}

// pipeline wires the stages to out for the interactive loop.
func (c *components) pipeline(cfg config.Config, out session.Emitter, progress vocoder.ProgressSink) session.Pipeline {
	return session.Pipeline{
		Ingest:   c.ingest,
		Encoder:  c.encoder,
		Synth:    c.synth,
		Vocoder:  c.vocoder,
		Output:   out,
		Target:   cfg.Vocoder.Target,
		Overlap:  cfg.Vocoder.Overlap,
		Progress: progress,
		Playback: !cfg.Session.NoSound,
	}
}

func (c *components) Close() {
	c.registry.Close()
}
