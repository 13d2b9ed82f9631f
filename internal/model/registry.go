package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/go-voice-clone/internal/onnx"
)

// Options controls how the registry loads graphs.
type Options struct {
	// LowMemory releases the synthesizer after every call.
	LowMemory bool
	Runner    onnx.RunnerConfig
}

// Registry owns the three model handles and their metadata for the life of
// the process.
type Registry struct {
	meta        Metadata
	encoder     *Handle
	synthesizer *Handle
	vocoder     *Handle
}

var newRunner = func(s onnx.Session, cfg onnx.RunnerConfig) (onnx.GraphRunner, error) {
	r, err := onnx.NewRunner(s, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads metadata and eagerly loads all three graphs. Any failure is
// returned and nothing stays open.
func Load(ctx context.Context, paths Paths, opts Options) (*Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := LoadMetadata(paths)
	if err != nil {
		return nil, err
	}

	sessions, err := paths.Sessions(meta)
	if err != nil {
		return nil, err
	}

	runners := make([]onnx.GraphRunner, 0, len(sessions))
	for _, s := range sessions {
		slog.Info("loading model", "graph", s.Name, "path", s.Path)
		r, err := newRunner(s, opts.Runner)
		if err != nil {
			for _, opened := range runners {
				opened.Close()
			}
			return nil, fmt.Errorf("load %s: %w", s.Name, err)
		}
		runners = append(runners, r)
	}

	synthSession := sessions[1]
	reopen := func() (onnx.GraphRunner, error) {
		return newRunner(synthSession, opts.Runner)
	}

	return &Registry{
		meta:        meta,
		encoder:     NewHandle(runners[0], nil, false),
		synthesizer: NewHandle(runners[1], reopen, opts.LowMemory),
		vocoder:     NewHandle(runners[2], nil, false),
	}, nil
}

// NewRegistryWithRunners builds a registry from externally provided runners.
// reopenSynth may be nil when lowMemory is false.
func NewRegistryWithRunners(meta Metadata, encoder, synthesizer, vocoder onnx.GraphRunner, lowMemory bool, reopenSynth func() (onnx.GraphRunner, error)) (*Registry, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if encoder == nil || synthesizer == nil || vocoder == nil {
		return nil, fmt.Errorf("all three graph runners are required")
	}
	if lowMemory && reopenSynth == nil {
		return nil, fmt.Errorf("low-memory mode needs a synthesizer reopen function")
	}

	return &Registry{
		meta:        meta,
		encoder:     NewHandle(encoder, nil, false),
		synthesizer: NewHandle(synthesizer, reopenSynth, lowMemory),
		vocoder:     NewHandle(vocoder, nil, false),
	}, nil
}

func (r *Registry) Metadata() Metadata   { return r.meta }
func (r *Registry) Encoder() *Handle     { return r.encoder }
func (r *Registry) Synthesizer() *Handle { return r.synthesizer }
func (r *Registry) Vocoder() *Handle     { return r.vocoder }

// Close releases every graph.
func (r *Registry) Close() {
	r.encoder.Close()
	r.synthesizer.Close()
	r.vocoder.Close()
}
