//go:build !windows

package model

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-voice-clone/internal/onnx"
	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

type VerifyOptions struct {
	Paths         Paths
	ORTLibrary    string
	ORTAPIVersion uint32
	Stdout        io.Writer
	Stderr        io.Writer
}

var runNativeVerify = runNativeVerifyImpl

// VerifyONNX loads each graph and runs it once on zero-valued inputs shaped
// from the model metadata, printing PASS or FAIL per graph.
func VerifyONNX(ctx context.Context, opts VerifyOptions) error {
	if opts.ORTAPIVersion == 0 {
		opts.ORTAPIVersion = onnx.DefaultAPIVersion
	}

	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}

	meta, err := LoadMetadata(opts.Paths)
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	sessions, err := opts.Paths.Sessions(meta)
	if err != nil {
		return fmt.Errorf("resolve sessions: %w", err)
	}

	for _, session := range sessions {
		for _, input := range session.Inputs {
			if _, err := onnx.NewZeroTensor(input.DType, input.Shape); err != nil {
				return fmt.Errorf("session %q input %q invalid: %w", session.Name, input.Name, err)
			}
		}
	}

	return runNativeVerify(ctx, sessions, opts)
}

func runNativeVerifyImpl(ctx context.Context, sessions []onnx.Session, opts VerifyOptions) error {
	runtime, err := ort.NewRuntime(opts.ORTLibrary, opts.ORTAPIVersion)
	if err != nil {
		return fmt.Errorf("initialize ONNX Runtime (lib=%q api=%d): %w", opts.ORTLibrary, opts.ORTAPIVersion, err)
	}

	defer func() { _ = runtime.Close() }()

	env, err := runtime.NewEnv("voiceclone-model-verify", ort.LoggingLevelWarning)
	if err != nil {
		return fmt.Errorf("create ONNX Runtime env: %w", err)
	}
	defer env.Close()

	var failures []string

	for _, session := range sessions {
		err := runSessionSmoke(ctx, runtime, env, session)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "FAIL %s: %v\n", session.Name, err)
			failures = append(failures, session.Name)

			continue
		}

		_, _ = fmt.Fprintf(opts.Stdout, "PASS %s\n", session.Name)
	}

	if len(failures) > 0 {
		return fmt.Errorf("verify failed for %d graph(s): %s", len(failures), strings.Join(failures, ", "))
	}

	return nil
}

func runSessionSmoke(ctx context.Context, runtime *ort.Runtime, env *ort.Env, session onnx.Session) error {
	s, err := runtime.NewSession(env, session.Path, nil)
	if err != nil {
		return fmt.Errorf("load session model: %w", err)
	}
	defer s.Close()

	inputs := make(map[string]*ort.Value, len(session.Inputs))
	defer func() {
		for _, v := range inputs {
			v.Close()
		}
	}()

	for _, input := range session.Inputs {
		t, err := onnx.NewZeroTensor(input.DType, input.Shape)
		if err != nil {
			return fmt.Errorf("build input %q tensor: %w", input.Name, err)
		}

		v, err := onnx.ToORTValue(runtime, t)
		if err != nil {
			return fmt.Errorf("convert input %q to runtime tensor: %w", input.Name, err)
		}

		inputs[input.Name] = v
	}

	outputs, err := s.Run(ctx, inputs)
	if err != nil {
		return fmt.Errorf("run inference: %w", err)
	}

	for _, out := range outputs {
		out.Close()
	}

	return nil
}
