// Package testutil provides shared skip helpers and assertions for
// integration tests.
//
// Each Require helper calls t.Skip with a clear reason when the named
// prerequisite is absent, so integration tests stay runnable in partial
// environments.
//
//	func TestRealModels(t *testing.T) {
//	    testutil.RequireONNXRuntime(t)
//	    paths := testutil.RequireModels(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-voice-clone/internal/model"
)

// ModelsDirEnv names the directory holding encoder.onnx, vocoder.onnx and the
// synthesizer/ directory used by integration tests.
const ModelsDirEnv = "VOICECLONE_MODELS_DIR"

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks VOICECLONE_ORT_LIB, then ORT_LIBRARY_PATH, then common
// system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"VOICECLONE_ORT_LIB", "ORT_LIBRARY_PATH"} {
		if p := os.Getenv(env); p != "" {
			// #nosec G703 -- Integration tests accept explicit env-provided library paths.
			if _, err := os.Stat(p); err == nil {
				return
			}
			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
			return
		}
	}

	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set VOICECLONE_ORT_LIB or ORT_LIBRARY_PATH")
}

// RequireModels skips the test unless ModelsDirEnv points at a complete model
// set, and returns its paths.
func RequireModels(tb testing.TB) model.Paths {
	tb.Helper()

	dir := os.Getenv(ModelsDirEnv)
	if dir == "" {
		tb.Skipf("%s not set; real model tests skipped", ModelsDirEnv)
		return model.Paths{}
	}

	paths := model.Paths{
		EncoderPath:    filepath.Join(dir, "encoder.onnx"),
		SynthesizerDir: filepath.Join(dir, "synthesizer"),
		VocoderPath:    filepath.Join(dir, "vocoder.onnx"),
	}
	for _, p := range []string{paths.EncoderPath, paths.SynthesizerPath(), paths.VocoderPath} {
		if _, err := os.Stat(p); err != nil {
			tb.Skipf("model file missing: %v", err)
			return model.Paths{}
		}
	}
	return paths
}
