// Package doctor provides environment preflight checks for voiceclone.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// RuntimeVersion returns the detected ONNX Runtime version, e.g. "1.23.0".
	RuntimeVersion VersionFunc
	// APIVersion is the ONNX Runtime C API version the binding requests. The
	// runtime's minor version must be at least this.
	APIVersion uint32
	// ModelFiles are paths that must exist.
	ModelFiles []string
	// Metadata loads and cross-checks model metadata. Nil skips the check.
	Metadata func() error
	// FFmpegVersion probes ffmpeg for non-WAV reference audio.
	FFmpegVersion VersionFunc
	// Player returns the playback command that would be used.
	Player VersionFunc
	// SkipPlayer is set in no-sound mode.
	SkipPlayer bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
	warnings []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// Warnings returns checks that failed without blocking use.
func (r *Result) Warnings() []string { return append([]string(nil), r.warnings...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) warn(msg string) { r.warnings = append(r.warnings, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark. ffmpeg is optional
// since WAV references decode without it, so its absence is only a warning.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- ONNX Runtime -----------------------------------------------------
	if cfg.RuntimeVersion != nil {
		ver, err := cfg.RuntimeVersion()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("onnx runtime: %v", err))
			fmt.Fprintf(w, "%s onnx runtime: not found (%v)\n", FailMark, err)
		case ver == "":
			fmt.Fprintf(w, "%s onnx runtime: found (version unknown)\n", PassMark)
		default:
			if verErr := checkRuntimeVersion(ver, cfg.APIVersion); verErr != nil {
				res.fail(fmt.Sprintf("onnx runtime: %v", verErr))
				fmt.Fprintf(w, "%s onnx runtime %s: %v\n", FailMark, ver, verErr)
			} else {
				fmt.Fprintf(w, "%s onnx runtime: %s\n", PassMark, ver)
			}
		}
	}

	// ---- model files ------------------------------------------------------
	for _, path := range cfg.ModelFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", path, err))
			fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s model file: %s\n", PassMark, path)
		}
	}

	// ---- metadata ---------------------------------------------------------
	if cfg.Metadata != nil {
		if err := cfg.Metadata(); err != nil {
			res.fail(fmt.Sprintf("model metadata: %v", err))
			fmt.Fprintf(w, "%s model metadata: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s model metadata: consistent\n", PassMark)
		}
	}

	// ---- ffmpeg -----------------------------------------------------------
	if cfg.FFmpegVersion != nil {
		ver, err := cfg.FFmpegVersion()
		if err != nil {
			res.warn(fmt.Sprintf("ffmpeg: %v", err))
			fmt.Fprintf(w, "%s ffmpeg: not found, only .wav references will load (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s ffmpeg: %s\n", PassMark, ver)
		}
	}

	// ---- player -----------------------------------------------------------
	switch {
	case cfg.SkipPlayer:
		fmt.Fprintf(w, "%s audio player: skipped (no sound)\n", PassMark)
	case cfg.Player != nil:
		player, err := cfg.Player()
		if err != nil {
			res.fail(fmt.Sprintf("audio player: %v", err))
			fmt.Fprintf(w, "%s audio player: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s audio player: %s\n", PassMark, player)
		}
	}

	return res
}

// checkRuntimeVersion returns an error if ver is not a 1.x release new enough
// to serve C API version api. ORT 1.N ships API version N.
func checkRuntimeVersion(ver string, api uint32) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 1 {
		return fmt.Errorf("requires ONNX Runtime 1.x, got %d.%d", major, minor)
	}
	if api > 0 && minor < int(api) {
		return fmt.Errorf("API version %d requires ONNX Runtime >=1.%d, got 1.%d", api, api, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(strings.TrimSpace(ver), ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
