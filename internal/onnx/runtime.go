package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/example/go-voice-clone/internal/config"
)

// ErrRuntimeNotFound is returned when no ONNX Runtime shared library can be located.
var ErrRuntimeNotFound = errors.New("unable to detect ONNX Runtime library path")

// RuntimeInfo describes the ONNX Runtime library selected for this process.
type RuntimeInfo struct {
	LibraryPath string
	Version     string
	APIVersion  uint32
	Threads     int
	Initialized bool
}

// RunnerConfig returns the settings runners need to load graphs with this runtime.
func (i RuntimeInfo) RunnerConfig() RunnerConfig {
	return RunnerConfig{LibraryPath: i.LibraryPath, APIVersion: i.APIVersion}
}

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

var (
	bootstrapOnce sync.Once
	bootstrapInfo RuntimeInfo
	errBootstrap  error
	shutdownFlag  atomic.Bool
)

// Bootstrap detects the runtime once per process. Later calls return the
// first result regardless of cfg.
func Bootstrap(cfg config.RuntimeConfig) (RuntimeInfo, error) {
	bootstrapOnce.Do(func() {
		if cfg.Threads < 1 {
			errBootstrap = fmt.Errorf("runtime threads must be >= 1, got %d", cfg.Threads)
			return
		}

		info, err := DetectRuntime(cfg)
		if err != nil {
			errBootstrap = err
			return
		}

		// Child processes and later lookups see the same library.
		err = os.Setenv("VOICECLONE_ORT_LIB", info.LibraryPath)
		if err != nil {
			errBootstrap = fmt.Errorf("set VOICECLONE_ORT_LIB: %w", err)
			return
		}

		bootstrapInfo = info
		bootstrapInfo.Initialized = true
	})

	if errBootstrap != nil {
		return RuntimeInfo{}, errBootstrap
	}

	return bootstrapInfo, nil
}

func Shutdown() error {
	if !bootstrapInfo.Initialized {
		return nil
	}

	if shutdownFlag.Swap(true) {
		return nil
	}

	bootstrapInfo.Initialized = false

	return nil
}

// DetectRuntime locates the ONNX Runtime library: the configured path, then
// VOICECLONE_ORT_LIB, then ORT_LIBRARY_PATH, then well-known install locations.
func DetectRuntime(cfg config.RuntimeConfig) (RuntimeInfo, error) {
	apiVersion := cfg.ORTAPIVersion
	if apiVersion == 0 {
		apiVersion = DefaultAPIVersion
	}

	path := cfg.ORTLibraryPath
	if path == "" {
		path = os.Getenv("VOICECLONE_ORT_LIB")
	}

	if path == "" {
		path = os.Getenv("ORT_LIBRARY_PATH")
	}

	if path == "" {
		for _, c := range libraryCandidates() {
			_, err := os.Stat(c)
			if err == nil {
				path = c
				break
			}
		}
	}

	if path == "" {
		return RuntimeInfo{LibraryPath: "not found", Version: "unknown"}, ErrRuntimeNotFound
	}

	_, err := os.Stat(path)
	if err != nil {
		return RuntimeInfo{LibraryPath: path, Version: "unknown"}, fmt.Errorf("onnx runtime library path check failed: %w", err)
	}

	version := cfg.ORTVersion
	if version == "" {
		version = os.Getenv("ORT_VERSION")
	}

	if version == "" {
		version = inferVersionFromPath(path)
	}

	if version == "" {
		version = "unknown"
	}

	return RuntimeInfo{
		LibraryPath: path,
		Version:     version,
		APIVersion:  apiVersion,
		Threads:     cfg.Threads,
	}, nil
}

func libraryCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/opt/homebrew/lib/libonnxruntime.dylib",
			"/usr/local/lib/libonnxruntime.dylib",
		}
	case "windows":
		return []string{"C:/onnxruntime/lib/onnxruntime.dll"}
	default:
		return []string{
			"/usr/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
			"/usr/lib/aarch64-linux-gnu/libonnxruntime.so",
		}
	}
}

func inferVersionFromPath(path string) string {
	name := filepath.Base(path)
	if m := versionPattern.FindStringSubmatch(name); len(m) == 2 {
		return m[1]
	}

	return ""
}
