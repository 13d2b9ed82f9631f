package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// parsedBinder registers all config flags and parses args into them.
func parsedBinder(t *testing.T, defaults Config, args ...string) *fakeBinder {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	return &fakeBinder{fs: fs}
}

// chdirTemp moves the test into an empty directory so no stray
// voiceclone.yaml is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.Encoder != "models/encoder.onnx" {
		t.Errorf("Paths.Encoder = %q; want %q", cfg.Paths.Encoder, "models/encoder.onnx")
	}

	if cfg.Paths.SynthesizerDir != "models/synthesizer" {
		t.Errorf("Paths.SynthesizerDir = %q; want %q", cfg.Paths.SynthesizerDir, "models/synthesizer")
	}

	if cfg.Paths.Vocoder != "models/vocoder.onnx" {
		t.Errorf("Paths.Vocoder = %q; want %q", cfg.Paths.Vocoder, "models/vocoder.onnx")
	}

	if cfg.Runtime.Threads != 4 {
		t.Errorf("Runtime.Threads = %d; want 4", cfg.Runtime.Threads)
	}

	if cfg.Runtime.ORTAPIVersion != 23 {
		t.Errorf("Runtime.ORTAPIVersion = %d; want 23", cfg.Runtime.ORTAPIVersion)
	}

	if cfg.Session.LowMemory || cfg.Session.NoSound {
		t.Errorf("Session = %+v; want low_memory and no_sound off", cfg.Session)
	}

	if cfg.Output.Pattern != "demo_output_%02d.wav" {
		t.Errorf("Output.Pattern = %q; want %q", cfg.Output.Pattern, "demo_output_%02d.wav")
	}

	if cfg.Output.Format != "float32" {
		t.Errorf("Output.Format = %q; want float32", cfg.Output.Format)
	}

	if cfg.Output.PadSeconds != 1.0 {
		t.Errorf("Output.PadSeconds = %v; want 1", cfg.Output.PadSeconds)
	}

	if cfg.Vocoder.Target != 8000 || cfg.Vocoder.Overlap != 800 {
		t.Errorf("Vocoder = %+v; want target 8000 overlap 800", cfg.Vocoder)
	}

	if cfg.Decode.FFmpegPath != "ffmpeg" {
		t.Errorf("Decode.FFmpegPath = %q; want ffmpeg", cfg.Decode.FFmpegPath)
	}

	if cfg.Metrics.ListenAddr != "" {
		t.Errorf("Metrics.ListenAddr = %q; want empty", cfg.Metrics.ListenAddr)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag      string
		shorthand string
		want      string
	}{
		{"paths-encoder", "e", "models/encoder.onnx"},
		{"paths-synthesizer-dir", "s", "models/synthesizer"},
		{"paths-vocoder", "v", "models/vocoder.onnx"},
		{"low-mem", "", "false"},
		{"no-sound", "", "false"},
		{"vocoder-target", "", "8000"},
		{"output-format", "", "float32"},
		{"log-level", "", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}

		if f.Shorthand != c.shorthand {
			t.Errorf("flag %q shorthand = %q; want %q", c.flag, f.Shorthand, c.shorthand)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:      parsedBinder(t, defaults),
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg != defaults {
		t.Errorf("Load() = %+v; want defaults %+v", cfg, defaults)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	chdirTemp(t)

	defaults := DefaultConfig()
	binder := parsedBinder(t, defaults,
		"-e", "/m/enc.onnx",
		"-s", "/m/synth",
		"-v", "/m/voc.onnx",
		"--low-mem",
		"--no-sound",
		"--vocoder-target=4000",
		"--log-level=debug",
	)

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.Encoder != "/m/enc.onnx" {
		t.Errorf("Paths.Encoder = %q; want %q", cfg.Paths.Encoder, "/m/enc.onnx")
	}

	if cfg.Paths.SynthesizerDir != "/m/synth" {
		t.Errorf("Paths.SynthesizerDir = %q; want %q", cfg.Paths.SynthesizerDir, "/m/synth")
	}

	if cfg.Paths.Vocoder != "/m/voc.onnx" {
		t.Errorf("Paths.Vocoder = %q; want %q", cfg.Paths.Vocoder, "/m/voc.onnx")
	}

	if !cfg.Session.LowMemory || !cfg.Session.NoSound {
		t.Errorf("Session = %+v; want low_memory and no_sound on", cfg.Session)
	}

	if cfg.Vocoder.Target != 4000 {
		t.Errorf("Vocoder.Target = %d; want 4000", cfg.Vocoder.Target)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_ORTLibAliasFlag(t *testing.T) {
	chdirTemp(t)

	defaults := DefaultConfig()
	binder := parsedBinder(t, defaults, "--ort-lib=/opt/ort/libonnxruntime.so")

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Runtime.ORTLibraryPath != "/opt/ort/libonnxruntime.so" {
		t.Errorf("Runtime.ORTLibraryPath = %q; want alias value", cfg.Runtime.ORTLibraryPath)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VOICECLONE_LOG_LEVEL", "warn")
	t.Setenv("VOICECLONE_SESSION_NO_SOUND", "true")
	t.Setenv("VOICECLONE_PATHS_ENCODER", "/env/encoder.onnx")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if !cfg.Session.NoSound {
		t.Error("Session.NoSound = false; want true")
	}

	if cfg.Paths.Encoder != "/env/encoder.onnx" {
		t.Errorf("Paths.Encoder = %q; want %q", cfg.Paths.Encoder, "/env/encoder.onnx")
	}
}

func TestLoad_ORTEnvAlias(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VOICECLONE_ORT_LIB", "/env/libonnxruntime.so")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Runtime.ORTLibraryPath != "/env/libonnxruntime.so" {
		t.Errorf("Runtime.ORTLibraryPath = %q; want env value", cfg.Runtime.ORTLibraryPath)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	chdirTemp(t)

	cfgFile := filepath.Join(t.TempDir(), "voiceclone.yaml")
	content := `
log_level: error
paths:
  encoder: /cfg/encoder.onnx
session:
  low_memory: true
output:
  format: pcm16
  pad_seconds: 0.5
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        parsedBinder(t, defaults),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Paths.Encoder != "/cfg/encoder.onnx" {
		t.Errorf("Paths.Encoder = %q; want %q", cfg.Paths.Encoder, "/cfg/encoder.onnx")
	}

	if !cfg.Session.LowMemory {
		t.Error("Session.LowMemory = false; want true")
	}

	if cfg.Output.Format != "pcm16" || cfg.Output.PadSeconds != 0.5 {
		t.Errorf("Output = %+v; want pcm16 with 0.5s pad", cfg.Output)
	}

	if cfg.Paths.Vocoder != defaults.Paths.Vocoder {
		t.Errorf("Paths.Vocoder = %q; want default %q", cfg.Paths.Vocoder, defaults.Paths.Vocoder)
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	chdirTemp(t)

	cfgFile := filepath.Join(t.TempDir(), "voiceclone.yaml")
	if err := os.WriteFile(cfgFile, []byte("vocoder:\n  overlap: 100\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Cmd:        parsedBinder(t, defaults, "--vocoder-overlap=300"),
		ConfigFile: cfgFile,
		Defaults:   defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Vocoder.Overlap != 300 {
		t.Errorf("Vocoder.Overlap = %d; want 300", cfg.Vocoder.Overlap)
	}
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	chdirTemp(t)

	if err := os.WriteFile("voiceclone.yaml", []byte("log_level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want debug", cfg.LogLevel)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")
	// Write invalid YAML
	err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/voiceclone.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

// --- ParseLogLevel ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) err = %v; wantErr %v", tt.in, err, tt.wantErr)
		}

		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
