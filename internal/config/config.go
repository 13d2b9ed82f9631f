package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig   `mapstructure:"paths"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Session  SessionConfig `mapstructure:"session"`
	Output   OutputConfig  `mapstructure:"output"`
	Vocoder  VocoderConfig `mapstructure:"vocoder"`
	Decode   DecodeConfig  `mapstructure:"decode"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	LogLevel string        `mapstructure:"log_level"`
}

type PathsConfig struct {
	Encoder        string `mapstructure:"encoder"`
	SynthesizerDir string `mapstructure:"synthesizer_dir"`
	Vocoder        string `mapstructure:"vocoder"`
}

type RuntimeConfig struct {
	Threads        int    `mapstructure:"threads"`
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTVersion     string `mapstructure:"ort_version"`
	ORTAPIVersion  uint32 `mapstructure:"ort_api_version"`
}

type SessionConfig struct {
	LowMemory bool   `mapstructure:"low_memory"`
	NoSound   bool   `mapstructure:"no_sound"`
	Player    string `mapstructure:"player"`
}

type OutputConfig struct {
	Dir        string  `mapstructure:"dir"`
	Pattern    string  `mapstructure:"pattern"`
	Format     string  `mapstructure:"format"`
	PadSeconds float64 `mapstructure:"pad_seconds"`
}

type VocoderConfig struct {
	Target  int `mapstructure:"target"`
	Overlap int `mapstructure:"overlap"`
}

type DecodeConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

// flagKeys maps every config key to the flag names that set it.
var flagKeys = []struct {
	key   string
	flags []string
}{
	{"paths.encoder", []string{"paths-encoder"}},
	{"paths.synthesizer_dir", []string{"paths-synthesizer-dir"}},
	{"paths.vocoder", []string{"paths-vocoder"}},
	{"runtime.threads", []string{"runtime-threads"}},
	{"runtime.ort_library_path", []string{"runtime-ort-library-path", "ort-lib"}},
	{"runtime.ort_version", []string{"runtime-ort-version"}},
	{"runtime.ort_api_version", []string{"runtime-ort-api-version"}},
	{"session.low_memory", []string{"low-mem"}},
	{"session.no_sound", []string{"no-sound"}},
	{"session.player", []string{"player"}},
	{"output.dir", []string{"output-dir"}},
	{"output.pattern", []string{"output-pattern"}},
	{"output.format", []string{"output-format"}},
	{"output.pad_seconds", []string{"output-pad-seconds"}},
	{"vocoder.target", []string{"vocoder-target"}},
	{"vocoder.overlap", []string{"vocoder-overlap"}},
	{"decode.ffmpeg_path", []string{"ffmpeg-path"}},
	{"metrics.listen_addr", []string{"metrics-listen-addr"}},
	{"log_level", []string{"log-level"}},
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			Encoder:        "models/encoder.onnx",
			SynthesizerDir: "models/synthesizer",
			Vocoder:        "models/vocoder.onnx",
		},
		Runtime: RuntimeConfig{
			Threads:       4,
			ORTAPIVersion: 23,
		},
		Output: OutputConfig{
			Dir:        ".",
			Pattern:    "demo_output_%02d.wav",
			Format:     "float32",
			PadSeconds: 1.0,
		},
		Vocoder: VocoderConfig{
			Target:  8000,
			Overlap: 800,
		},
		Decode: DecodeConfig{
			FFmpegPath: "ffmpeg",
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.StringP("paths-encoder", "e", defaults.Paths.Encoder, "Path to the speaker encoder ONNX graph")
	fs.StringP("paths-synthesizer-dir", "s", defaults.Paths.SynthesizerDir, "Directory holding synthesizer.onnx and hparams.json")
	fs.StringP("paths-vocoder", "v", defaults.Paths.Vocoder, "Path to the vocoder ONNX graph")
	fs.Int("runtime-threads", defaults.Runtime.Threads, "ONNX Runtime intra-op thread count")
	fs.String("runtime-ort-library-path", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library (alias for --runtime-ort-library-path)")
	fs.String("runtime-ort-version", defaults.Runtime.ORTVersion, "Expected ONNX Runtime version")
	fs.Uint32("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version to request")
	fs.Bool("low-mem", defaults.Session.LowMemory, "Release the synthesizer after every call to save memory")
	fs.Bool("no-sound", defaults.Session.NoSound, "Skip audio playback")
	fs.String("player", defaults.Session.Player, "Audio player executable (default: auto-detect)")
	fs.String("output-dir", defaults.Output.Dir, "Directory for generated WAV files")
	fs.String("output-pattern", defaults.Output.Pattern, "File name pattern for generated WAV files")
	fs.String("output-format", defaults.Output.Format, "Sample format of generated WAV files (float32|pcm16)")
	fs.Float64("output-pad-seconds", defaults.Output.PadSeconds, "Seconds of silence appended to each output")
	fs.Int("vocoder-target", defaults.Vocoder.Target, "Vocoder chunk length in samples")
	fs.Int("vocoder-overlap", defaults.Vocoder.Overlap, "Vocoder chunk overlap in samples")
	fs.String("ffmpeg-path", defaults.Decode.FFmpegPath, "ffmpeg executable used to decode non-WAV audio")
	fs.String("metrics-listen-addr", defaults.Metrics.ListenAddr, "Serve Prometheus metrics on this address (empty disables)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("VOICECLONE")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "VOICECLONE_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("voiceclone")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.encoder", c.Paths.Encoder)
	v.SetDefault("paths.synthesizer_dir", c.Paths.SynthesizerDir)
	v.SetDefault("paths.vocoder", c.Paths.Vocoder)
	v.SetDefault("runtime.threads", c.Runtime.Threads)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_version", c.Runtime.ORTVersion)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("session.low_memory", c.Session.LowMemory)
	v.SetDefault("session.no_sound", c.Session.NoSound)
	v.SetDefault("session.player", c.Session.Player)
	v.SetDefault("output.dir", c.Output.Dir)
	v.SetDefault("output.pattern", c.Output.Pattern)
	v.SetDefault("output.format", c.Output.Format)
	v.SetDefault("output.pad_seconds", c.Output.PadSeconds)
	v.SetDefault("vocoder.target", c.Vocoder.Target)
	v.SetDefault("vocoder.overlap", c.Vocoder.Overlap)
	v.SetDefault("decode.ffmpeg_path", c.Decode.FFmpegPath)
	v.SetDefault("metrics.listen_addr", c.Metrics.ListenAddr)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds each key to its flag. When a key has several flags, the
// first one the user actually set wins.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		var chosen *pflag.Flag
		for _, name := range fk.flags {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if chosen == nil || (f.Changed && !chosen.Changed) {
				chosen = f
			}
		}
		if chosen == nil {
			continue
		}
		if err := v.BindPFlag(fk.key, chosen); err != nil {
			return fmt.Errorf("bind flag %q: %w", chosen.Name, err)
		}
	}
	return nil
}
