package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/example/go-voice-clone/internal/config"
	"github.com/example/go-voice-clone/internal/doctor"
	"github.com/example/go-voice-clone/internal/model"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/output"
	"github.com/spf13/cobra"
)

var probeVersion = probeVersionImpl

func newDoctorCmd() *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime and model checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runDoctor(cmd.Context(), cfg, skipVerify, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip the model smoke inference")

	return cmd
}

func runDoctor(ctx context.Context, cfg config.Config, skipVerify bool, stdout, stderr io.Writer) error {
	paths := modelPaths(cfg)

	dcfg := doctor.Config{
		RuntimeVersion: func() (string, error) {
			info, err := onnx.DetectRuntime(cfg.Runtime)
			if err != nil {
				return "", err
			}
			if info.Version == "unknown" {
				return "", nil
			}
			return info.Version, nil
		},
		APIVersion: cfg.Runtime.ORTAPIVersion,
		ModelFiles: []string{paths.EncoderPath, paths.SynthesizerPath(), paths.VocoderPath},
		Metadata: func() error {
			_, err := model.LoadMetadata(paths)
			return err
		},
		FFmpegVersion: func() (string, error) {
			return probeVersion(ctx, cfg.Decode.FFmpegPath, "-version")
		},
		Player: func() (string, error) {
			p, err := output.NewExecPlayer(cfg.Session.Player)
			if err != nil {
				return "", err
			}
			return strings.Join(p.Command(), " "), nil
		},
		SkipPlayer: cfg.Session.NoSound,
	}

	result := doctor.Run(dcfg, stdout)

	// Smoke inference needs the runtime and every model file in place.
	switch {
	case skipVerify:
		_, _ = fmt.Fprintf(stdout, "%s model verify: skipped\n", doctor.PassMark)
	case result.Failed():
		_, _ = fmt.Fprintf(stdout, "%s model verify: skipped (earlier checks failed)\n", doctor.FailMark)
	default:
		if err := runModelVerify(ctx, cfg, 0, io.Discard, stderr); err != nil {
			result.AddFailure(err.Error())
			_, _ = fmt.Fprintf(stdout, "%s model verify: %v\n", doctor.FailMark, err)
		} else {
			_, _ = fmt.Fprintf(stdout, "%s model verify: ok\n", doctor.PassMark)
		}
	}

	for _, w := range result.Warnings() {
		_, _ = fmt.Fprintf(stderr, "WARN: %s\n", w)
	}

	if result.Failed() {
		for _, f := range result.Failures() {
			// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
			_, _ = fmt.Fprintf(stderr, "FAIL: %s\n", f)
		}

		return errors.New("doctor checks failed")
	}

	_, _ = fmt.Fprintln(stdout, "doctor checks passed")

	return nil
}

// probeVersionImpl runs `exe arg` and returns the first line of its output.
func probeVersionImpl(ctx context.Context, exe, arg string) (string, error) {
	if exe == "" {
		return "", errors.New("no executable configured")
	}
	out, err := exec.CommandContext(ctx, exe, arg).Output()
	if err != nil {
		return "", fmt.Errorf("%s %s failed: %w", exe, arg, err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
