package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/config"
	"github.com/example/go-voice-clone/internal/text"
	"github.com/example/go-voice-clone/internal/vocoder"
	"github.com/example/go-voice-clone/internal/voice"
	"github.com/spf13/cobra"
)

type synthRunOptions struct {
	Reference string
	Text      string
	Out       string
	// MaxChars bounds each synthesized utterance; <= 0 splits by line only.
	MaxChars int
}

func newSynthCmd() *cobra.Command {
	var opts synthRunOptions

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Clone a voice once: reference audio and text to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runSynthCommand(cmd.Context(), cfg, opts, os.Stdin, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().StringVar(&opts.Reference, "reference", "", "Reference recording of the voice to clone")
	cmd.Flags().StringVar(&opts.Text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&opts.Out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().IntVar(&opts.MaxChars, "max-chars", 200, "Maximum characters per synthesized utterance")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func runSynthCommand(ctx context.Context, cfg config.Config, opts synthRunOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	input, err := readSynthText(opts.Text, stdin)
	if err != nil {
		return err
	}
	utterances := text.SplitUtterances(input, opts.MaxChars)
	if len(utterances) == 0 {
		return errors.New("no text to synthesize")
	}

	format, err := audio.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	comps, err := loadComponents(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer comps.Close()

	ref, err := comps.ingest.FromPath(ctx, opts.Reference)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}
	embed, err := comps.encoder.Embed(ctx, ref)
	if err != nil {
		return fmt.Errorf("embed reference: %w", err)
	}

	embeds := make([]voice.SpeakerEmbedding, len(utterances))
	for i := range embeds {
		embeds[i] = embed
	}
	req, err := voice.NewGenerationRequest(utterances, embeds)
	if err != nil {
		return err
	}
	mels, err := comps.synth.Synthesize(ctx, req)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	mel, err := voice.ConcatMels(mels...)
	if err != nil {
		return err
	}

	wav, err := comps.vocoder.Infer(ctx, mel, cfg.Vocoder.Target, cfg.Vocoder.Overlap, vocoder.LogProgress{Logger: slog.Default()})
	if err != nil {
		return fmt.Errorf("vocode: %w", err)
	}
	slog.Info("synthesized", "utterances", len(utterances), "frames", mel.Frames, "duration", wav.Duration())

	data, err := audio.Encode(wav, format)
	if err != nil {
		return err
	}
	return writeSynthOutput(opts.Out, data, stdout)
}

// readSynthText returns the text flag, or stdin when the flag is empty.
func readSynthText(flagText string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(flagText) != "" {
		return flagText, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", errors.New("no text provided: use --text or pipe text on stdin")
	}
	return s, nil
}

func writeSynthOutput(out string, data []byte, stdout io.Writer) error {
	if out == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}
