package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/go-voice-clone/internal/audio"
	"github.com/example/go-voice-clone/internal/config"
	"github.com/example/go-voice-clone/internal/observe"
	"github.com/example/go-voice-clone/internal/output"
	"github.com/example/go-voice-clone/internal/session"
	"github.com/example/go-voice-clone/internal/vocoder"
	"github.com/spf13/cobra"
)

var newPlayer = func(command string) (output.Player, error) {
	p, err := output.NewExecPlayer(command)
	if err != nil {
		return nil, err
	}
	return p, nil
}

var initProvider = observe.InitProvider

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Interactively clone voices from reference recordings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDemo(ctx, cfg, os.Stdin, os.Stdout)
		},
	}
}

func runDemo(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintln(out, "Preparing the encoder, the synthesizer and the vocoder...")

	comps, err := loadComponents(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer comps.Close()

	provider, err := initProvider(ctx, observe.ProviderConfig{ListenAddr: cfg.Metrics.ListenAddr})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown failed", "error", err)
		}
	}()
	if addr := provider.Addr(); addr != "" {
		slog.Info("serving metrics", "addr", addr)
	}

	var player output.Player
	if !cfg.Session.NoSound {
		player, err = newPlayer(cfg.Session.Player)
		if err != nil {
			return err
		}
		defer func() { _ = player.Close() }()
	}

	sink, err := output.NewSink(output.Options{
		Dir:        cfg.Output.Dir,
		Pattern:    cfg.Output.Pattern,
		Format:     audio.Format(cfg.Output.Format),
		PadSeconds: cfg.Output.PadSeconds,
		Player:     player,
	})
	if err != nil {
		return err
	}

	p := comps.pipeline(cfg, sink, vocoder.TerminalProgress{W: out})
	meta := comps.registry.Metadata()
	if err := session.Validate(ctx, p, session.ValidateOptions{
		EncoderRate:   meta.Encoder.SampleRate,
		EmbeddingSize: meta.Encoder.EmbeddingSize,
		Out:           out,
	}); err != nil {
		return err
	}

	err = session.New(p, session.Options{In: in, Out: out, Metrics: provider.Metrics}).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
