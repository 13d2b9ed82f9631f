package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/example/go-voice-clone/internal/config"
	"github.com/example/go-voice-clone/internal/model"
	"github.com/spf13/cobra"
)

var verifyONNX = model.VerifyONNX

func newModelVerifyCmd() *cobra.Command {
	var ortAPIVersion uint32

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Load each model and run it once on zero inputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runModelVerify(cmd.Context(), cfg, ortAPIVersion, os.Stdout, os.Stderr)
		},
	}

	cmd.Flags().Uint32Var(&ortAPIVersion, "ort-api-version", 0, "ONNX Runtime C API version (default: runtime.ort_api_version)")

	return cmd
}

func runModelVerify(ctx context.Context, cfg config.Config, apiVersion uint32, stdout, stderr io.Writer) error {
	if apiVersion == 0 {
		apiVersion = cfg.Runtime.ORTAPIVersion
	}

	err := verifyONNX(ctx, model.VerifyOptions{
		Paths:         modelPaths(cfg),
		ORTLibrary:    cfg.Runtime.ORTLibraryPath,
		ORTAPIVersion: apiVersion,
		Stdout:        stdout,
		Stderr:        stderr,
	})
	if err != nil {
		return fmt.Errorf("model verify failed: %w", err)
	}

	return nil
}
