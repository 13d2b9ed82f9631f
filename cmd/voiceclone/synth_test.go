package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-voice-clone/internal/config"
	"github.com/example/go-voice-clone/internal/onnx"
	"github.com/example/go-voice-clone/internal/testutil"
)

func TestRunSynthCommand_ToStdout(t *testing.T) {
	stubModels(t)
	ref := writeReference(t, t.TempDir())

	var stdout bytes.Buffer
	opts := synthRunOptions{Reference: ref, Text: "Hello world. How are you today?", Out: "-", MaxChars: 12}
	if err := runSynthCommand(context.Background(), config.DefaultConfig(), opts, strings.NewReader(""), &stdout, io.Discard); err != nil {
		t.Fatalf("runSynthCommand: %v", err)
	}

	testutil.AssertValidWAV(t, stdout.Bytes(), 16000, testutil.FormatIEEEFloat)
}

func TestRunSynthCommand_FromStdinToFile(t *testing.T) {
	stubModels(t)
	dir := t.TempDir()
	ref := writeReference(t, dir)
	out := filepath.Join(dir, "nested", "clone.wav")

	cfg := config.DefaultConfig()
	cfg.Output.Format = "pcm16"
	opts := synthRunOptions{Reference: ref, Out: out}
	if err := runSynthCommand(context.Background(), cfg, opts, strings.NewReader(" text from stdin \n"), io.Discard, io.Discard); err != nil {
		t.Fatalf("runSynthCommand: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	testutil.AssertValidWAV(t, data, 16000, testutil.FormatPCM)
}

func TestRunSynthCommand_Errors(t *testing.T) {
	stubModels(t)
	ref := writeReference(t, t.TempDir())

	tests := []struct {
		name  string
		cfg   func(*config.Config)
		opts  synthRunOptions
		stdin string
		want  string
	}{
		{"no text", nil, synthRunOptions{Reference: ref, Out: "-"}, "   ", "no text provided"},
		{"blank text flag", nil, synthRunOptions{Reference: ref, Text: "\n\n", Out: "-"}, "", "no text provided"},
		{"bad format", func(c *config.Config) { c.Output.Format = "mp3" }, synthRunOptions{Reference: ref, Text: "hi", Out: "-"}, "", "format"},
		{"missing reference", nil, synthRunOptions{Reference: filepath.Join(t.TempDir(), "nope.wav"), Text: "hi", Out: "-"}, "", "load reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			err := runSynthCommand(context.Background(), cfg, tt.opts, strings.NewReader(tt.stdin), io.Discard, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v; want containing %q", err, tt.want)
			}
		})
	}
}

func TestRunSynthCommand_TextCheckedBeforeRuntime(t *testing.T) {
	stubModels(t)
	bootstrapRuntime = func(config.RuntimeConfig) (onnx.RuntimeInfo, error) {
		t.Error("runtime bootstrapped for empty input")
		return onnx.RuntimeInfo{}, errors.New("unexpected")
	}

	err := runSynthCommand(context.Background(), config.DefaultConfig(), synthRunOptions{Out: "-"}, strings.NewReader(""), io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestReadSynthText(t *testing.T) {
	got, err := readSynthText("flag text", strings.NewReader("ignored"))
	if err != nil || got != "flag text" {
		t.Errorf("readSynthText(flag) = %q, %v", got, err)
	}

	got, err = readSynthText("", strings.NewReader("  piped  \n"))
	if err != nil || got != "piped" {
		t.Errorf("readSynthText(stdin) = %q, %v", got, err)
	}
}
