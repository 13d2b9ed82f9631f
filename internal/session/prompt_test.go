package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`"quoted path.wav"`, "quoted path.wav"},
		{"'single'", "single"},
		{"  ' spaced '  \n", "spaced"},
		{`"'nested'"`, "nested"},
		{`it's fine`, "it's fine"},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := CleanAnswer(tt.in); got != tt.want {
			t.Errorf("CleanAnswer(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrompterAsk(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("first\nlast without newline"), &out)
	ctx := context.Background()

	got, err := p.Ask(ctx, "Q1?")
	if err != nil || got != "first" {
		t.Fatalf("Ask = %q, %v; want first", got, err)
	}
	got, err = p.Ask(ctx, "Q2?")
	if err != nil || got != "last without newline" {
		t.Fatalf("Ask = %q, %v", got, err)
	}
	if _, err := p.Ask(ctx, "Q3?"); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v; want io.EOF", err)
	}
	if _, err := p.Ask(ctx, ""); !errors.Is(err, io.EOF) {
		t.Errorf("repeat err = %v; want io.EOF", err)
	}

	if out.String() != "Q1?\nQ2?\nQ3?\n" {
		t.Errorf("prompts = %q", out.String())
	}
}

func TestPrompterCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	p := NewPrompter(pr, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Ask(ctx, "?"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
}
