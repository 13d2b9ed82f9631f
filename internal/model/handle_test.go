package model

import (
	"context"
	"errors"
	"testing"

	"github.com/example/go-voice-clone/internal/onnx"
)

type countingRunner struct {
	name   string
	runs   int
	closed bool
}

func (r *countingRunner) Run(context.Context, map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
	if r.closed {
		return nil, errors.New("closed")
	}
	r.runs++
	return map[string]*onnx.Tensor{}, nil
}
func (r *countingRunner) Name() string { return r.name }
func (r *countingRunner) Close()       { r.closed = true }

func TestHandleKeepsRunnerWhenNotReleasing(t *testing.T) {
	r := &countingRunner{name: "encoder"}
	h := NewHandle(r, nil, false)

	for range 3 {
		if _, err := h.Run(context.Background(), nil); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	if r.runs != 3 || r.closed {
		t.Errorf("runs = %d closed = %v; want 3 runs on one open runner", r.runs, r.closed)
	}

	if h.Loads() != 1 || !h.Loaded() {
		t.Errorf("Loads() = %d Loaded() = %v", h.Loads(), h.Loaded())
	}
}

func TestHandleReleasesAndReloads(t *testing.T) {
	first := &countingRunner{name: "synthesizer"}
	var reopened []*countingRunner
	open := func() (onnx.GraphRunner, error) {
		r := &countingRunner{name: "synthesizer"}
		reopened = append(reopened, r)
		return r, nil
	}

	h := NewHandle(first, open, true)

	err := h.With(func(r onnx.GraphRunner) error {
		// Several calls inside one use share a single load.
		for range 2 {
			if _, err := r.Run(context.Background(), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}

	if !first.closed || first.runs != 2 {
		t.Fatalf("first runner runs = %d closed = %v", first.runs, first.closed)
	}

	if h.Loaded() {
		t.Fatal("Loaded() = true after a releasing use")
	}

	if _, err := h.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run() after release error = %v", err)
	}

	if len(reopened) != 1 || !reopened[0].closed || reopened[0].runs != 1 {
		t.Fatalf("reopened = %+v", reopened)
	}

	if h.Loads() != 2 {
		t.Errorf("Loads() = %d; want 2", h.Loads())
	}
}

func TestHandleReleasesOnError(t *testing.T) {
	r := &countingRunner{name: "synthesizer"}
	h := NewHandle(r, func() (onnx.GraphRunner, error) { return &countingRunner{}, nil }, true)

	boom := errors.New("boom")
	if err := h.With(func(onnx.GraphRunner) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("With() error = %v; want boom", err)
	}

	if !r.closed {
		t.Error("runner not released after a failed use")
	}
}

func TestHandleReloadFailure(t *testing.T) {
	h := NewHandle(&countingRunner{name: "synthesizer"}, func() (onnx.GraphRunner, error) {
		return nil, errors.New("no memory")
	}, true)

	if _, err := h.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	if _, err := h.Run(context.Background(), nil); err == nil {
		t.Fatal("Run() after failed reload = nil error")
	}
}

func TestHandleClose(t *testing.T) {
	r := &countingRunner{name: "vocoder"}
	h := NewHandle(r, func() (onnx.GraphRunner, error) { return &countingRunner{}, nil }, false)

	h.Close()
	h.Close()

	if !r.closed {
		t.Error("Close() did not close the runner")
	}

	if _, err := h.Run(context.Background(), nil); err == nil {
		t.Error("Run() after Close() = nil error")
	}
}
