package model

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/go-voice-clone/internal/onnx"
)

// Handle owns one graph runner. A releasing handle closes its runner after
// every use and reopens it on the next; both happen under the handle's lock,
// so a release never races a call.
type Handle struct {
	name      string
	open      func() (onnx.GraphRunner, error)
	releasing bool

	mu     sync.Mutex
	runner onnx.GraphRunner
	loads  int
}

var _ onnx.GraphRunner = (*Handle)(nil)

// NewHandle wraps an already open runner. open reloads the graph after a
// release and may be nil for handles that never release.
func NewHandle(runner onnx.GraphRunner, open func() (onnx.GraphRunner, error), releasing bool) *Handle {
	h := &Handle{open: open, releasing: releasing, runner: runner}
	if runner != nil {
		h.name = runner.Name()
		h.loads = 1
	}
	return h
}

// With runs fn against the loaded runner, loading it first if it was released.
func (h *Handle) With(fn func(onnx.GraphRunner) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.runner == nil {
		if h.open == nil {
			return fmt.Errorf("graph %q is closed", h.name)
		}
		r, err := h.open()
		if err != nil {
			return fmt.Errorf("reload graph %q: %w", h.name, err)
		}
		h.runner = r
		h.loads++
		slog.Debug("loaded graph", "graph", h.name, "loads", h.loads)
	}

	err := fn(h.runner)

	if h.releasing {
		h.runner.Close()
		h.runner = nil
		slog.Debug("released graph", "graph", h.name)
	}
	return err
}

// Run executes one call through With.
func (h *Handle) Run(ctx context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
	var out map[string]*onnx.Tensor
	err := h.With(func(r onnx.GraphRunner) error {
		var err error
		out, err = r.Run(ctx, inputs)
		return err
	})
	return out, err
}

func (h *Handle) Name() string { return h.name }

// Loaded reports whether the runner is currently resident.
func (h *Handle) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runner != nil
}

// Loads returns how many times the graph has been loaded.
func (h *Handle) Loads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loads
}

// Close releases the runner and prevents further reloads.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.runner != nil {
		h.runner.Close()
		h.runner = nil
	}
	h.open = nil
}
