// Package onnxtest provides in-memory GraphRunner fakes for pipeline tests.
package onnxtest

import (
	"context"
	"errors"
	"sync"

	"github.com/example/go-voice-clone/internal/onnx"
)

// RunFunc computes a graph's outputs from its inputs.
type RunFunc func(ctx context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error)

// Runner is a GraphRunner backed by a RunFunc. It records every call.
type Runner struct {
	name string
	fn   RunFunc

	mu     sync.Mutex
	calls  []map[string]*onnx.Tensor
	closed int
}

var _ onnx.GraphRunner = (*Runner)(nil)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("onnxtest: runner closed")

// NewRunner returns a fake runner named name.
func NewRunner(name string, fn RunFunc) *Runner {
	return &Runner{name: name, fn: fn}
}

func (r *Runner) Run(ctx context.Context, inputs map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
	r.mu.Lock()
	if r.closed > 0 {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.calls = append(r.calls, inputs)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fn(ctx, inputs)
}

func (r *Runner) Name() string { return r.name }

func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
}

// Calls returns the inputs of every Run call so far.
func (r *Runner) Calls() []map[string]*onnx.Tensor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]*onnx.Tensor(nil), r.calls...)
}

// Closed reports how many times Close was called.
func (r *Runner) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Failing returns a RunFunc that always fails with err.
func Failing(err error) RunFunc {
	return func(context.Context, map[string]*onnx.Tensor) (map[string]*onnx.Tensor, error) {
		return nil, err
	}
}
