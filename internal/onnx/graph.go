package onnx

import (
	"context"
	"fmt"
)

// GraphRunner executes one ONNX graph. Runner is the ONNX Runtime backed
// implementation; tests substitute fakes from package onnxtest.
type GraphRunner interface {
	Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	Name() string
	Close()
}

// Output returns the named output tensor or an error naming the graph.
func Output(r GraphRunner, outputs map[string]*Tensor, name string) (*Tensor, error) {
	t, ok := outputs[name]
	if !ok || t == nil {
		return nil, &MissingOutputError{Graph: r.Name(), Output: name}
	}
	return t, nil
}

// MissingOutputError reports a graph that did not produce an expected output.
type MissingOutputError struct {
	Graph  string
	Output string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("%s: missing %q in output", e.Graph, e.Output)
}
